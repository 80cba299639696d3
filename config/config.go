package config

import (
	"path/filepath"

	"github.com/pitabwire/frame/config"
)

// VoxConfig holds configuration for the voxlocal API server. All values are
// read once at process start; changing a model root or forward URL requires a
// restart.
type VoxConfig struct {
	config.ConfigurationDefault

	// Speech-to-text
	ModelRoot    string `envDefault:"./models/stt"   env:"TRANSCRIBE_MODEL_ROOT"`
	DefaultModel string `envDefault:"whisper-medium" env:"TRANSCRIBE_DEFAULT_MODEL"`
	Device       string `envDefault:"auto"           env:"TRANSCRIBE_DEVICE"`
	ComputeType  string `envDefault:""               env:"TRANSCRIBE_COMPUTE_TYPE"`
	WhisperBin   string `envDefault:"whisper-cli"    env:"TRANSCRIBE_WHISPER_BIN"`
	STTBackend   string `envDefault:"fasterwhisper"  env:"TRANSCRIBE_STT_BACKEND"`

	// Text-to-speech
	TTSModelRoot    string `envDefault:"./models/tts" env:"TRANSCRIBE_TTS_MODEL_ROOT"`
	DefaultTTSModel string `envDefault:""             env:"TRANSCRIBE_TTS_DEFAULT_MODEL"`
	VoicesManifest  string `envDefault:""             env:"TRANSCRIBE_TTS_VOICES"`
	PiperBin        string `envDefault:"piper"        env:"TRANSCRIBE_PIPER_BIN"`
	TTSBackend      string `envDefault:"piper"        env:"TRANSCRIBE_TTS_BACKEND"`

	// Result relay
	ForwardURL        string `envDefault:""   env:"TRANSCRIBE_FORWARD_URL"`
	ForwardSecret     string `envDefault:""   env:"TRANSCRIBE_FORWARD_SECRET"`
	ForwardTimeoutSec int    `envDefault:"10" env:"TRANSCRIBE_FORWARD_TIMEOUT_SEC"`
}

// DefaultModelPath returns the on-disk directory of the default STT model.
func (c *VoxConfig) DefaultModelPath() string {
	return filepath.Join(c.ModelRoot, c.DefaultModel)
}

// VoicesManifestPath returns the voice manifest location, defaulting to
// voices.yaml inside the TTS model root.
func (c *VoxConfig) VoicesManifestPath() string {
	if c.VoicesManifest != "" {
		return c.VoicesManifest
	}
	return filepath.Join(c.TTSModelRoot, "voices.yaml")
}
