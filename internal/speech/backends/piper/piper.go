// Package piper synthesizes speech through the Piper TTS binary. The binary
// emits raw 16-bit PCM; this package wraps it into a WAV container and
// enforces the voice's declared language and speaker capabilities.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
	"github.com/voxlocal/voxlocal/internal/speech/registry"
)

func init() {
	registry.TTS.Register("piper", func(config map[string]string) (engine.Synthesizer, error) {
		bin := config["bin_path"]
		if bin == "" {
			bin = "piper"
		}
		sampleRate := 22050
		if s := config["sample_rate"]; s != "" {
			if v, err := strconv.Atoi(s); err == nil && v > 0 {
				sampleRate = v
			}
		}
		return New(Config{
			BinPath:    bin,
			ModelPath:  config["model_path"],
			SampleRate: sampleRate,
			Languages:  splitList(config["languages"]),
			Speakers:   splitList(config["speakers"]),
		})
	})
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Config describes one Piper voice model.
type Config struct {
	BinPath    string
	ModelPath  string
	SampleRate int
	Languages  []string
	Speakers   []string
}

// Engine synthesizes speech with a single Piper voice.
type Engine struct {
	cfg Config

	// runPiper is swapped out in tests; the default execs the binary.
	runPiper func(ctx context.Context, text string, args []string) ([]byte, error)
}

// New verifies the voice model file exists and returns the engine.
func New(cfg Config) (*Engine, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("voice model %q: %w", cfg.ModelPath, err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	e := &Engine{cfg: cfg}
	e.runPiper = e.execPiper
	return e, nil
}

// Synthesize produces a complete WAV payload for the text. A language the
// voice cannot speak is a client error; on a single-language voice the
// option is ignored. Speakers work the same way.
func (e *Engine) Synthesize(ctx context.Context, text string, opts engine.SynthesisOptions) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, engine.Validationf("text to synthesize is empty")
	}

	multilingual := len(e.cfg.Languages) > 1
	if opts.Language != "" && multilingual && !e.supportsLanguage(opts.Language) {
		return nil, engine.Validationf("voice %q does not speak %q (supported: %s)",
			e.cfg.ModelPath, opts.Language, strings.Join(e.cfg.Languages, ", "))
	}

	args := []string{"--model", e.cfg.ModelPath, "--output-raw"}
	if opts.Speaker != "" && len(e.cfg.Speakers) > 1 {
		args = append(args, "--speaker", speakerID(e.cfg.Speakers, opts.Speaker))
	}

	pcm, err := e.runPiper(ctx, text, args)
	if err != nil {
		return nil, &engine.InferenceError{Model: e.cfg.ModelPath, Cause: err}
	}
	return engine.EncodeWAV(pcm, e.cfg.SampleRate), nil
}

func (e *Engine) supportsLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range e.cfg.Languages {
		if strings.ToLower(l) == lang {
			return true
		}
	}
	return false
}

// speakerID maps a speaker name to Piper's numeric speaker index; a value
// that is already numeric passes through.
func speakerID(speakers []string, speaker string) string {
	if _, err := strconv.Atoi(speaker); err == nil {
		return speaker
	}
	for i, name := range speakers {
		if strings.EqualFold(name, speaker) {
			return strconv.Itoa(i)
		}
	}
	return "0"
}

func (e *Engine) execPiper(ctx context.Context, text string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.cfg.BinPath, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
