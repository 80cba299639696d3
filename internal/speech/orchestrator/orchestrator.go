// Package orchestrator routes transcription and synthesis requests to
// cached model instances. It is the one place that turns a request's model
// selector and placement overrides into a ModelKey, loads through the
// registry cache, and merges the resolved placement back into the response.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
	"github.com/voxlocal/voxlocal/internal/speech/registry"
	"github.com/voxlocal/voxlocal/internal/speech/voices"
)

// Defaults are the process-wide model placement and backend settings, read
// once at startup.
type Defaults struct {
	Device      string
	ComputeType string
	STTBackend  string
	TTSBackend  string
	WhisperBin  string
	PiperBin    string
	// DefaultVoice overrides the manifest default when a synthesis request
	// names neither a voice nor a language.
	DefaultVoice string
}

// Orchestrator owns the model cache and the request/response contract.
type Orchestrator struct {
	catalog      *registry.Catalog
	manifest     *voices.Manifest
	voiceByModel map[string]voices.Voice
	cache        *registry.Cache
	defaults     Defaults
}

// New wires the catalog and voice manifest to a model cache whose loader
// instantiates backends through the factory registries.
func New(catalog *registry.Catalog, manifest *voices.Manifest, defaults Defaults) *Orchestrator {
	o := &Orchestrator{
		catalog:      catalog,
		manifest:     manifest,
		voiceByModel: make(map[string]voices.Voice),
		defaults:     defaults,
	}
	for _, name := range manifest.Names() {
		if v, ok := manifest.Get(name); ok {
			o.voiceByModel[v.ModelPath] = v
		}
	}
	o.cache = registry.NewCache(o.load)
	return o
}

// load instantiates the engine for a resolved key.
func (o *Orchestrator) load(_ context.Context, key registry.ModelKey) (*registry.LoadedModel, error) {
	switch key.Kind {
	case engine.TextToSpeech:
		voice, ok := o.voiceByModel[key.Path]
		if !ok {
			return nil, &engine.ModelLoadError{Model: key.Path, Cause: fmt.Errorf("voice not in manifest")}
		}
		tts, err := registry.TTS.Create(o.defaults.TTSBackend, map[string]string{
			"bin_path":    o.defaults.PiperBin,
			"model_path":  voice.ModelPath,
			"sample_rate": fmt.Sprintf("%d", voice.SampleRate),
			"languages":   strings.Join(voice.Languages, ","),
			"speakers":    strings.Join(voice.Speakers, ","),
		})
		if err != nil {
			return nil, &engine.ModelLoadError{Model: voice.Name, Cause: err}
		}
		return &registry.LoadedModel{Key: key, Name: voice.Name, TTS: tts}, nil

	default:
		alias, _, err := o.catalog.ResolveSTT(key.Path)
		if err != nil {
			return nil, err
		}
		stt, err := registry.STT.Create(o.defaults.STTBackend, map[string]string{
			"bin_path":     o.defaults.WhisperBin,
			"model_path":   key.Path,
			"device":       key.Device,
			"compute_type": key.ComputeType,
		})
		if err != nil {
			return nil, &engine.ModelLoadError{Model: alias, Cause: err}
		}
		return &registry.LoadedModel{Key: key, Name: alias, STT: stt}, nil
	}
}

// sttKey builds the cache key for an STT model path with request overrides
// applied over the configured defaults.
func (o *Orchestrator) sttKey(path, device, computeType string) registry.ModelKey {
	if device == "" {
		device = o.defaults.Device
	}
	if computeType == "" {
		computeType = o.defaults.ComputeType
	}
	return registry.ModelKey{
		Kind:        engine.SpeechToText,
		Path:        path,
		Device:      device,
		ComputeType: computeType,
	}.Resolved()
}

// ttsKey builds the cache key for a voice. Synthesis always runs on cpu;
// the TTS binary has no device placement to speak of.
func (o *Orchestrator) ttsKey(voice voices.Voice) registry.ModelKey {
	return registry.ModelKey{
		Kind:        engine.TextToSpeech,
		Path:        voice.ModelPath,
		Device:      engine.DeviceCPU,
		ComputeType: engine.ComputeFloat32,
	}
}

// HandleTranscription resolves the model, obtains it from the cache, runs
// the decode, and assembles the response payload.
func (o *Orchestrator) HandleTranscription(ctx context.Context, req TranscriptionRequest) (*TranscriptionResult, error) {
	alias, path, err := o.catalog.ResolveSTT(req.Model)
	if err != nil {
		return nil, err
	}

	model, err := o.cache.GetOrLoad(ctx, o.sttKey(path, req.Device, req.ComputeType))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tr, err := model.STT.Transcribe(ctx, req.AudioPath, engine.TranscribeOptions{
		Language:       req.Language,
		Translate:      req.TranslateToEN,
		VAD:            req.VAD,
		WordTimestamps: req.WordTimestamps,
	})
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	slog.InfoContext(ctx, "transcription complete",
		slog.String("model", alias),
		slog.String("device", model.Key.Device),
		slog.String("compute_type", model.Key.ComputeType),
		slog.Int("segments", tr.SegmentCount()),
		slog.Int("words", tr.WordCount),
		slog.Duration("duration", elapsed))

	return &TranscriptionResult{
		ID:                  xid.New().String(),
		Text:                tr.Text,
		Segments:            tr.Segments,
		Language:            tr.Language,
		LanguageProbability: tr.LanguageProbability,
		WordCount:           tr.WordCount,
		CharCount:           tr.CharCount,
		SegmentCount:        tr.SegmentCount(),
		Model:               alias,
		ModelPath:           path,
		Device:              model.Key.Device,
		ComputeType:         model.Key.ComputeType,
	}, nil
}

// HandleSynthesis resolves the voice, obtains it from the cache, and returns
// the synthesized WAV payload with its forwarding metadata.
func (o *Orchestrator) HandleSynthesis(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, engine.Validationf("text to synthesize is empty")
	}

	voice, err := o.resolveVoice(req.Model, req.Language)
	if err != nil {
		return nil, err
	}

	model, err := o.cache.GetOrLoad(ctx, o.ttsKey(voice))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	audio, err := model.TTS.Synthesize(ctx, req.Text, engine.SynthesisOptions{
		Language: req.Language,
		Speaker:  req.Speaker,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "synthesis complete",
		slog.String("voice", voice.Name),
		slog.Int("chars", len(req.Text)),
		slog.Int("audio_bytes", len(audio)),
		slog.Duration("duration", time.Since(start)))

	return &SynthesisResult{
		ID:         xid.New().String(),
		Voice:      voice.Name,
		Language:   req.Language,
		CharCount:  len([]rune(req.Text)),
		AudioBytes: len(audio),
		Audio:      audio,
	}, nil
}

// resolveVoice picks a voice by explicit model name first, then by
// requested language, then the configured default voice, then the manifest
// default.
func (o *Orchestrator) resolveVoice(model, language string) (voices.Voice, error) {
	if model == "" && language == "" {
		model = o.defaults.DefaultVoice
	}
	if model != "" {
		v, ok := o.manifest.Get(model)
		if !ok {
			return voices.Voice{}, engine.Validationf("unknown voice %q; available voices: %s",
				model, strings.Join(o.manifest.Names(), ", "))
		}
		return v, nil
	}
	v, ok := o.manifest.ForLanguage(language)
	if !ok {
		return voices.Voice{}, engine.Validationf("no TTS voices installed")
	}
	return v, nil
}

// Preload loads every discovered STT model with the default placement.
// Individual failures are warnings; a default model that cannot load is
// fatal, matching the server's startup contract.
func (o *Orchestrator) Preload(ctx context.Context) error {
	defaultAlias, _ := o.catalog.DefaultSTT()
	for _, alias := range o.catalog.ListAvailable(engine.SpeechToText) {
		path, ok := o.catalog.STTPath(alias)
		if !ok {
			continue
		}
		if _, err := o.cache.GetOrLoad(ctx, o.sttKey(path, "", "")); err != nil {
			if alias == defaultAlias {
				return err
			}
			slog.WarnContext(ctx, "model preload failed",
				slog.String("model", alias), slog.String("error", err.Error()))
		}
	}
	return nil
}

// Catalog exposes the startup model snapshot for discovery endpoints.
func (o *Orchestrator) Catalog() *registry.Catalog { return o.catalog }

// VoiceNames lists the installed TTS voices.
func (o *Orchestrator) VoiceNames() []string { return o.manifest.Names() }

// ModelStatus describes one discovered STT model for health reporting.
type ModelStatus struct {
	Alias  string `json:"alias"`
	Path   string `json:"path"`
	Loaded bool   `json:"loaded"`
}

// ModelStatuses reports, per discovered model, whether an instance with the
// default placement is loaded.
func (o *Orchestrator) ModelStatuses() []ModelStatus {
	aliases := o.catalog.ListAvailable(engine.SpeechToText)
	out := make([]ModelStatus, 0, len(aliases))
	for _, alias := range aliases {
		path, ok := o.catalog.STTPath(alias)
		if !ok {
			continue
		}
		out = append(out, ModelStatus{
			Alias:  alias,
			Path:   path,
			Loaded: o.cache.Loaded(o.sttKey(path, "", "")),
		})
	}
	return out
}

// DefaultPlacement returns the default model alias, its path, and its
// resolved placement when the instance is loaded.
func (o *Orchestrator) DefaultPlacement() (alias, path, device, computeType string, loaded bool) {
	alias, path = o.catalog.DefaultSTT()
	key := o.sttKey(path, "", "")
	if o.cache.Loaded(key) {
		return alias, path, key.Device, key.ComputeType, true
	}
	return alias, path, "", "", false
}
