// Package fasterwhisper runs speech-to-text through a local whisper.cpp
// CLI. The binary does the heavy decoding; this package builds the
// invocation, drains the emitted segment list, and normalizes it into the
// canonical transcription shape.
package fasterwhisper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
	"github.com/voxlocal/voxlocal/internal/speech/registry"
)

func init() {
	registry.STT.Register("fasterwhisper", func(config map[string]string) (engine.Transcriber, error) {
		bin := config["bin_path"]
		if bin == "" {
			bin = "whisper-cli"
		}
		return New(Config{
			BinPath:     bin,
			ModelDir:    config["model_path"],
			Device:      config["device"],
			ComputeType: config["compute_type"],
		})
	})
}

// Config holds what the engine needs to invoke the decoder.
type Config struct {
	BinPath     string
	ModelDir    string
	Device      string
	ComputeType string
}

// Engine decodes audio files with a whisper.cpp binary.
type Engine struct {
	bin         string
	modelDir    string
	modelFile   string
	device      string
	computeType string
}

// New validates the model directory and locates the model weights file.
// Instantiation is the expensive, failure-prone step, so everything that can
// go wrong with the model on disk goes wrong here, not at decode time.
func New(cfg Config) (*Engine, error) {
	modelFile, err := findModelFile(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	return &Engine{
		bin:         cfg.BinPath,
		modelDir:    cfg.ModelDir,
		modelFile:   modelFile,
		device:      cfg.Device,
		computeType: cfg.ComputeType,
	}, nil
}

// findModelFile returns the weights file inside a model directory:
// model.bin when present, otherwise the first *.bin entry.
func findModelFile(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("model path %q is not a directory", dir)
	}

	preferred := filepath.Join(dir, "model.bin")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no model weights (*.bin) in %q", dir)
	}
	return matches[0], nil
}

// Transcribe runs the decoder over the audio file and returns the fully
// assembled transcription.
func (e *Engine) Transcribe(ctx context.Context, audioPath string, opts engine.TranscribeOptions) (*engine.Transcription, error) {
	if opts.VAD {
		trimmed, cleanup, err := e.applySilenceFilter(ctx, audioPath)
		if err == nil {
			defer cleanup()
			audioPath = trimmed
		} else {
			// Silence filtering needs 16-bit mono WAV input; anything else is
			// decoded unfiltered.
			slog.DebugContext(ctx, "vad filter skipped", slog.String("audio", audioPath), slog.String("reason", err.Error()))
		}
	}

	outDir, err := os.MkdirTemp("", "voxlocal-stt-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)
	outBase := filepath.Join(outDir, "transcript")

	args := []string{
		"-m", e.modelFile,
		"-f", audioPath,
		"-of", outBase,
		"-bs", "5",
		"-bo", "5",
	}
	if opts.WordTimestamps {
		args = append(args, "-ojf")
	} else {
		args = append(args, "-oj")
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	} else {
		args = append(args, "-l", "auto")
	}
	if opts.Translate {
		args = append(args, "-tr")
	}
	if e.device == engine.DeviceCPU {
		args = append(args, "-ng")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &engine.InferenceError{
			Model: e.modelDir,
			Cause: fmt.Errorf("%w: %s", err, tail(stderr.String(), 512)),
		}
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, &engine.InferenceError{Model: e.modelDir, Cause: err}
	}

	result, err := parseTranscript(data, opts, stderr.String())
	if err != nil {
		return nil, &engine.InferenceError{Model: e.modelDir, Cause: err}
	}
	return result, nil
}

// applySilenceFilter trims long silences from a WAV file and writes the
// filtered audio next to a cleanup func for the temp file.
func (e *Engine) applySilenceFilter(_ context.Context, audioPath string) (string, func(), error) {
	pcm, sampleRate, err := engine.DecodeWAV(audioPath)
	if err != nil {
		return "", nil, err
	}
	trimmed := engine.TrimSilence(pcm, engine.DefaultVADConfig(sampleRate))

	f, err := os.CreateTemp("", "voxlocal-vad-*.wav")
	if err != nil {
		return "", nil, err
	}
	name := f.Name()
	_, werr := f.Write(engine.EncodeWAV(trimmed, sampleRate))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		if werr != nil {
			return "", nil, werr
		}
		return "", nil, cerr
	}
	return name, func() { os.Remove(name) }, nil
}

// tail returns at most the last n bytes of s, for error messages.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
