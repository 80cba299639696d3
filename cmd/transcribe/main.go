// Command transcribe runs a single decode from the command line without
// starting the API server. It honors the same TRANSCRIBE_* environment
// variables as voxlocald; flags override them per invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxlocal/voxlocal/internal/speech/orchestrator"
	"github.com/voxlocal/voxlocal/internal/speech/registry"
	"github.com/voxlocal/voxlocal/internal/speech/voices"

	_ "github.com/voxlocal/voxlocal/internal/speech/backends/fasterwhisper"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var (
		output         = flag.String("o", "", "transcript output file (default: the audio path with a .txt extension)")
		model          = flag.String("m", envOr("TRANSCRIBE_MODEL", ""), "model alias or path (default: server default model)")
		device         = flag.String("device", envOr("TRANSCRIBE_DEVICE", "auto"), "device: auto, cpu or cuda")
		computeType    = flag.String("compute-type", envOr("TRANSCRIBE_COMPUTE_TYPE", ""), "compute type: float32, float16 or int8")
		language       = flag.String("language", "", "source language code (default: detect)")
		translate      = flag.Bool("translate-to-en", false, "translate the transcript to English")
		wordTimestamps = flag.Bool("word-timestamps", false, "include per-word timestamps")
		vad            = flag.Bool("vad", false, "filter long silences before decoding")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <audio-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	audioPath := flag.Arg(0)

	if err := run(context.Background(), audioPath, *output, orchestrator.TranscriptionRequest{
		AudioPath:      audioPath,
		Model:          *model,
		Language:       *language,
		TranslateToEN:  *translate,
		WordTimestamps: *wordTimestamps,
		VAD:            *vad,
		Device:         *device,
		ComputeType:    *computeType,
	}); err != nil {
		slog.Error("transcription failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, audioPath, output string, req orchestrator.TranscriptionRequest) error {
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio file: %w", err)
	}

	modelRoot := envOr("TRANSCRIBE_MODEL_ROOT", "./models/stt")
	defaultModelPath := filepath.Join(modelRoot, envOr("TRANSCRIBE_DEFAULT_MODEL", "whisper-medium"))

	// A model directory given by path works standalone: it becomes the
	// catalog default, so nothing under the model root has to exist.
	if req.Model != "" {
		if info, err := os.Stat(req.Model); err == nil && info.IsDir() {
			defaultModelPath = req.Model
		}
	}

	catalog, err := registry.Discover(modelRoot, defaultModelPath, "")
	if err != nil {
		return err
	}

	orch := orchestrator.New(catalog, voices.Empty(), orchestrator.Defaults{
		Device:      req.Device,
		ComputeType: req.ComputeType,
		STTBackend:  envOr("TRANSCRIBE_STT_BACKEND", "fasterwhisper"),
		WhisperBin:  envOr("TRANSCRIBE_WHISPER_BIN", "whisper-cli"),
	})

	slog.Info("transcription started",
		slog.String("file", audioPath),
		slog.String("model", req.Model))

	start := time.Now()
	res, err := orch.HandleTranscription(ctx, req)
	if err != nil {
		return err
	}

	slog.Info("transcription finished",
		slog.String("model", res.Model),
		slog.String("language", res.Language),
		slog.Int("segments", res.SegmentCount),
		slog.Int("words", res.WordCount),
		slog.Duration("duration", time.Since(start)))

	if output == "" {
		output = strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".txt"
	}
	if err := orchestrator.WriteTranscript(res, output); err != nil {
		return err
	}
	fmt.Println(res.Text)
	slog.Info("transcript written", slog.String("path", output))
	return nil
}
