package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

// TranscriptionRequest carries one decode job. Model may be an installed
// alias, an absolute model path, or empty for the configured default.
// Device and ComputeType override the server defaults when set.
type TranscriptionRequest struct {
	AudioPath      string
	Model          string
	Language       string
	TranslateToEN  bool
	VAD            bool
	WordTimestamps bool
	Device         string
	ComputeType    string
}

// TranscriptionResult is the response payload for a decode, including the
// placement the model actually ran with.
type TranscriptionResult struct {
	ID                  string           `json:"id"`
	Text                string           `json:"text"`
	Segments            []engine.Segment `json:"segments"`
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	WordCount           int              `json:"word_count"`
	CharCount           int              `json:"char_count"`
	SegmentCount        int              `json:"segment_count"`
	Model               string           `json:"model"`
	ModelPath           string           `json:"model_path"`
	Device              string           `json:"device"`
	ComputeType         string           `json:"compute_type"`
}

// SynthesisRequest carries one synthesis job. Model selects a voice by
// name; when empty the voice is chosen by Language, falling back to the
// manifest default.
type SynthesisRequest struct {
	Text     string
	Language string
	Speaker  string
	Model    string
}

// SynthesisResult carries the synthesized audio plus the metadata forwarded
// downstream. The WAV payload itself stays out of the forwarded JSON.
type SynthesisResult struct {
	ID         string `json:"id"`
	Voice      string `json:"voice"`
	Language   string `json:"language,omitempty"`
	CharCount  int    `json:"char_count"`
	AudioBytes int    `json:"audio_bytes"`
	Audio      []byte `json:"-"`
}

// WriteTranscript writes the result as a text file, one trimmed segment per
// line with a trailing newline, creating parent directories as needed.
func WriteTranscript(res *TranscriptionResult, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create transcript directory: %w", err)
	}
	var lines []string
	for _, seg := range res.Segments {
		if line := strings.TrimSpace(seg.Text); line != "" {
			lines = append(lines, line)
		}
	}
	var body string
	if len(lines) > 0 {
		body = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
