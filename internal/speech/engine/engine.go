package engine

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Kind identifies a model family.
type Kind string

const (
	SpeechToText Kind = "stt"
	TextToSpeech Kind = "tts"
)

// TranscribeOptions carries per-request decoding options.
type TranscribeOptions struct {
	Language       string // forced language code, empty for auto-detection
	Translate      bool   // translate to English instead of transcribing
	VAD            bool   // filter long silences before decoding
	WordTimestamps bool   // per-word timing (slower)
}

// Word is a single word with its timing, present when word timestamps
// were requested.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Segment is a contiguous span of recognized speech. Start and End are
// seconds from the beginning of the audio. Text carries whatever leading
// whitespace the decoder emitted; nothing is inserted between segments.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcription is the canonical speech-to-text result.
type Transcription struct {
	Text                string
	Segments            []Segment
	Language            string
	LanguageProbability float64
	WordCount           int
	CharCount           int
}

// SegmentCount returns the number of retained segments.
func (t *Transcription) SegmentCount() int { return len(t.Segments) }

// Lines returns one trimmed line per segment, the shape written to
// transcript text files.
func (t *Transcription) Lines() []string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		lines = append(lines, strings.TrimSpace(seg.Text))
	}
	return lines
}

// Assemble builds a Transcription from decoder output. Segments whose
// trimmed text is empty are dropped. The full text is the raw concatenation
// of the remaining segment texts with no inserted separators; word and
// character counts are derived from that text.
func Assemble(segments []Segment, language string, languageProbability float64) *Transcription {
	var b strings.Builder
	kept := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		kept = append(kept, seg)
		b.WriteString(seg.Text)
	}

	text := b.String()
	return &Transcription{
		Text:                text,
		Segments:            kept,
		Language:            language,
		LanguageProbability: languageProbability,
		WordCount:           len(strings.Fields(text)),
		CharCount:           utf8.RuneCountInString(text),
	}
}

// SynthesisOptions carries per-request synthesis options. Language and
// Speaker are honored only when the voice supports them.
type SynthesisOptions struct {
	Language string
	Speaker  string
}

// Transcriber decodes an audio file into a Transcription. The audio is a
// path on local disk; the segment sequence produced by the backend is fully
// consumed before the result is returned, since language detection is only
// final after a complete decode.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*Transcription, error)
}

// Synthesizer turns text into a complete WAV payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error)
}
