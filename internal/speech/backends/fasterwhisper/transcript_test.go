package fasterwhisper

import (
	"math"
	"testing"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

const sampleTranscript = `{
  "result": { "language": "fr" },
  "transcription": [
    {
      "offsets": { "from": 0, "to": 1200 },
      "text": "Bonjour ",
      "tokens": [
        { "text": "[_BEG_]", "offsets": { "from": 0, "to": 0 } },
        { "text": " Bonjour", "offsets": { "from": 0, "to": 1100 } }
      ]
    },
    {
      "offsets": { "from": 1200, "to": 2500 },
      "text": "le monde",
      "tokens": [
        { "text": " le", "offsets": { "from": 1200, "to": 1500 } },
        { "text": " monde", "offsets": { "from": 1500, "to": 2400 } }
      ]
    }
  ]
}`

func TestParseTranscript(t *testing.T) {
	tr, err := parseTranscript([]byte(sampleTranscript), engine.TranscribeOptions{},
		"whisper_init ...\nauto-detected language: fr (p = 0.973229)\n")
	if err != nil {
		t.Fatalf("parseTranscript: %v", err)
	}

	if tr.Text != "Bonjour le monde" {
		t.Errorf("Text = %q, want %q", tr.Text, "Bonjour le monde")
	}
	if tr.SegmentCount() != 2 {
		t.Fatalf("SegmentCount = %d, want 2", tr.SegmentCount())
	}
	if tr.WordCount != 3 || tr.CharCount != 16 {
		t.Errorf("counts = %d words, %d chars; want 3, 16", tr.WordCount, tr.CharCount)
	}

	seg := tr.Segments[1]
	if seg.Start != 1.2 || seg.End != 2.5 {
		t.Errorf("segment times = %v..%v, want 1.2..2.5", seg.Start, seg.End)
	}
	if len(seg.Words) != 0 {
		t.Error("words should be absent when word timestamps are off")
	}

	if tr.Language != "fr" {
		t.Errorf("Language = %q, want fr", tr.Language)
	}
	if math.Abs(tr.LanguageProbability-0.973229) > 1e-9 {
		t.Errorf("LanguageProbability = %v, want 0.973229", tr.LanguageProbability)
	}
}

func TestParseTranscriptWordTimestamps(t *testing.T) {
	tr, err := parseTranscript([]byte(sampleTranscript), engine.TranscribeOptions{WordTimestamps: true}, "")
	if err != nil {
		t.Fatal(err)
	}

	words := tr.Segments[0].Words
	if len(words) != 1 {
		t.Fatalf("segment 0 words = %d, want 1 (control token skipped)", len(words))
	}
	if words[0].Word != "Bonjour" || words[0].End != 1.1 {
		t.Errorf("word = %+v", words[0])
	}
	if len(tr.Segments[1].Words) != 2 {
		t.Errorf("segment 1 words = %d, want 2", len(tr.Segments[1].Words))
	}
}

func TestParseTranscriptForcedLanguage(t *testing.T) {
	tr, err := parseTranscript([]byte(sampleTranscript), engine.TranscribeOptions{Language: "fr"},
		"auto-detected language: en (p = 0.5)\n")
	if err != nil {
		t.Fatal(err)
	}

	if tr.Language != "fr" {
		t.Errorf("Language = %q, want forced fr", tr.Language)
	}
	if tr.LanguageProbability != 1 {
		t.Errorf("forced language probability = %v, want 1", tr.LanguageProbability)
	}
}

func TestParseTranscriptNoDetectionLine(t *testing.T) {
	tr, err := parseTranscript([]byte(sampleTranscript), engine.TranscribeOptions{}, "")
	if err != nil {
		t.Fatal(err)
	}

	if tr.Language != "fr" {
		t.Errorf("Language = %q, want the reported fr", tr.Language)
	}
	if tr.LanguageProbability != 0 {
		t.Errorf("probability without detection line = %v, want 0", tr.LanguageProbability)
	}
}

func TestParseTranscriptBadJSON(t *testing.T) {
	if _, err := parseTranscript([]byte("not json"), engine.TranscribeOptions{}, ""); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
