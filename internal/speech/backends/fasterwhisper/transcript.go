package fasterwhisper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

// transcriptFile mirrors the JSON the whisper.cpp CLI writes with -oj/-ojf.
// Offsets are milliseconds from the start of the audio.
type transcriptFile struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			Text    string `json:"text"`
			Offsets struct {
				From int64 `json:"from"`
				To   int64 `json:"to"`
			} `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// detectedLanguage matches the decoder's stderr line reporting language
// detection, e.g. "auto-detected language: fr (p = 0.973229)".
var detectedLanguage = regexp.MustCompile(`auto-detected language: ([a-z]{2,3}) \(p = ([0-9.]+)\)`)

// parseTranscript converts the decoder's JSON output into the canonical
// transcription. The segment list is consumed in full before language
// metadata is finalized.
func parseTranscript(data []byte, opts engine.TranscribeOptions, stderr string) (*engine.Transcription, error) {
	var tf transcriptFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse transcript JSON: %w", err)
	}

	segments := make([]engine.Segment, 0, len(tf.Transcription))
	for _, entry := range tf.Transcription {
		seg := engine.Segment{
			Start: float64(entry.Offsets.From) / 1000,
			End:   float64(entry.Offsets.To) / 1000,
			Text:  entry.Text,
		}
		if opts.WordTimestamps {
			for _, tok := range entry.Tokens {
				// Bracketed entries are decoder control tokens, not speech.
				if strings.HasPrefix(tok.Text, "[_") {
					continue
				}
				word := strings.TrimSpace(tok.Text)
				if word == "" {
					continue
				}
				seg.Words = append(seg.Words, engine.Word{
					Start: float64(tok.Offsets.From) / 1000,
					End:   float64(tok.Offsets.To) / 1000,
					Word:  word,
				})
			}
		}
		segments = append(segments, seg)
	}

	language, probability := resolveLanguage(tf.Result.Language, opts.Language, stderr)
	return engine.Assemble(segments, language, probability), nil
}

// resolveLanguage settles the detected language and its probability. A
// forced language is reported back with probability 1; otherwise the
// detection line from stderr supplies the probability when present.
func resolveLanguage(reported, forced, stderr string) (string, float64) {
	if forced != "" {
		return forced, 1
	}
	if m := detectedLanguage.FindStringSubmatch(stderr); m != nil {
		p, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			return m[1], p
		}
		return m[1], 0
	}
	return reported, 0
}
