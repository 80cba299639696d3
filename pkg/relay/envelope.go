// Package relay forwards finished speech results to a configured downstream
// URL and holds the most recent response posted back by that downstream.
package relay

import (
	"encoding/json"
	"time"

	"github.com/rs/xid"
)

// ResultType identifies the kind of result being forwarded.
type ResultType string

const (
	TranscriptionResult ResultType = "transcription.result"
	SynthesisResult     ResultType = "synthesis.result"
)

// Envelope wraps a forwarded result with delivery metadata.
type Envelope struct {
	ID        string          `json:"id"`
	Type      ResultType      `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps data in an envelope with a fresh delivery ID.
func NewEnvelope(t ResultType, source string, data json.RawMessage) Envelope {
	return Envelope{
		ID:        xid.New().String(),
		Type:      t,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
