package relay

import (
	"encoding/json"
	"sync"
	"time"
)

// Message is a response posted back by the downstream consumer.
type Message struct {
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Store keeps only the most recent downstream response. A new message
// replaces the previous one unconditionally; there is no history.
type Store struct {
	mu     sync.Mutex
	latest *Message
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Put replaces the stored message.
func (s *Store) Put(payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &Message{
		Payload:    append(json.RawMessage(nil), payload...),
		ReceivedAt: time.Now().UTC(),
	}
}

// Latest returns the most recent message, or false when none has arrived.
func (s *Store) Latest() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Message{}, false
	}
	return *s.latest, true
}
