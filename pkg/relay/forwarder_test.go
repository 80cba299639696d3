package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxlocal/voxlocal/pkg/urlvalidation"
)

func testForwarder(t *testing.T, url, secret string) *Forwarder {
	t.Helper()
	f := NewForwarder(ForwarderConfig{URL: url, Secret: secret, TimeoutSec: 2},
		nil, urlvalidation.AllowPrivateIPs())
	if f == nil {
		t.Fatal("NewForwarder returned nil for a configured URL")
	}
	f.retryDelay = 10 * time.Millisecond
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNewForwarderNilWithoutURL(t *testing.T) {
	if f := NewForwarder(ForwarderConfig{}, nil); f != nil {
		t.Error("no URL should yield a nil forwarder")
	}

	// A nil forwarder is safe to use.
	var nilF *Forwarder
	nilF.Forward(context.Background(), TranscriptionResult, map[string]string{"text": "x"})
}

func TestForwardDeliversSignedEnvelope(t *testing.T) {
	var got atomic.Pointer[http.Request]
	var body atomic.Pointer[[]byte]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body.Store(&b)
		got.Store(r.Clone(context.Background()))
	}))
	defer srv.Close()

	f := testForwarder(t, srv.URL, "s3cret")
	f.Forward(context.Background(), TranscriptionResult, map[string]string{"text": "Bonjour le monde"})

	waitFor(t, func() bool { return got.Load() != nil })

	r := got.Load()
	b := *body.Load()

	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rt := r.Header.Get("X-Voxlocal-Result"); rt != string(TranscriptionResult) {
		t.Errorf("result header = %q", rt)
	}
	if r.Header.Get("X-Voxlocal-Delivery") == "" {
		t.Error("delivery ID header missing")
	}
	if sig := r.Header.Get(SignatureHeader); !Verify("s3cret", b, sig) {
		t.Errorf("signature %q does not verify against body", sig)
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	if env.Type != TranscriptionResult || env.ID == "" || env.Source != "voxlocal" {
		t.Errorf("envelope = %+v", env)
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil || data["text"] != "Bonjour le monde" {
		t.Errorf("envelope data = %s", env.Data)
	}
}

func TestForwardRetriesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := testForwarder(t, srv.URL, "")
	f.Forward(context.Background(), SynthesisResult, map[string]int{"bytes": 42})

	waitFor(t, func() bool { return hits.Load() == 2 })
}

func TestForwardGivesUpAfterRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testForwarder(t, srv.URL, "")
	f.Forward(context.Background(), TranscriptionResult, map[string]int{"n": 1})

	waitFor(t, func() bool { return hits.Load() == 2 })
	time.Sleep(50 * time.Millisecond)
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want exactly 2 (one retry)", hits.Load())
	}
}

func TestForwardFailureDoesNotPropagate(t *testing.T) {
	f := testForwarder(t, "http://127.0.0.1:1/unreachable", "")

	// Must not panic or block; delivery failures are the forwarder's problem.
	f.Forward(context.Background(), TranscriptionResult, map[string]int{"n": 1})
	time.Sleep(100 * time.Millisecond)
}

func TestForwardBreakerSkipsDeliveries(t *testing.T) {
	f := testForwarder(t, "http://127.0.0.1:1/unreachable", "")
	f.breaker = NewBreaker(1, time.Hour)
	f.breaker.Failure()

	env := NewEnvelope(TranscriptionResult, "voxlocal", json.RawMessage(`{}`))
	f.deliver(context.Background(), env, 1)
	// The breaker swallowed the attempt; nothing to assert beyond no retry
	// scheduling, which would show up as a late goroutine panic.
	if !f.breaker.Open() {
		t.Error("breaker should remain open")
	}
}
