package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/voxlocal/voxlocal/pkg/urlvalidation"
)

// one retry after the initial attempt
const maxAttempts = 2

// ForwarderConfig holds forwarding settings.
type ForwarderConfig struct {
	URL        string
	Secret     string
	TimeoutSec int
}

// Forwarder POSTs result envelopes to the configured downstream URL.
// Delivery is asynchronous and best-effort: failures are logged, never
// surfaced to the request that produced the result.
type Forwarder struct {
	config       ForwarderConfig
	httpClient   *http.Client
	pool         workerpool.WorkerPool
	breaker      *Breaker
	retryDelay   time.Duration
	validateOpts []urlvalidation.Option
}

// NewForwarder creates a forwarder, or nil when no URL is configured.
func NewForwarder(cfg ForwarderConfig, pool workerpool.WorkerPool, validateOpts ...urlvalidation.Option) *Forwarder {
	if cfg.URL == "" {
		return nil
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 10
	}
	return &Forwarder{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pool:         pool,
		breaker:      NewBreaker(5, 30*time.Second),
		retryDelay:   2 * time.Second,
		validateOpts: validateOpts,
	}
}

// Forward marshals data into an envelope and schedules its delivery.
// Safe to call on a nil forwarder.
func (f *Forwarder) Forward(ctx context.Context, t ResultType, data any) {
	if f == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "result forward skipped, marshal failed",
			slog.String("type", string(t)),
			slog.String("error", err.Error()))
		return
	}
	env := NewEnvelope(t, "voxlocal", raw)

	deliver := func() { f.deliver(ctx, env, 1) }
	if f.pool != nil {
		if err := f.pool.Submit(ctx, deliver); err != nil {
			slog.WarnContext(ctx, "forward pool full, dropping delivery",
				slog.String("delivery_id", env.ID))
		}
		return
	}
	go deliver()
}

func (f *Forwarder) deliver(ctx context.Context, env Envelope, attempt int) {
	if err := urlvalidation.ValidateForwardURL(f.config.URL, f.validateOpts...); err != nil {
		slog.ErrorContext(ctx, "forward URL failed validation",
			slog.String("url", f.config.URL),
			slog.String("error", err.Error()))
		return
	}

	if !f.breaker.Allow() {
		slog.WarnContext(ctx, "forward skipped, breaker open",
			slog.String("delivery_id", env.ID))
		return
	}

	body, err := json.Marshal(env)
	if err != nil {
		slog.ErrorContext(ctx, "forward envelope marshal failed",
			slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.URL, bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "forward request build failed",
			slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voxlocal-Result", string(env.Type))
	req.Header.Set("X-Voxlocal-Delivery", env.ID)
	if f.config.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(f.config.Secret, body))
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.breaker.Failure()
		f.handleFailure(ctx, env, attempt, err.Error())
		return
	}
	defer resp.Body.Close()

	// Drain for connection reuse.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.breaker.Success()
		slog.InfoContext(ctx, "result forwarded",
			slog.String("delivery_id", env.ID),
			slog.String("type", string(env.Type)),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
		return
	}

	f.breaker.Failure()
	f.handleFailure(ctx, env, attempt, resp.Status)
}

func (f *Forwarder) handleFailure(ctx context.Context, env Envelope, attempt int, errMsg string) {
	if attempt >= maxAttempts {
		slog.ErrorContext(ctx, "result forward failed, giving up",
			slog.String("delivery_id", env.ID),
			slog.Int("attempts", attempt),
			slog.String("error", errMsg))
		return
	}

	slog.WarnContext(ctx, "result forward failed, retrying",
		slog.String("delivery_id", env.ID),
		slog.Int("attempt", attempt),
		slog.String("error", errMsg))

	retry := func() {
		timer := time.NewTimer(f.retryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			f.deliver(ctx, env, attempt+1)
		}
	}
	if f.pool != nil {
		if err := f.pool.Submit(ctx, retry); err != nil {
			slog.WarnContext(ctx, "forward pool full, dropping retry",
				slog.String("delivery_id", env.ID))
		}
		return
	}
	go retry()
}
