package registry

import (
	"context"
	"sync"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

// ModelKey identifies one loaded model instance. Device and ComputeType are
// always the resolved values: "auto" never appears in a stored key, so a
// request written with auto and one written with the concrete device hit the
// same entry.
type ModelKey struct {
	Kind        engine.Kind
	Path        string
	Device      string
	ComputeType string
}

// Resolved returns the key with device and compute type made concrete.
func (k ModelKey) Resolved() ModelKey {
	k.Device = engine.ResolveDevice(k.Device)
	k.ComputeType = engine.ResolveComputeType(k.Device, k.ComputeType)
	return k
}

// LoadedModel wraps a ready inference engine with its resolved placement.
// Exactly one of STT / TTS is set, matching Key.Kind. Instances live for the
// process lifetime; there is no eviction.
type LoadedModel struct {
	Key  ModelKey
	Name string
	STT  engine.Transcriber
	TTS  engine.Synthesizer
}

// Loader instantiates the engine for a resolved key. Loads may take tens of
// seconds; the cache makes sure a key is only ever loaded once at a time.
type Loader func(ctx context.Context, key ModelKey) (*LoadedModel, error)

// cacheEntry is the per-key completion guard. The loading goroutine fills
// model/err and closes ready; everyone else blocks on ready first.
type cacheEntry struct {
	ready chan struct{}
	model *LoadedModel
	err   error
}

// Cache owns the ModelKey → LoadedModel map. Loads are serialized per key:
// the first caller loads, concurrent callers for the same key wait for that
// result, and callers for unrelated keys proceed independently. A failed
// load is not remembered, so the next call retries it.
type Cache struct {
	loader Loader

	mu      sync.Mutex
	entries map[ModelKey]*cacheEntry
}

// NewCache creates a cache that loads missing models with the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[ModelKey]*cacheEntry),
	}
}

// GetOrLoad returns the cached instance for the key, loading it first if
// needed. The key is resolved before lookup.
func (c *Cache) GetOrLoad(ctx context.Context, key ModelKey) (*LoadedModel, error) {
	key = key.Resolved()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{ready: make(chan struct{})}
		c.entries[key] = e
	}
	c.mu.Unlock()

	if !ok {
		e.model, e.err = c.loader(ctx, key)
		if e.err != nil {
			// Drop the failed entry before waking waiters, so the next
			// GetOrLoad retries the load instead of seeing a poisoned key.
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		close(e.ready)
	} else {
		<-e.ready
	}

	if e.err != nil {
		return nil, e.err
	}
	return e.model, nil
}

// Loaded reports whether an instance is already cached for the key, without
// triggering a load.
func (c *Cache) Loaded(key ModelKey) bool {
	key = key.Resolved()
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Models returns a snapshot of the currently loaded instances.
func (c *Cache) Models() []*LoadedModel {
	c.mu.Lock()
	entries := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	out := make([]*LoadedModel, 0, len(entries))
	for _, e := range entries {
		select {
		case <-e.ready:
			if e.err == nil {
				out = append(out, e.model)
			}
		default:
		}
	}
	return out
}
