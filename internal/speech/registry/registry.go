package registry

import (
	"fmt"
	"sync"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

// Factory builds a backend instance of T from a config map.
type Factory[T any] func(config map[string]string) (T, error)

// Registry holds named backend factories. Backends register themselves in
// init(); the set is closed once imports are resolved.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register adds a named factory.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates T using the named factory.
func (r *Registry[T]) Create(name string, config map[string]string) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown backend %q", name)
	}

	return factory(config)
}

// Has reports whether the named factory exists.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// STT is the global speech-to-text backend registry.
var STT = New[engine.Transcriber]()

// TTS is the global text-to-speech backend registry.
var TTS = New[engine.Synthesizer]()
