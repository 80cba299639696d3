package registry

import (
	"errors"
	"testing"
)

func TestRegistryCreate(t *testing.T) {
	r := New[string]()

	r.Register("echo", func(config map[string]string) (string, error) {
		return config["value"], nil
	})

	if !r.Has("echo") {
		t.Error("Has(echo) = false after Register")
	}
	if r.Has("missing") {
		t.Error("Has(missing) = true")
	}

	got, err := r.Create("echo", map[string]string{"value": "hi"})
	if err != nil || got != "hi" {
		t.Errorf("Create = %q, %v", got, err)
	}

	if _, err := r.Create("missing", nil); err == nil {
		t.Error("Create with unknown backend should fail")
	}
}

func TestRegistryFactoryErrorPropagates(t *testing.T) {
	r := New[int]()
	boom := errors.New("bad config")
	r.Register("failing", func(map[string]string) (int, error) { return 0, boom })

	if _, err := r.Create("failing", nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the factory's error", err)
	}
}
