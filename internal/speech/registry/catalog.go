package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

// Catalog is the startup snapshot of on-disk models: STT model directories
// under the STT root, TTS voice files under the TTS root. The snapshot is
// taken once at construction; a model added later is invisible until the
// process restarts. That is deliberate, not an oversight.
type Catalog struct {
	stt        map[string]string // alias -> absolute model directory
	tts        map[string]string // voice name -> absolute model file
	defaultSTT string
}

// Discover scans the model roots and verifies the default STT model exists.
func Discover(sttRoot, defaultModelPath, ttsRoot string) (*Catalog, error) {
	c := &Catalog{
		stt: make(map[string]string),
		tts: make(map[string]string),
	}

	if entries, err := os.ReadDir(sttRoot); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path, err := filepath.Abs(filepath.Join(sttRoot, entry.Name()))
			if err != nil {
				continue
			}
			c.stt[entry.Name()] = path
		}
	}

	defaultPath, err := filepath.Abs(defaultModelPath)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(defaultPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("default model %q not found on disk; download it before starting", defaultModelPath)
	}

	for alias, path := range c.stt {
		if path == defaultPath {
			c.defaultSTT = alias
			break
		}
	}
	if c.defaultSTT == "" {
		alias := filepath.Base(defaultPath)
		if alias == "" || alias == "." {
			alias = "default"
		}
		c.defaultSTT = alias
		c.stt[alias] = defaultPath
	}

	if entries, err := os.ReadDir(ttsRoot); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".onnx") {
				continue
			}
			path, err := filepath.Abs(filepath.Join(ttsRoot, name))
			if err != nil {
				continue
			}
			c.tts[strings.TrimSuffix(name, ".onnx")] = path
		}
	}

	return c, nil
}

// ListAvailable returns the identifiers known for a kind, sorted. This is
// the startup snapshot, not a live filesystem view.
func (c *Catalog) ListAvailable(kind engine.Kind) []string {
	var m map[string]string
	if kind == engine.TextToSpeech {
		m = c.tts
	} else {
		m = c.stt
	}
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultSTT returns the default STT model alias and its directory.
func (c *Catalog) DefaultSTT() (alias, path string) {
	return c.defaultSTT, c.stt[c.defaultSTT]
}

// STTPath returns the directory for a known STT alias.
func (c *Catalog) STTPath(alias string) (string, bool) {
	path, ok := c.stt[alias]
	return path, ok
}

// ResolveSTT maps a model selector (empty, alias, or path) to a known
// alias and directory. Unknown selectors are client errors carrying the
// available aliases.
func (c *Catalog) ResolveSTT(selection string) (alias, path string, err error) {
	if selection == "" {
		alias, path = c.DefaultSTT()
		return alias, path, nil
	}
	if path, ok := c.stt[selection]; ok {
		return selection, path, nil
	}
	if candidate, err := filepath.Abs(selection); err == nil {
		for alias, path := range c.stt {
			if path == candidate {
				return alias, path, nil
			}
		}
	}
	return "", "", engine.Validationf("unknown model %q; available models: %s",
		selection, strings.Join(c.ListAvailable(engine.SpeechToText), ", "))
}
