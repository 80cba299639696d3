// Package voices loads the TTS voice manifest. The manifest declares, per
// on-disk voice model, which languages and speakers it supports, so the
// synthesis adapter knows when to honor and when to ignore request options.
package voices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice describes one installed TTS voice model.
type Voice struct {
	Name       string   `yaml:"name"`
	ModelPath  string   `yaml:"model_path"`
	SampleRate int      `yaml:"sample_rate"`
	Languages  []string `yaml:"languages"`
	Speakers   []string `yaml:"speakers"`
	Default    bool     `yaml:"default"`
}

// Multilingual reports whether the voice can speak more than one language.
func (v Voice) Multilingual() bool { return len(v.Languages) > 1 }

// MultiSpeaker reports whether the voice carries more than one speaker.
func (v Voice) MultiSpeaker() bool { return len(v.Speakers) > 1 }

// SupportsLanguage reports whether the voice can speak the given language.
func (v Voice) SupportsLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range v.Languages {
		if strings.ToLower(l) == lang {
			return true
		}
	}
	return false
}

// Manifest is the set of declared voices, keyed by name.
type Manifest struct {
	voices  map[string]Voice
	names   []string
	defName string
}

type manifestFile struct {
	Voices []Voice `yaml:"voices"`
}

// Empty returns a manifest with no voices, for transcription-only setups.
func Empty() *Manifest {
	return &Manifest{voices: make(map[string]Voice)}
}

// Load reads the voice manifest. A missing file yields an empty manifest:
// the server can run transcription-only.
func Load(path string) (*Manifest, error) {
	m := &Manifest{voices: make(map[string]Voice)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read voice manifest %q: %w", path, err)
	}

	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse voice manifest %q: %w", path, err)
	}

	root := filepath.Dir(path)
	for _, v := range f.Voices {
		if v.Name == "" {
			return nil, fmt.Errorf("voice manifest %q: voice with no name", path)
		}
		if v.SampleRate == 0 {
			v.SampleRate = 22050
		}
		if v.ModelPath == "" {
			v.ModelPath = filepath.Join(root, v.Name+".onnx")
		} else if !filepath.IsAbs(v.ModelPath) {
			v.ModelPath = filepath.Join(root, v.ModelPath)
		}
		m.voices[v.Name] = v
		m.names = append(m.names, v.Name)
		if v.Default && m.defName == "" {
			m.defName = v.Name
		}
	}
	if m.defName == "" && len(f.Voices) > 0 {
		m.defName = f.Voices[0].Name
	}
	return m, nil
}

// Get returns a declared voice by name.
func (m *Manifest) Get(name string) (Voice, bool) {
	v, ok := m.voices[name]
	return v, ok
}

// Default returns the manifest's default voice name, empty when the
// manifest is empty.
func (m *Manifest) Default() string { return m.defName }

// Names returns voice names in manifest order.
func (m *Manifest) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// ForLanguage returns the first voice that speaks the given language,
// falling back to the default voice.
func (m *Manifest) ForLanguage(lang string) (Voice, bool) {
	if lang != "" {
		for _, name := range m.names {
			if m.voices[name].SupportsLanguage(lang) {
				return m.voices[name], true
			}
		}
	}
	if m.defName == "" {
		return Voice{}, false
	}
	return m.voices[m.defName], true
}
