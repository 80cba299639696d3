package engine

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// makePCM builds 16-bit mono PCM: a sine tone for speech, zeros for silence.
func makePCM(cfg VADConfig, ms int, speech bool) []byte {
	samples := cfg.SampleRate * ms / 1000
	pcm := make([]byte, samples*2)
	if !speech {
		return pcm
	}
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(cfg.SampleRate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return pcm
}

func TestTrimSilenceRemovesLongGap(t *testing.T) {
	cfg := DefaultVADConfig(16000)

	var pcm []byte
	pcm = append(pcm, makePCM(cfg, 300, true)...)
	pcm = append(pcm, makePCM(cfg, 2000, false)...) // well past MinSilenceMs
	pcm = append(pcm, makePCM(cfg, 300, true)...)

	out := TrimSilence(pcm, cfg)

	if len(out) >= len(pcm) {
		t.Fatalf("long silence not removed: out %d bytes, in %d bytes", len(out), len(pcm))
	}
	// Both speech runs plus padding must survive.
	minKept := cfg.SampleRate * 600 / 1000 * 2
	if len(out) < minKept {
		t.Errorf("speech trimmed too aggressively: kept %d bytes, want >= %d", len(out), minKept)
	}
}

func TestTrimSilenceKeepsShortGap(t *testing.T) {
	cfg := DefaultVADConfig(16000)

	var pcm []byte
	pcm = append(pcm, makePCM(cfg, 300, true)...)
	pcm = append(pcm, makePCM(cfg, 200, false)...) // under MinSilenceMs
	pcm = append(pcm, makePCM(cfg, 300, true)...)

	out := TrimSilence(pcm, cfg)

	if len(out) != len(pcm) {
		t.Errorf("short gap should be kept: out %d bytes, in %d bytes", len(out), len(pcm))
	}
}

func TestTrimSilenceKeepsShortTrailingSilence(t *testing.T) {
	cfg := DefaultVADConfig(16000)

	var pcm []byte
	pcm = append(pcm, makePCM(cfg, 300, true)...)
	pcm = append(pcm, makePCM(cfg, 200, false)...) // under MinSilenceMs, at the end

	out := TrimSilence(pcm, cfg)

	if len(out) != len(pcm) {
		t.Errorf("short trailing silence should be kept: out %d bytes, in %d bytes", len(out), len(pcm))
	}
}

func TestTrimSilencePadsLongTrailingSilence(t *testing.T) {
	cfg := DefaultVADConfig(16000)

	speech := makePCM(cfg, 300, true)
	pcm := append(append([]byte{}, speech...), makePCM(cfg, 2000, false)...)

	out := TrimSilence(pcm, cfg)

	if len(out) >= len(pcm) {
		t.Fatalf("long trailing silence not removed: out %d bytes, in %d bytes", len(out), len(pcm))
	}
	// The speech run keeps its trailing padding.
	minKept := len(speech) + cfg.SampleRate*cfg.PaddingMs/1000*2/2
	if len(out) < minKept {
		t.Errorf("last speech run lost its trailing padding: kept %d bytes, want >= %d", len(out), minKept)
	}
}

func TestTrimSilenceAllSilentUnchanged(t *testing.T) {
	cfg := DefaultVADConfig(16000)
	pcm := makePCM(cfg, 1500, false)

	out := TrimSilence(pcm, cfg)

	if len(out) != len(pcm) {
		t.Errorf("all-silent audio should pass through unchanged, got %d of %d bytes", len(out), len(pcm))
	}
}

func TestTrimSilenceTinyInput(t *testing.T) {
	cfg := DefaultVADConfig(16000)
	pcm := []byte{0, 0, 1, 0}

	out := TrimSilence(pcm, cfg)

	if len(out) != len(pcm) {
		t.Errorf("sub-frame input should pass through, got %d of %d bytes", len(out), len(pcm))
	}
}

func TestEncodeDecodeWAV(t *testing.T) {
	cfg := DefaultVADConfig(16000)
	pcm := makePCM(cfg, 100, true)

	wavBytes := EncodeWAV(pcm, 16000)
	if len(wavBytes) != 44+len(pcm) {
		t.Fatalf("wav size = %d, want %d", len(wavBytes), 44+len(pcm))
	}
	if string(wavBytes[:4]) != "RIFF" || string(wavBytes[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}

	path := t.TempDir() + "/tone.wav"
	if err := os.WriteFile(path, wavBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	got, rate, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(got) != len(pcm) {
		t.Fatalf("pcm length = %d, want %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("pcm differs at byte %d", i)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := t.TempDir() + "/not-a.wav"
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodeWAV(path); err == nil {
		t.Error("expected error for non-WAV input")
	}
}
