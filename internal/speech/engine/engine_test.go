package engine

import (
	"testing"
)

func TestAssembleConcatenatesRawText(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 1.2, Text: "Bonjour "},
		{Start: 1.2, End: 2.5, Text: "le monde"},
	}

	tr := Assemble(segs, "fr", 0.97)

	if tr.Text != "Bonjour le monde" {
		t.Errorf("Text = %q, want %q", tr.Text, "Bonjour le monde")
	}
	if tr.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", tr.WordCount)
	}
	if tr.CharCount != 16 {
		t.Errorf("CharCount = %d, want 16", tr.CharCount)
	}
	if tr.SegmentCount() != 2 {
		t.Errorf("SegmentCount = %d, want 2", tr.SegmentCount())
	}
	if tr.Language != "fr" || tr.LanguageProbability != 0.97 {
		t.Errorf("language = %q (p=%v), want fr (p=0.97)", tr.Language, tr.LanguageProbability)
	}
}

func TestAssembleDropsEmptySegments(t *testing.T) {
	segs := []Segment{
		{Text: "hello"},
		{Text: "   "},
		{Text: ""},
		{Text: " world"},
	}

	tr := Assemble(segs, "en", 1.0)

	if tr.SegmentCount() != 2 {
		t.Fatalf("SegmentCount = %d, want 2", tr.SegmentCount())
	}
	if tr.Text != "hello world" {
		t.Errorf("Text = %q, want %q", tr.Text, "hello world")
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	tr := Assemble(nil, "en", 0)

	if tr.Text != "" || tr.WordCount != 0 || tr.CharCount != 0 || tr.SegmentCount() != 0 {
		t.Errorf("empty input should produce a zeroed result, got %+v", tr)
	}
}

func TestAssembleCountsRunesNotBytes(t *testing.T) {
	tr := Assemble([]Segment{{Text: "héllo"}}, "fr", 1.0)

	if tr.CharCount != 5 {
		t.Errorf("CharCount = %d, want 5 runes", tr.CharCount)
	}
}

func TestLines(t *testing.T) {
	tr := Assemble([]Segment{
		{Text: " first line "},
		{Text: "second"},
	}, "en", 1.0)

	lines := tr.Lines()
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0] != "first line" || lines[1] != "second" {
		t.Errorf("lines = %q", lines)
	}
}

func TestResolveComputeType(t *testing.T) {
	cases := []struct {
		device, compute, want string
	}{
		{DeviceCPU, "", ComputeFloat32},
		{DeviceCUDA, "", ComputeFloat16},
		{DeviceCPU, ComputeInt8, ComputeInt8},
		{DeviceCUDA, ComputeFloat32, ComputeFloat32},
	}
	for _, c := range cases {
		if got := ResolveComputeType(c.device, c.compute); got != c.want {
			t.Errorf("ResolveComputeType(%q, %q) = %q, want %q", c.device, c.compute, got, c.want)
		}
	}
}

func TestResolveDeviceNeverReturnsAuto(t *testing.T) {
	got := ResolveDevice(DeviceAuto)
	if got != DeviceCPU && got != DeviceCUDA {
		t.Errorf("ResolveDevice(auto) = %q, want cpu or cuda", got)
	}
	if ResolveDevice(DeviceCPU) != DeviceCPU {
		t.Error("explicit cpu should stay cpu")
	}
}

func TestResolveDeviceDeterministic(t *testing.T) {
	first := ResolveDevice(DeviceAuto)
	for i := 0; i < 5; i++ {
		if got := ResolveDevice(DeviceAuto); got != first {
			t.Fatalf("ResolveDevice(auto) changed from %q to %q", first, got)
		}
	}
}
