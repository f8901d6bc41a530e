package track

import (
	"math"
	"strings"
	"testing"
)

func TestPosInterpolatesLinearly(t *testing.T) {
	samples := []CursorSample{
		{T: 0, X: 0, Y: 0},
		{T: 1, X: 1, Y: 1},
	}

	tests := []struct {
		time  float64
		wantX float64
		wantY float64
	}{
		{0.0, 0.0, 0.0},
		{0.25, 0.25, 0.25},
		{0.5, 0.5, 0.5},
		{1.0, 1.0, 1.0},
		{-1.0, 0.0, 0.0}, // clamped to first sample
		{5.0, 1.0, 1.0},  // clamped to last sample
	}

	for _, tt := range tests {
		x, y, ok := Pos(samples, tt.time)
		if !ok {
			t.Fatalf("Pos(%v) returned no data", tt.time)
		}
		if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
			t.Errorf("Pos(%v) = (%v, %v), want (%v, %v)", tt.time, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestPosExactAtSampleTimes(t *testing.T) {
	samples := []CursorSample{
		{T: 0.0, X: 0.1, Y: 0.9},
		{T: 0.5, X: 0.4, Y: 0.6},
		{T: 2.0, X: 0.8, Y: 0.2},
	}
	for _, s := range samples {
		x, y, ok := Pos(samples, s.T)
		if !ok || math.Abs(x-s.X) > 1e-9 || math.Abs(y-s.Y) > 1e-9 {
			t.Errorf("Pos(%v) = (%v, %v, %v), want exact sample (%v, %v)", s.T, x, y, ok, s.X, s.Y)
		}
	}
}

func TestPosSingleSample(t *testing.T) {
	samples := []CursorSample{{T: 3.0, X: 0.3, Y: 0.7}}
	for _, q := range []float64{0, 3, 100} {
		x, y, ok := Pos(samples, q)
		if !ok || x != 0.3 || y != 0.7 {
			t.Errorf("Pos(%v) = (%v, %v, %v), want the only sample", q, x, y, ok)
		}
	}
}

func TestPosEmpty(t *testing.T) {
	if _, _, ok := Pos(nil, 1.0); ok {
		t.Error("Pos on empty samples should report no data")
	}
}

func TestDedupeClicks(t *testing.T) {
	clicks := []ClickEvent{
		{T: 1.0, X: 0.5, Y: 0.5, Button: "left"},
		{T: 1.0, X: 0.5, Y: 0.5, Button: "left"}, // exact duplicate
		{T: 1.0004, X: 0.5, Y: 0.5, Button: "left"}, // same rounded ms
		{T: 1.2, X: 0.5, Y: 0.5, Button: "left"},
		{T: 1.2, X: 0.9, Y: 0.5, Button: "left"}, // same time, different x
	}

	out := DedupeClicks(clicks)
	if len(out) != 3 {
		t.Fatalf("expected 3 clicks after dedupe, got %d: %+v", len(out), out)
	}
	if out[0].T != 1.0 || out[1].T != 1.2 || out[2].X != 0.9 {
		t.Errorf("unexpected clicks kept: %+v", out)
	}
}

func TestReadEventsSkipsMalformed(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"move","x":960,"y":540,"time":100.0}`,
		`not json at all`,
		`{"type":"move","x":1920,"y":1080,"time":100.5}`,
		`{"type":"click","x":960,"y":540,"button":"left","time":100.2}`,
		`{"type":"wheel","x":1,"y":1,"time":100.3}`,
		`{"type":"click","x":10,"y":10,"time":99.0}`,
	}, "\n")

	rec, err := ReadEvents(strings.NewReader(input), 100.0, 1920, 1080)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}

	if len(rec.Samples) != 2 {
		t.Errorf("expected 2 samples, got %d", len(rec.Samples))
	}
	if len(rec.Clicks) != 1 {
		t.Errorf("expected 1 click, got %d", len(rec.Clicks))
	}
	// One junk line, one unknown type, one pre-epoch click.
	if rec.Skipped != 3 {
		t.Errorf("expected 3 skipped lines, got %d", rec.Skipped)
	}

	if math.Abs(rec.Samples[0].X-0.5) > 1e-9 || math.Abs(rec.Samples[0].Y-0.5) > 1e-9 {
		t.Errorf("position not normalised: %+v", rec.Samples[0])
	}
	if rec.Samples[1].X != 1.0 || rec.Samples[1].Y != 1.0 {
		t.Errorf("corner position should clamp to 1: %+v", rec.Samples[1])
	}
	if rec.Clicks[0].Button != "left" {
		t.Errorf("expected left button, got %q", rec.Clicks[0].Button)
	}
}

func TestReadEventsOrdersByTime(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"move","x":0,"y":0,"time":12.0}`,
		`{"type":"move","x":100,"y":100,"time":11.0}`,
		`{"type":"move","x":200,"y":200,"time":11.5}`,
	}, "\n")

	rec, err := ReadEvents(strings.NewReader(input), 10.0, 1000, 1000)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	for i := 1; i < len(rec.Samples); i++ {
		if rec.Samples[i].T < rec.Samples[i-1].T {
			t.Fatalf("samples not sorted: %+v", rec.Samples)
		}
	}
}
