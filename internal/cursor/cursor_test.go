package cursor

import (
	"math"
	"testing"

	"github.com/ivlev/zoomcast/internal/track"
)

const eps = 1e-9

func TestSmoothRapidReturnsRawTrack(t *testing.T) {
	samples := []track.CursorSample{
		{T: 0, X: 0, Y: 0},
		{T: 1, X: 1, Y: 1},
	}

	for _, tt := range []float64{0, 0.25, 0.5, 0.9, 1} {
		sx, sy, ok := Smooth(samples, tt, Rapid)
		if !ok {
			t.Fatalf("Smooth(%v) not ok", tt)
		}
		rx, ry, _ := track.Pos(samples, tt)
		if sx != rx || sy != ry {
			t.Errorf("t=%v: smoothed (%v, %v) deviates from raw (%v, %v)", tt, sx, sy, rx, ry)
		}
	}
}

func TestSmoothBlendsLaggedPosition(t *testing.T) {
	samples := []track.CursorSample{
		{T: 0, X: 0, Y: 0},
		{T: 1, X: 1, Y: 0},
	}
	p := SpeedProfile{Lag: 0.2, Blend: 0.5}

	// raw(0.5) = 0.5, raw(0.3) = 0.3, blend 0.5 -> 0.4
	x, y, ok := Smooth(samples, 0.5, p)
	if !ok {
		t.Fatal("Smooth not ok")
	}
	if math.Abs(x-0.4) > eps {
		t.Errorf("x = %v, want 0.4", x)
	}
	if math.Abs(y) > eps {
		t.Errorf("y = %v, want 0", y)
	}
}

func TestSmoothLagClampsAtTrackStart(t *testing.T) {
	samples := []track.CursorSample{
		{T: 0, X: 0.2, Y: 0.8},
		{T: 1, X: 0.6, Y: 0.8},
	}
	// t - Lag lands before the first sample, which clamps to it.
	x, y, ok := Smooth(samples, 0.05, Slow)
	if !ok {
		t.Fatal("Smooth not ok")
	}
	rawX, _, _ := track.Pos(samples, 0.05)
	want := rawX*Slow.Blend + 0.2*(1-Slow.Blend)
	if math.Abs(x-want) > eps {
		t.Errorf("x = %v, want %v", x, want)
	}
	if math.Abs(y-0.8) > eps {
		t.Errorf("y = %v, want 0.8", y)
	}
}

func TestSmoothEmptyTrack(t *testing.T) {
	if _, _, ok := Smooth(nil, 0.5, Medium); ok {
		t.Error("Smooth on empty track reported ok")
	}
}

func TestSmoothTrailsBehindRawDuringMotion(t *testing.T) {
	samples := []track.CursorSample{
		{T: 0, X: 0, Y: 0},
		{T: 2, X: 1, Y: 0},
	}
	// During steady rightward motion the smoothed x must sit behind raw x.
	for _, tt := range []float64{0.5, 1.0, 1.5} {
		sx, _, _ := Smooth(samples, tt, Slow)
		rx, _, _ := track.Pos(samples, tt)
		if sx >= rx {
			t.Errorf("t=%v: smoothed x %v not behind raw x %v", tt, sx, rx)
		}
	}
}

func TestNearClick(t *testing.T) {
	clicks := []track.ClickEvent{
		{T: 1.0, X: 0.5, Y: 0.5, Button: "left"},
		{T: 3.0, X: 0.2, Y: 0.9, Button: "left"},
	}

	tests := []struct {
		name   string
		t      float64
		window float64
		want   bool
	}{
		{"inside window", 1.1, 0.2, true},
		{"exactly at edge", 1.2, 0.2, true},
		{"just outside", 1.25, 0.2, false},
		{"before first click", 0.7, 0.2, false},
		{"between clicks", 2.0, 0.2, false},
		{"near second click", 2.9, 0.15, true},
		{"negative window", 1.0, -1, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NearClick(clicks, tc.t, tc.window); got != tc.want {
				t.Errorf("NearClick(%v, %v) = %v, want %v", tc.t, tc.window, got, tc.want)
			}
		})
	}
}

func TestProfileByName(t *testing.T) {
	tests := []struct {
		name string
		want SpeedProfile
	}{
		{"rapid", Rapid},
		{"raw", Rapid},
		{"medium", Medium},
		{"slow", Slow},
		{"SLOW", Slow},
		{"", Medium},
		{"bogus", Medium},
	}
	for _, tc := range tests {
		if got := ProfileByName(tc.name); got != tc.want {
			t.Errorf("ProfileByName(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
