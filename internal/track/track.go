package track

import (
	"math"
	"sort"
)

// CursorSample is one observed cursor position, normalised to [0,1] screen
// coordinates, at a time relative to the recording start.
type CursorSample struct {
	T float64
	X float64
	Y float64
}

// ClickEvent is one mouse press, normalised like CursorSample.
type ClickEvent struct {
	T      float64
	X      float64
	Y      float64
	Button string
}

// Pos returns the cursor position at time t by linear interpolation between
// the bracketing samples. Outside the sampled range the boundary sample is
// returned unchanged (clamped, never extrapolated). ok is false when there
// are no samples at all; callers must treat that as "do not draw".
func Pos(samples []CursorSample, t float64) (x, y float64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, false
	}
	if t <= samples[0].T {
		return samples[0].X, samples[0].Y, true
	}
	last := samples[len(samples)-1]
	if t >= last.T {
		return last.X, last.Y, true
	}

	// Smallest index with sample time >= t; the bracketing pair is (hi-1, hi).
	hi := sort.Search(len(samples), func(i int) bool { return samples[i].T >= t })
	lo := hi - 1
	a, b := samples[lo], samples[hi]

	span := b.T - a.T
	if span <= 0 {
		return b.X, b.Y, true
	}
	f := (t - a.T) / span
	return a.X + (b.X-a.X)*f, a.Y + (b.Y-a.Y)*f, true
}

// DedupeClicks removes click events that share a rounded (time, x) key with
// an earlier click. Trackers occasionally deliver the same press twice (once
// per hook); the duplicate carries no information.
func DedupeClicks(clicks []ClickEvent) []ClickEvent {
	type key struct {
		ms int
		x  int
	}
	seen := make(map[key]bool, len(clicks))
	out := clicks[:0:0]
	for _, c := range clicks {
		k := key{ms: int(math.Round(c.T * 1000)), x: int(math.Round(c.X * 1000))}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// SortByTime orders samples and clicks ascending by time. Ingestion normally
// delivers them ordered already; this guards against clock jitter in the
// tracker process.
func SortByTime(samples []CursorSample, clicks []ClickEvent) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].T < samples[j].T })
	sort.SliceStable(clicks, func(i, j int) bool { return clicks[i].T < clicks[j].T })
}
