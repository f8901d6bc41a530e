package cursor

import (
	"sort"
	"strings"

	"github.com/ivlev/zoomcast/internal/track"
)

// SpeedProfile controls how hard the drawn cursor trails the raw track. The
// blend of the current position with a lagged tap approximates an
// exponential trailing filter without carrying unbounded state.
type SpeedProfile struct {
	Lag   float64 // seconds the trailing tap looks into the past
	Blend float64 // weight of the current position against the trailing tap
}

var (
	// Rapid disables smoothing entirely: the raw interpolated track is used.
	Rapid = SpeedProfile{Lag: 0, Blend: 1}
	// Medium is the default profile.
	Medium = SpeedProfile{Lag: 0.05, Blend: 0.55}
	// Slow produces a visibly floaty cursor for presentation-style captures.
	Slow = SpeedProfile{Lag: 0.12, Blend: 0.4}
)

// ProfileByName resolves a profile from its configuration name. Unknown
// names fall back to Medium.
func ProfileByName(name string) SpeedProfile {
	switch strings.ToLower(name) {
	case "rapid", "raw":
		return Rapid
	case "slow":
		return Slow
	default:
		return Medium
	}
}

// Smooth returns the smoothed cursor position at time t. With Lag == 0 the
// raw interpolated position comes back untouched. ok is false only when the
// track is empty.
func Smooth(samples []track.CursorSample, t float64, p SpeedProfile) (x, y float64, ok bool) {
	rawX, rawY, ok := track.Pos(samples, t)
	if !ok {
		return 0, 0, false
	}
	if p.Lag <= 0 {
		return rawX, rawY, true
	}

	priorX, priorY, _ := track.Pos(samples, t-p.Lag)
	x = rawX*p.Blend + priorX*(1-p.Blend)
	y = rawY*p.Blend + priorY*(1-p.Blend)
	return x, y, true
}

// NearClick reports whether any click happened within window seconds of t.
// Drives the pointer-to-hand glyph switch around presses.
func NearClick(clicks []track.ClickEvent, t, window float64) bool {
	if window < 0 {
		return false
	}
	i := sort.Search(len(clicks), func(i int) bool { return clicks[i].T >= t-window })
	return i < len(clicks) && clicks[i].T <= t+window
}
