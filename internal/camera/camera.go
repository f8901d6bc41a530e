package camera

import "strings"

// State represents the virtual camera for one output frame
type State struct {
	Factor float64 // Zoom factor (1.0 = full frame)
	CX     float64 // Normalized center X [0,1]
	CY     float64 // Normalized center Y [0,1]
}

// Default returns the camera with no zoom applied
func Default() State {
	return State{Factor: 1.0, CX: 0.5, CY: 0.5}
}

// Segment is a timed zoom interval targeting a center point and factor.
// Segments may overlap in time; the resolver arbitrates per frame.
type Segment struct {
	TStart  float64 `yaml:"start"`
	TEnd    float64 `yaml:"end"`
	CX      float64 `yaml:"cx"`
	CY      float64 `yaml:"cy"`
	Factor  float64 `yaml:"factor"`
	EaseIn  float64 `yaml:"ease_in"`
	EaseOut float64 `yaml:"ease_out"`
	Color   string  `yaml:"color,omitempty"`
}

// MinSegmentDuration is the shortest segment the mutation boundary accepts
const MinSegmentDuration = 0.1

// DirectScaleThreshold is the factor at or below which the camera is
// treated as not zoomed and the frame maps by direct scaling
const DirectScaleThreshold = 1.005

// Duration returns the core interval length
func (s Segment) Duration() float64 {
	return s.TEnd - s.TStart
}

// Extended returns the eased interval [TStart-easeIn, TEnd+easeOut] under
// the given pan profile
func (s Segment) Extended(profile PanProfile) (start, end float64) {
	return s.TStart - s.EaseIn*profile.EaseScale, s.TEnd + s.EaseOut*profile.EaseScale
}

// ClampTo confines the segment to [0, duration], keeping a usable length
func (s *Segment) ClampTo(duration float64) {
	if s.TStart < 0 {
		s.TStart = 0
	}
	if s.TEnd > duration {
		s.TEnd = duration
	}
	if s.TEnd-s.TStart < MinSegmentDuration {
		s.TEnd = s.TStart + MinSegmentDuration
		if s.TEnd > duration {
			s.TEnd = duration
			s.TStart = s.TEnd - MinSegmentDuration
			if s.TStart < 0 {
				s.TStart = 0
			}
		}
	}
}

// PanProfile scales how briskly the camera travels: it multiplies the
// per-segment ease durations and supplies the follow-mode lerp coefficient
type PanProfile struct {
	Name       string
	EaseScale  float64 // multiplier on segment ease in/out durations
	FollowLerp float64 // per-frame fraction the follow camera closes toward its target
}

var (
	PanSlow   = PanProfile{Name: "slow", EaseScale: 1.5, FollowLerp: 0.10}
	PanMedium = PanProfile{Name: "medium", EaseScale: 1.0, FollowLerp: 0.18}
	PanFast   = PanProfile{Name: "fast", EaseScale: 0.65, FollowLerp: 0.32}
)

// PanProfileByName resolves a profile from its configuration name.
// Unknown names fall back to PanMedium.
func PanProfileByName(name string) PanProfile {
	switch strings.ToLower(name) {
	case "slow":
		return PanSlow
	case "fast", "rapid":
		return PanFast
	default:
		return PanMedium
	}
}

// Resolve computes the camera at time t from the segment list. Every
// segment whose eased interval contains t contributes a local factor;
// the largest local factor wins and its center is used. Ties keep the
// first segment found. With no active segment the default camera is
// returned.
func Resolve(t float64, segments []Segment, profile PanProfile) State {
	best := Default()
	bestLocal := 0.0
	for _, seg := range segments {
		start, end := seg.Extended(profile)
		if t < start || t > end {
			continue
		}
		local := localFactor(t, seg, profile)
		if local > bestLocal {
			bestLocal = local
			best = State{Factor: local, CX: seg.CX, CY: seg.CY}
		}
	}
	return best
}

// Active reports whether any segment's eased interval covers t. The
// smoother uses this to keep scripted zooms in charge for the whole ramp,
// not just the plateau.
func Active(t float64, segments []Segment, profile PanProfile) bool {
	for _, seg := range segments {
		start, end := seg.Extended(profile)
		if t >= start && t <= end {
			return true
		}
	}
	return false
}

// localFactor evaluates one segment's eased factor at time t. The caller
// has already checked that t lies within the eased interval.
func localFactor(t float64, seg Segment, profile PanProfile) float64 {
	easeIn := seg.EaseIn * profile.EaseScale
	easeOut := seg.EaseOut * profile.EaseScale

	switch {
	case t < seg.TStart:
		if easeIn <= 0 {
			return seg.Factor
		}
		p := clamp01((t - (seg.TStart - easeIn)) / easeIn)
		return 1.0 + (seg.Factor-1.0)*easeInOutCubic(p)
	case t > seg.TEnd:
		if easeOut <= 0 {
			return seg.Factor
		}
		p := clamp01((t - seg.TEnd) / easeOut)
		return seg.Factor - (seg.Factor-1.0)*easeInOutCubic(p)
	default:
		return seg.Factor
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

// clamp01 clamps v into [0,1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
