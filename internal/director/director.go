package director

import (
	"fmt"

	"github.com/ivlev/zoomcast/internal/camera"
	"github.com/ivlev/zoomcast/internal/track"
)

// Director auto-generates zoom segments from recorded click events
type Director struct {
	Factor      float64 // zoom factor for generated segments
	Lead        float64 // seconds a segment starts before its click
	Duration    float64 // core duration of each generated segment
	MinGap      float64 // minimum quiet time after the previous segment's end
	Ease        float64 // ease in/out duration for generated segments
	MaxSegments int
}

// NewDirector creates a Director with default settings
func NewDirector() *Director {
	return &Director{
		Factor:      2.2,
		Lead:        0.15,
		Duration:    2.2,
		MinGap:      0.8,
		Ease:        0.35,
		MaxSegments: 16,
	}
}

// palette cycles display colors over generated segments
var palette = []string{"#7c5cff", "#00b894", "#ff7a59", "#0984e3", "#e84393"}

// GenerateSegments creates one zoom segment per click, greedily skipping
// clicks that land too soon after the previous segment's end. Segments are
// clipped to [0, duration] and capped at MaxSegments.
func (d *Director) GenerateSegments(clicks []track.ClickEvent, duration float64) ([]camera.Segment, error) {
	if len(clicks) == 0 {
		return nil, fmt.Errorf("no clicks recorded")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid recording duration %.3f", duration)
	}

	segments := []camera.Segment{}
	prevEnd := -d.MinGap

	for _, c := range clicks {
		if len(segments) >= d.MaxSegments {
			break
		}
		if c.T < 0 || c.T > duration {
			continue
		}

		start := c.T - d.Lead
		if start < prevEnd+d.MinGap {
			continue
		}

		seg := camera.Segment{
			TStart:  start,
			TEnd:    start + d.Duration,
			CX:      c.X,
			CY:      c.Y,
			Factor:  d.Factor,
			EaseIn:  d.Ease,
			EaseOut: d.Ease,
			Color:   palette[len(segments)%len(palette)],
		}
		seg.ClampTo(duration)

		segments = append(segments, seg)
		prevEnd = seg.TEnd
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no usable clicks inside the recording")
	}
	return segments, nil
}
