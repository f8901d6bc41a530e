package timeline

import (
	"math"

	"github.com/ivlev/zoomcast/internal/camera"
)

// HitKind identifies what a pointer press on the timeline canvas landed on
type HitKind int

const (
	HitNone HitKind = iota // empty timeline: treat as a seek
	HitSegmentBody
	HitSegmentLeft
	HitSegmentRight
)

// HitTest resolves a press at time t against the zoom segment lane.
// handleSlop widens the resize handles beyond their visual width and is
// expressed in seconds (the caller converts its pixel slop using the
// current timeline scale). Handles win over segment bodies so a narrow
// segment stays resizable next to a wide neighbor.
func HitTest(segments []camera.Segment, t, handleSlop float64) (HitKind, int) {
	for i, seg := range segments {
		if math.Abs(t-seg.TStart) <= handleSlop {
			return HitSegmentLeft, i
		}
		if math.Abs(t-seg.TEnd) <= handleSlop {
			return HitSegmentRight, i
		}
	}
	for i, seg := range segments {
		if t >= seg.TStart && t <= seg.TEnd {
			return HitSegmentBody, i
		}
	}
	return HitNone, -1
}

// MoveSegment shifts both segment edges together so the segment starts at
// newStart, bounded to [0, duration]
func MoveSegment(seg *camera.Segment, newStart, duration float64) {
	d := seg.Duration()
	if d > duration {
		d = duration
	}
	if newStart < 0 {
		newStart = 0
	}
	if newStart+d > duration {
		newStart = duration - d
	}
	seg.TStart = newStart
	seg.TEnd = newStart + d
}

// ResizeSegmentLeft drags the segment's start edge to t, bounded by the
// recording start and the minimum segment duration
func ResizeSegmentLeft(seg *camera.Segment, t float64) {
	hi := seg.TEnd - camera.MinSegmentDuration
	if t < 0 {
		t = 0
	}
	if t > hi {
		t = hi
	}
	seg.TStart = t
}

// ResizeSegmentRight drags the segment's end edge to t, bounded by the
// recording end and the minimum segment duration
func ResizeSegmentRight(seg *camera.Segment, t, duration float64) {
	lo := seg.TStart + camera.MinSegmentDuration
	if t < lo {
		t = lo
	}
	if t > duration {
		t = duration
	}
	seg.TEnd = t
}

// Snap pulls a dragged edge time onto nearby alignment targets. Priority
// order: the playhead, any other segment's edges, then the nearest 0.5s
// grid line. exclude names the segment being dragged so it cannot snap to
// itself; pass -1 when dragging something else. Times farther than
// threshold from every target come back unchanged.
func Snap(t, playhead float64, segments []camera.Segment, exclude int, threshold float64) float64 {
	if threshold <= 0 {
		return t
	}
	if math.Abs(t-playhead) <= threshold {
		return playhead
	}

	best := t
	bestDist := threshold + 1
	for i, seg := range segments {
		if i == exclude {
			continue
		}
		for _, edge := range [2]float64{seg.TStart, seg.TEnd} {
			if d := math.Abs(t - edge); d <= threshold && d < bestDist {
				best = edge
				bestDist = d
			}
		}
	}
	if bestDist <= threshold {
		return best
	}

	grid := math.Round(t*2) / 2
	if math.Abs(t-grid) <= threshold {
		return grid
	}
	return t
}
