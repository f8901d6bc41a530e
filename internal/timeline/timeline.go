package timeline

import (
	"fmt"
	"math"
	"sort"
)

// Clip is one contiguous span of the recording. Deletion tombstones the
// clip in place, so surviving clips keep their indices and timeline
// positions stable across edits.
type Clip struct {
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Deleted bool    `yaml:"deleted,omitempty"`
}

// Duration returns the clip length in seconds
func (c Clip) Duration() float64 {
	return c.End - c.Start
}

// CutInterval is a time range excluded from export. Cuts are derived from
// deleted clips and never edited directly.
type CutInterval struct {
	TStart float64
	TEnd   float64
}

const (
	// MinClipDuration is the shortest clip a trim may leave behind
	MinClipDuration = 0.2

	// SplitMargin keeps split points away from existing clip edges so
	// degenerate slivers cannot be created
	SplitMargin = 0.05

	// partitionTol is the float tolerance for the partition invariant
	partitionTol = 1e-6
)

// Timeline maintains the clip partition of the recording and the playhead.
// The clip list always exactly partitions [0, duration]: sorted by start,
// contiguous, first clip starting at 0 and last clip ending at duration.
type Timeline struct {
	duration float64
	playhead float64
	clips    []Clip
}

// New creates a timeline with one active clip covering the whole recording
func New(duration float64) (*Timeline, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("invalid timeline duration %.3f", duration)
	}
	return &Timeline{
		duration: duration,
		clips:    []Clip{{Start: 0, End: duration}},
	}, nil
}

// Load restores a timeline from a persisted clip list
func Load(duration float64, clips []Clip) (*Timeline, error) {
	if err := validateClips(duration, clips); err != nil {
		return nil, fmt.Errorf("invalid clip list: %w", err)
	}
	tl := &Timeline{duration: duration}
	tl.clips = append(tl.clips, clips...)
	return tl, nil
}

// Duration returns the full recording duration, cuts included
func (tl *Timeline) Duration() float64 {
	return tl.duration
}

// Playhead returns the current playhead position
func (tl *Timeline) Playhead() float64 {
	return tl.playhead
}

// Seek moves the playhead, clamped to the recording. Clips are untouched.
func (tl *Timeline) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if t > tl.duration {
		t = tl.duration
	}
	tl.playhead = t
}

// Clips returns a copy of the clip list in timeline order
func (tl *Timeline) Clips() []Clip {
	out := make([]Clip, len(tl.clips))
	copy(out, tl.clips)
	return out
}

// Split inserts a clip boundary at t. The clip containing t is shrunk to
// [start, t] and a new clip [t, end] inheriting its deleted flag is
// inserted after it. Split points within SplitMargin of an existing edge
// are rejected.
func (tl *Timeline) Split(t float64) error {
	i := tl.clipAt(t)
	if i < 0 {
		return fmt.Errorf("split time %.3f outside the recording", t)
	}
	c := tl.clips[i]
	if t-c.Start < SplitMargin || c.End-t < SplitMargin {
		return fmt.Errorf("split time %.3f too close to a clip edge", t)
	}

	right := Clip{Start: t, End: c.End, Deleted: c.Deleted}
	tl.clips[i].End = t
	tl.clips = append(tl.clips, Clip{})
	copy(tl.clips[i+2:], tl.clips[i+1:])
	tl.clips[i+1] = right
	return nil
}

// MoveBoundary drags the shared edge between clips i and i+1 to time t,
// clamped so both clips keep at least MinClipDuration. The outer edges of
// the partition (time 0 and the full duration) are not movable.
func (tl *Timeline) MoveBoundary(i int, t float64) error {
	if i < 0 || i >= len(tl.clips)-1 {
		return fmt.Errorf("no movable boundary at index %d", i)
	}
	left := &tl.clips[i]
	right := &tl.clips[i+1]

	lo := left.Start + MinClipDuration
	hi := right.End - MinClipDuration
	if lo > hi {
		return fmt.Errorf("clips around boundary %d too short to trim", i)
	}
	if t < lo {
		t = lo
	}
	if t > hi {
		t = hi
	}
	left.End = t
	right.Start = t
	return nil
}

// Delete tombstones clip i. The clip stays in the list so indices and
// neighboring boundaries are unaffected; it only stops being exported.
func (tl *Timeline) Delete(i int) error {
	if i < 0 || i >= len(tl.clips) {
		return fmt.Errorf("no clip at index %d", i)
	}
	tl.clips[i].Deleted = true
	return nil
}

// Cuts derives the export exclusion list: the exact spans of every deleted
// clip, in clip order. Adjacent cuts are deliberately not merged so each
// keeps its own boundary markers.
func (tl *Timeline) Cuts() []CutInterval {
	cuts := []CutInterval{}
	for _, c := range tl.clips {
		if c.Deleted {
			cuts = append(cuts, CutInterval{TStart: c.Start, TEnd: c.End})
		}
	}
	return cuts
}

// Snapshot captures the clip list for undo support
func (tl *Timeline) Snapshot() []Clip {
	return tl.Clips()
}

// RestoreSnapshot replaces the clip list with a previously captured
// snapshot. This is the only way a deleted clip comes back.
func (tl *Timeline) RestoreSnapshot(clips []Clip) error {
	if err := validateClips(tl.duration, clips); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	tl.clips = tl.clips[:0]
	tl.clips = append(tl.clips, clips...)
	return nil
}

// Validate checks the partition invariant over the current clip list
func (tl *Timeline) Validate() error {
	return validateClips(tl.duration, tl.clips)
}

// InAny reports whether t falls inside any cut. The check is half-open so
// a frame exactly at a cut's end is kept.
func InAny(cuts []CutInterval, t float64) bool {
	for _, c := range cuts {
		if t >= c.TStart && t < c.TEnd {
			return true
		}
	}
	return false
}

// clipAt returns the index of the clip containing t, or -1 when t is
// outside the recording. t equal to the full duration maps to the last clip.
func (tl *Timeline) clipAt(t float64) int {
	if t < 0 || t > tl.duration {
		return -1
	}
	i := sort.Search(len(tl.clips), func(i int) bool { return tl.clips[i].End > t })
	if i == len(tl.clips) {
		i = len(tl.clips) - 1
	}
	return i
}

func validateClips(duration float64, clips []Clip) error {
	if duration <= 0 {
		return fmt.Errorf("invalid duration %.3f", duration)
	}
	if len(clips) == 0 {
		return fmt.Errorf("empty clip list")
	}
	if math.Abs(clips[0].Start) > partitionTol {
		return fmt.Errorf("first clip starts at %.6f, not 0", clips[0].Start)
	}
	for i, c := range clips {
		if c.End-c.Start <= 0 {
			return fmt.Errorf("clip %d has non-positive duration", i)
		}
		if i > 0 && math.Abs(c.Start-clips[i-1].End) > partitionTol {
			return fmt.Errorf("clips %d and %d are not contiguous", i-1, i)
		}
	}
	if math.Abs(clips[len(clips)-1].End-duration) > partitionTol {
		return fmt.Errorf("last clip ends at %.6f, not %.6f", clips[len(clips)-1].End, duration)
	}
	return nil
}
