package timeline

import (
	"math"
	"testing"
)

func checkPartition(t *testing.T, tl *Timeline) {
	t.Helper()
	if err := tl.Validate(); err != nil {
		t.Fatalf("partition invariant broken: %v", err)
	}
	sum := 0.0
	for _, c := range tl.Clips() {
		sum += c.Duration()
	}
	if math.Abs(sum-tl.Duration()) > 1e-6 {
		t.Fatalf("clip lengths sum to %.6f, want %.6f", sum, tl.Duration())
	}
}

func TestNewTimelineSingleClip(t *testing.T) {
	tl, err := New(10.0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	clips := tl.Clips()
	if len(clips) != 1 {
		t.Fatalf("Expected 1 clip, got %d", len(clips))
	}
	if clips[0].Start != 0 || clips[0].End != 10.0 || clips[0].Deleted {
		t.Errorf("Initial clip = %+v, want active [0, 10]", clips[0])
	}
	checkPartition(t, tl)
}

func TestNewTimelineRejectsBadDuration(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("Expected error for zero duration")
	}
	if _, err := New(-5); err == nil {
		t.Error("Expected error for negative duration")
	}
}

func TestSplitInsertsBoundary(t *testing.T) {
	tl, _ := New(10.0)
	if err := tl.Split(4.0); err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	clips := tl.Clips()
	if len(clips) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(clips))
	}
	if clips[0].End != 4.0 || clips[1].Start != 4.0 || clips[1].End != 10.0 {
		t.Errorf("Clips after split = %+v", clips)
	}
	checkPartition(t, tl)
}

func TestSplitKeepsOrderAcrossMultipleSplits(t *testing.T) {
	tl, _ := New(10.0)
	for _, at := range []float64{7.0, 2.0, 4.5, 8.6} {
		if err := tl.Split(at); err != nil {
			t.Fatalf("Split(%v) failed: %v", at, err)
		}
		checkPartition(t, tl)
	}
	clips := tl.Clips()
	if len(clips) != 5 {
		t.Fatalf("Expected 5 clips, got %d", len(clips))
	}
	for i := 1; i < len(clips); i++ {
		if clips[i].Start < clips[i-1].Start {
			t.Errorf("Clips out of order at %d: %+v", i, clips)
		}
	}
}

func TestSplitRejectsEdgeSlivers(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(5.0)

	for _, at := range []float64{0.0, 0.02, 4.99, 5.0, 5.04, 9.99, 10.0, -1, 11} {
		if err := tl.Split(at); err == nil {
			t.Errorf("Split(%v) should have been rejected", at)
		}
	}
	if len(tl.Clips()) != 2 {
		t.Errorf("Rejected splits mutated the clip list: %+v", tl.Clips())
	}
}

func TestSplitInheritsDeletedFlag(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(5.0)
	tl.Delete(0)

	if err := tl.Split(2.0); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	clips := tl.Clips()
	if !clips[0].Deleted || !clips[1].Deleted {
		t.Errorf("Both halves of a deleted clip must stay deleted: %+v", clips)
	}
	if clips[2].Deleted {
		t.Errorf("Unrelated clip gained the deleted flag: %+v", clips[2])
	}
	checkPartition(t, tl)
}

func TestMoveBoundaryTrimsBothNeighbors(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(5.0)

	if err := tl.MoveBoundary(0, 6.5); err != nil {
		t.Fatalf("MoveBoundary failed: %v", err)
	}
	clips := tl.Clips()
	if clips[0].End != 6.5 || clips[1].Start != 6.5 {
		t.Errorf("Boundary not shared after trim: %+v", clips)
	}
	checkPartition(t, tl)
}

func TestMoveBoundaryClampsToMinDuration(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(5.0)

	// Dragging far left clamps so the left clip keeps MinClipDuration.
	tl.MoveBoundary(0, 0.01)
	clips := tl.Clips()
	if math.Abs(clips[0].Duration()-MinClipDuration) > 1e-9 {
		t.Errorf("Left clip duration = %.3f, want clamp at %.3f", clips[0].Duration(), MinClipDuration)
	}

	// Dragging far right clamps against the right clip's end.
	tl.MoveBoundary(0, 99)
	clips = tl.Clips()
	if math.Abs(clips[1].Duration()-MinClipDuration) > 1e-9 {
		t.Errorf("Right clip duration = %.3f, want clamp at %.3f", clips[1].Duration(), MinClipDuration)
	}
	checkPartition(t, tl)
}

func TestMoveBoundaryOuterEdgesImmovable(t *testing.T) {
	tl, _ := New(10.0)
	if err := tl.MoveBoundary(0, 5.0); err == nil {
		t.Error("Single clip has no movable boundary")
	}
	tl.Split(5.0)
	if err := tl.MoveBoundary(-1, 1.0); err == nil {
		t.Error("Boundary -1 must not exist")
	}
	if err := tl.MoveBoundary(1, 9.0); err == nil {
		t.Error("Boundary past the last clip must not exist")
	}
}

func TestDeleteIsTombstone(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(3.0)
	tl.Split(6.0)

	if err := tl.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	clips := tl.Clips()
	if len(clips) != 3 {
		t.Fatalf("Delete changed the clip count: %d", len(clips))
	}
	if !clips[1].Deleted {
		t.Error("Clip 1 not marked deleted")
	}
	if clips[0].Deleted || clips[2].Deleted {
		t.Error("Neighboring clips must stay active")
	}
	checkPartition(t, tl)

	if err := tl.Delete(7); err == nil {
		t.Error("Expected error for out-of-range index")
	}
}

func TestCutsDeriveFromDeletedClips(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(2.0)
	tl.Split(6.0)

	if cuts := tl.Cuts(); len(cuts) != 0 {
		t.Fatalf("Fresh timeline has cuts: %+v", cuts)
	}

	tl.Delete(0)
	tl.Delete(2)
	cuts := tl.Cuts()
	if len(cuts) != 2 {
		t.Fatalf("Expected 2 cuts, got %d", len(cuts))
	}
	if cuts[0] != (CutInterval{TStart: 0, TEnd: 2.0}) || cuts[1] != (CutInterval{TStart: 6.0, TEnd: 10.0}) {
		t.Errorf("Cuts = %+v", cuts)
	}

	// A later trim is reflected immediately in the derived cuts.
	tl.MoveBoundary(1, 5.0)
	cuts = tl.Cuts()
	if cuts[1].TStart != 5.0 {
		t.Errorf("Cuts stale after trim: %+v", cuts)
	}
}

func TestAdjacentCutsStaySeparate(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(4.0)
	tl.Split(6.0)
	tl.Delete(1)
	tl.Delete(2)

	cuts := tl.Cuts()
	if len(cuts) != 2 {
		t.Fatalf("Adjacent deleted clips must keep separate cuts, got %+v", cuts)
	}
	if cuts[0].TEnd != cuts[1].TStart {
		t.Errorf("Adjacent cuts should share a boundary: %+v", cuts)
	}
}

func TestInAnyIsHalfOpen(t *testing.T) {
	cuts := []CutInterval{{TStart: 2.0, TEnd: 2.5}}

	tests := []struct {
		t    float64
		want bool
	}{
		{1.99, false},
		{2.0, true},
		{2.25, true},
		{2.4999, true},
		{2.5, false},
		{3.0, false},
	}
	for _, tc := range tests {
		if got := InAny(cuts, tc.t); got != tc.want {
			t.Errorf("InAny(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestSnapshotRestoreUndoesDelete(t *testing.T) {
	tl, _ := New(10.0)
	tl.Split(5.0)

	snap := tl.Snapshot()
	tl.Delete(0)
	if len(tl.Cuts()) != 1 {
		t.Fatal("Delete did not register")
	}

	if err := tl.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}
	if len(tl.Cuts()) != 0 {
		t.Error("Restore did not clear the tombstone")
	}
	checkPartition(t, tl)
}

func TestRestoreSnapshotRejectsBrokenPartition(t *testing.T) {
	tl, _ := New(10.0)
	bad := []Clip{{Start: 0, End: 4}, {Start: 5, End: 10}}
	if err := tl.RestoreSnapshot(bad); err == nil {
		t.Error("Expected error for non-contiguous snapshot")
	}
	bad = []Clip{{Start: 0, End: 8}}
	if err := tl.RestoreSnapshot(bad); err == nil {
		t.Error("Expected error for snapshot not covering the duration")
	}
}

func TestLoadValidates(t *testing.T) {
	clips := []Clip{{Start: 0, End: 3, Deleted: true}, {Start: 3, End: 10}}
	tl, err := Load(10.0, clips)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tl.Cuts()) != 1 {
		t.Error("Loaded tombstone lost")
	}

	if _, err := Load(10.0, nil); err == nil {
		t.Error("Expected error for empty clip list")
	}
	if _, err := Load(10.0, []Clip{{Start: 1, End: 10}}); err == nil {
		t.Error("Expected error for partition not starting at 0")
	}
}

func TestSeekClampsPlayhead(t *testing.T) {
	tl, _ := New(10.0)
	tl.Seek(-2)
	if tl.Playhead() != 0 {
		t.Errorf("Playhead = %v, want 0", tl.Playhead())
	}
	tl.Seek(42)
	if tl.Playhead() != 10 {
		t.Errorf("Playhead = %v, want 10", tl.Playhead())
	}
	tl.Seek(3.5)
	if tl.Playhead() != 3.5 {
		t.Errorf("Playhead = %v, want 3.5", tl.Playhead())
	}
	if len(tl.Clips()) != 1 {
		t.Error("Seek mutated clips")
	}
}

func TestEditSequenceHoldsInvariant(t *testing.T) {
	tl, _ := New(30.0)

	ops := []func() error{
		func() error { return tl.Split(10.0) },
		func() error { return tl.Split(20.0) },
		func() error { return tl.MoveBoundary(0, 8.0) },
		func() error { return tl.Delete(1) },
		func() error { return tl.Split(4.0) },
		func() error { return tl.MoveBoundary(2, 18.5) },
		func() error { return tl.Split(25.0) },
		func() error { return tl.Delete(4) },
		func() error { return tl.MoveBoundary(3, 21.0) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		checkPartition(t, tl)
	}

	// Every cut still matches a deleted clip exactly.
	cuts := tl.Cuts()
	deleted := 0
	for _, c := range tl.Clips() {
		if c.Deleted {
			if cuts[deleted].TStart != c.Start || cuts[deleted].TEnd != c.End {
				t.Errorf("Cut %d = %+v does not match clip %+v", deleted, cuts[deleted], c)
			}
			deleted++
		}
	}
	if deleted != len(cuts) {
		t.Errorf("Cut count %d does not match deleted clip count %d", len(cuts), deleted)
	}
}
