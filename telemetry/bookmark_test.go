package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_SpeedRecord(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 60), ActiveSpeedMax: 8, WheelContact: 1, SpeedP90: 8})
	}

	// 9 m/s is not enough over a best of 8
	if hasBookmark(bd.Check(WindowStats{WindowEndTick: 300, ActiveSpeedMax: 9, WheelContact: 1, SpeedP90: 9}), BookmarkSpeedRecord) {
		t.Error("unexpected speed_record for a small improvement")
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 360, ActiveArchetype: "kart", ActiveSpeedMax: 15, WheelContact: 1, SpeedP90: 15})
	if !hasBookmark(bookmarks, BookmarkSpeedRecord) {
		t.Error("expected speed_record bookmark")
	}
}

func TestBookmarkDetector_SpeedRecordNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	if hasBookmark(bd.Check(WindowStats{ActiveSpeedMax: 20, WheelContact: 1}), BookmarkSpeedRecord) {
		t.Error("speed_record triggered on the first window")
	}
}

func TestBookmarkDetector_Airborne(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 60), WheelContact: 1, SpeedP90: 3})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 300, WheelContact: 0.2, SpeedP90: 3})
	if !hasBookmark(bookmarks, BookmarkAirborne) {
		t.Error("expected airborne bookmark")
	}

	// Mostly airborne history is not a departure from the ground.
	bd2 := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd2.Check(WindowStats{WheelContact: 0.3, SpeedP90: 3})
	}
	if hasBookmark(bd2.Check(WindowStats{WheelContact: 0.2, SpeedP90: 3}), BookmarkAirborne) {
		t.Error("unexpected airborne bookmark after airborne history")
	}
}

func TestBookmarkDetector_WorldReset(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{ActiveSpeedMax: 30, WheelContact: 1, SpeedP90: 30})
	}

	bookmarks := bd.Check(WindowStats{Resets: 1, ActiveSpeedMax: 6, WheelContact: 1, SpeedP90: 6})
	if !hasBookmark(bookmarks, BookmarkWorldReset) {
		t.Error("expected world_reset bookmark")
	}
	// History was cleared, so the next window has only the reset window to beat.
	if !hasBookmark(bd.Check(WindowStats{ActiveSpeedMax: 10, WheelContact: 1, SpeedP90: 10}), BookmarkSpeedRecord) {
		t.Error("expected speed_record against post-reset history")
	}
}

func TestBookmarkDetector_FleetAtRest(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 10; i++ {
		if hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(i * 60), WheelContact: 1}), BookmarkFleetAtRest) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("fleet_at_rest triggered %d times, want exactly 1", triggered)
	}

	// Moving breaks the streak; a new streak triggers again.
	bd.Check(WindowStats{SpeedP90: 2, WheelContact: 1})
	triggered = 0
	for i := 0; i < restWindowsTrigger; i++ {
		if hasBookmark(bd.Check(WindowStats{WheelContact: 1}), BookmarkFleetAtRest) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("second streak triggered %d times, want 1", triggered)
	}
}
