package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSpeedRecord BookmarkType = "speed_record"
	BookmarkAirborne    BookmarkType = "airborne"
	BookmarkWorldReset  BookmarkType = "world_reset"
	BookmarkFleetAtRest BookmarkType = "fleet_at_rest"
)

// Bookmark thresholds.
const (
	recordMinSpeed     = 5.0  // m/s before a record counts
	recordFactor       = 1.2  // must beat the history best by this factor
	airborneContact    = 0.5  // wheel contact fraction that counts as airborne
	groundedContact    = 0.9  // rolling contact average that counts as grounded
	restSpeed          = 0.05 // p90 speed under which the fleet is at rest
	restWindowsTrigger = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Tick        int32
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments across stats windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	restWindowsCount int // consecutive windows with the fleet at rest
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.Resets > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkWorldReset,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("World rebuilt %d time(s)", stats.Resets),
		})
		// Windows before a rebuild say nothing about the new world.
		bd.clearHistory()
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkSpeedRecord(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkAirborne(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkFleetAtRest(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) clearHistory() {
	bd.historyIdx = 0
	bd.historyFull = false
	bd.restWindowsCount = 0
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSpeedRecord(stats WindowStats) *Bookmark {
	var best float64
	for _, h := range bd.getHistory() {
		if h.ActiveSpeedMax > best {
			best = h.ActiveSpeedMax
		}
	}
	if stats.ActiveSpeedMax < recordMinSpeed || stats.ActiveSpeedMax <= best*recordFactor {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSpeedRecord,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%s reached %.1f m/s (previous best %.1f)", stats.ActiveArchetype, stats.ActiveSpeedMax, best),
	}
}

func (bd *BookmarkDetector) checkAirborne(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	var total float64
	for _, h := range history {
		total += h.WheelContact
	}
	avg := total / float64(len(history))

	if stats.WheelContact >= airborneContact || avg < groundedContact {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkAirborne,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Wheel contact fell to %.0f%% (average %.0f%%)", stats.WheelContact*100, avg*100),
	}
}

func (bd *BookmarkDetector) checkFleetAtRest(stats WindowStats) *Bookmark {
	if stats.SpeedP90 < restSpeed {
		bd.restWindowsCount++
	} else {
		bd.restWindowsCount = 0
	}

	if bd.restWindowsCount == restWindowsTrigger { // trigger exactly once per streak
		return &Bookmark{
			Type:        BookmarkFleetAtRest,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Every vehicle at rest for %d windows", restWindowsTrigger),
		}
	}
	return nil
}
