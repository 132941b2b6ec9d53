package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord          BookmarkType = "new_record"
	BookmarkForageBreakthrough BookmarkType = "forage_breakthrough"
	BookmarkFirstHomecoming    BookmarkType = "first_homecoming"
	BookmarkForageCollapse     BookmarkType = "forage_collapse"
	BookmarkExtinction         BookmarkType = "extinction"
)

// Bookmark marks a generation worth looking at again.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector watches generation summaries for notable changes.
type BookmarkDetector struct {
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	bestFitness  float64
	nectarPeak   int
	seenHomecome bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyses the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.Extinct {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkExtinction,
			Generation:  stats.Generation,
			Description: "no bee earned fitness, population reseeded",
		})
		// the lineage is gone, so are its records
		bd.bestFitness = 0
		bd.nectarPeak = 0
	}

	if b := bd.checkNewRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkForageBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkForageCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if !bd.seenHomecome && stats.Asleep > 0 {
		bd.seenHomecome = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFirstHomecoming,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("%d bees made it back to bed", stats.Asleep),
		})
	}

	bd.addToHistory(stats)
	if stats.NectarTotal > bd.nectarPeak {
		bd.nectarPeak = stats.NectarTotal
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewRecord(stats GenerationStats) *Bookmark {
	if stats.FitnessBest <= bd.bestFitness {
		return nil
	}
	prev := bd.bestFitness
	bd.bestFitness = stats.FitnessBest
	if prev == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("best fitness %.0f beats previous %.0f", stats.FitnessBest, prev),
	}
}

func (bd *BookmarkDetector) checkForageBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.NectarTotal
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.NectarTotal) > avg*2 && stats.NectarTotal >= 5 {
		return &Bookmark{
			Type:        BookmarkForageBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("nectar %d is %.1fx the recent average (%.1f)", stats.NectarTotal, float64(stats.NectarTotal)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkForageCollapse(stats GenerationStats) *Bookmark {
	if bd.nectarPeak < 10 || stats.Extinct {
		return nil
	}
	drop := 1 - float64(stats.NectarTotal)/float64(bd.nectarPeak)
	if drop <= 0.5 {
		return nil
	}
	peak := bd.nectarPeak
	bd.nectarPeak = stats.NectarTotal
	return &Bookmark{
		Type:        BookmarkForageCollapse,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("nectar fell %.0f%% from peak %d to %d", drop*100, peak, stats.NectarTotal),
	}
}
