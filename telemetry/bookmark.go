package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/forage/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNectarBoom       BookmarkType = "nectar_boom"
	BookmarkRecruitmentSurge BookmarkType = "recruitment_surge"
	BookmarkScarcity         BookmarkType = "scarcity"
	BookmarkStableColony     BookmarkType = "stable_colony"
)

// stableSpan is how many past windows the stable colony check looks at.
const stableSpan = 4

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Frame       int32        `csv:"frame" json:"frame"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the colony.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	scarce             bool // currently inside a scarcity episode
	stableWindowsCount int  // consecutive windows with steady deliveries
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < stableSpan+1 {
		historySize = stableSpan + 1
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	checks := []func(WindowStats) *Bookmark{
		bd.checkNectarBoom,
		bd.checkRecruitmentSurge,
		bd.checkScarcity,
		bd.checkStableColony,
	}
	for _, check := range checks {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns past windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkNectarBoom(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Extracted
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	c := bd.cfg.NectarBoom
	if stats.Extracted > avg*c.Multiplier && stats.Extracted >= c.MinExtracted {
		return &Bookmark{
			Type:        BookmarkNectarBoom,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Extracted %.2f is %.1fx average (%.2f)", stats.Extracted, stats.Extracted/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRecruitmentSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Recruits
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	c := bd.cfg.RecruitmentSurge
	if float64(stats.Recruits) > avg*c.Multiplier && stats.Recruits >= c.MinRecruits {
		return &Bookmark{
			Type:        BookmarkRecruitmentSurge,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("%d recruits is %.1fx average (%.2f)", stats.Recruits, float64(stats.Recruits)/avg, avg),
		}
	}
	return nil
}

// checkScarcity fires once on entering a window where most ticks are empty
// scouting retries, and re-arms when the rate falls back.
func (bd *BookmarkDetector) checkScarcity(stats WindowStats) *Bookmark {
	if stats.AgentTicks == 0 {
		return nil
	}
	if stats.RetryRate <= bd.cfg.Scarcity.RetryFraction {
		bd.scarce = false
		return nil
	}
	if bd.scarce {
		return nil
	}
	bd.scarce = true
	return &Bookmark{
		Type:        BookmarkScarcity,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("%.0f%% of ticks were empty scouting retries", stats.RetryRate*100),
	}
}

func (bd *BookmarkDetector) checkStableColony(stats WindowStats) *Bookmark {
	c := bd.cfg.StableColony
	if stats.Delivered < c.MinDelivered {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < stableSpan {
		return nil
	}

	delivered := make([]float64, stableSpan)
	for i, h := range history[len(history)-stableSpan:] {
		delivered[i] = h.Delivered
	}
	mean, std := stat.PopMeanStdDev(delivered, nil)

	if mean > 0 && std/mean < c.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	// Trigger exactly once per stable run
	if bd.stableWindowsCount == c.StableWindows {
		return &Bookmark{
			Type:        BookmarkStableColony,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Steady deliveries around %.2f per window over %d+ windows", mean, c.StableWindows),
		}
	}
	return nil
}
