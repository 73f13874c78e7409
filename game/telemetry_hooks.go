package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/forage/telemetry"
)

// emitFrame hands the frame to the trace and the frame callback.
func (g *Game) emitFrame(frame telemetry.Frame) {
	if g.trace != nil {
		if err := g.trace.WriteFrame(frame); err != nil {
			slog.Error("failed to write trace frame", "frame", frame.Frame, "error", err)
		}
	}
	if g.frameCallback != nil {
		g.frameCallback(frame)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.frame) {
		return
	}

	stats := g.collector.Flush(g.frame, g.sampleColony())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if g.index != nil {
		if err := g.index.RecordWindow(context.Background(), g.runID, stats); err != nil {
			slog.Error("failed to index window", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "frame", g.frame)
}

// createSnapshot builds a snapshot of the most recent frame.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		RunID:    g.runID,
		Seed:     g.seed,
		Frame:    g.last.Clone(),
		Lifetime: make(map[uint32]telemetry.LifetimeStatsJSON, g.lifetimeTracker.Count()),
		Bookmark: bookmark,
	}

	for _, id := range g.lifetimeTracker.IDs() {
		snapshot.Lifetime[id] = g.lifetimeTracker.Get(id).ToJSON()
	}
	return snapshot
}
