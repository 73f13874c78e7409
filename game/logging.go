package game

import (
	"log/slog"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/telemetry"
)

// logEvents writes per-bee events at debug level.
func (g *Game) logEvents(events []telemetry.Event) {
	for _, ev := range events {
		slog.Debug("bee", "event", ev)
	}
}

// logSummary logs the end-of-run colony totals.
func (g *Game) logSummary() {
	census := g.sampleColony()

	attrs := []any{
		"run_id", g.runID,
		"frames", g.frame,
		"ticks", g.tick,
		"delivered", g.delivered,
		"live_sources", census.LiveSources,
	}
	for state, n := range census.States {
		if n > 0 {
			attrs = append(attrs, components.State(state).String(), n)
		}
	}
	slog.Info("run complete", attrs...)
}
