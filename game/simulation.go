package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/forage/systems"
	"github.com/pthm-cable/forage/telemetry"
)

// Step executes one frame:
//  1. on tick frames (frame mod T == 0) every bee transitions, ascending ID
//  2. every bee advances one queued waypoint
//  3. depleted sources are swept, then the registry is replenished
//  4. the frame is emitted
func (g *Game) Step() telemetry.Frame {
	tick := g.frame%int32(g.cfg.Schedule.TickInterval) == 0
	g.perfCollector.StartStep(tick)

	if tick {
		g.perfCollector.StartPhase(telemetry.PhaseTransitions)
		g.transitionAll()
		g.tick++
	}

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.moveAll()

	g.perfCollector.StartPhase(telemetry.PhaseMaintenance)
	g.maintainSources()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	frame := g.Snapshot()
	if g.snapshotDir != "" {
		// Callers own the emitted frame
		g.last = frame.Clone()
	}
	g.emitFrame(frame)
	g.frame++
	g.flushTelemetry()

	g.perfCollector.EndStep()
	return frame
}

// transitionAll advances every bee's state machine by one logical tick.
func (g *Game) transitionAll() {
	steps := g.cfg.Schedule.InterpSteps
	debug := slog.Default().Enabled(context.Background(), slog.LevelDebug)

	for _, e := range g.bees {
		bee, pos, forager, flight := g.beeMapper.Get(e)

		held := forager.Source
		next, out := systems.Transition(*forager, g.registry, g.rng, g.hive)
		if out.Travel {
			// Travel starts from where the bee is now, even mid-flight
			flight.Push(systems.Interpolate(pos.Vec, next.Target, steps)...)
		}
		*forager = next

		g.delivered += out.Delivered
		g.collector.RecordOutcome(out)
		g.lifetimeTracker.Record(bee.ID, out)
		if debug {
			g.logEvents(telemetry.EventsFor(g.frame, bee.ID, held, out))
		}
	}
}

// moveAll pops at most one waypoint per bee.
func (g *Game) moveAll() {
	for _, e := range g.bees {
		_, pos, _, flight := g.beeMapper.Get(e)
		if p, ok := flight.Pop(); ok {
			pos.Vec = p
		}
	}
}

// maintainSources removes depleted sources and tops the registry back up.
func (g *Game) maintainSources() {
	removed := g.registry.SweepDepleted()
	spawned := g.registry.Replenish(g.rng)
	g.collector.RecordMaintenance(removed, spawned)
}
