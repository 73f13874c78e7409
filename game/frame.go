package game

import (
	"github.com/pthm-cable/forage/telemetry"
)

// Snapshot builds the externally visible state of the colony.
// Bees are listed by ascending ID and sources in creation order.
// The returned frame owns all of its memory.
func (g *Game) Snapshot() telemetry.Frame {
	tick := g.frame / int32(g.cfg.Schedule.TickInterval)
	frame := telemetry.Frame{
		Frame: g.frame,
		Tick:  tick,
		Bees:  make([]telemetry.BeeState, 0, len(g.bees)),
	}

	for _, e := range g.bees {
		bee, pos, forager, _ := g.beeMapper.Get(e)
		frame.Bees = append(frame.Bees, telemetry.BeeState{
			ID:    bee.ID,
			X:     pos.X,
			Y:     pos.Y,
			State: forager.State,
			Load:  forager.Load,
		})
	}

	sources := g.registry.Sources()
	frame.Sources = make([]telemetry.SourceState, 0, len(sources))
	for _, s := range sources {
		if !s.Live() {
			continue
		}
		frame.Sources = append(frame.Sources, telemetry.SourceState{
			ID:      s.ID,
			X:       s.Position.X,
			Y:       s.Position.Y,
			Quality: s.Quality,
		})
	}

	return frame
}

// sampleColony collects the state census used at window boundaries.
func (g *Game) sampleColony() telemetry.Census {
	census := telemetry.Census{
		Loads:       make([]float64, 0, len(g.bees)),
		Qualities:   g.registry.Qualities(nil),
		LiveSources: g.registry.LiveCount(),
	}

	query := g.beeFilter.Query()
	for query.Next() {
		_, _, forager, _ := query.Get()
		census.States[forager.State]++
		census.Loads = append(census.Loads, forager.Load)
	}
	return census
}
