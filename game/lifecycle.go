package game

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

// spawnColony creates the configured number of bees inside the hive.
func (g *Game) spawnColony() {
	for i := 0; i < g.cfg.Colony.Agents; i++ {
		g.spawnBee(systems.RandomPoint(g.rng, g.hive))
	}
}

// spawnBee creates a bee at pos, in the hive with nothing queued.
func (g *Game) spawnBee(pos r2.Vec) ecs.Entity {
	id := uint32(len(g.bees))

	bee := components.Bee{ID: id}
	p := components.Position{Vec: pos}
	forager := components.Forager{State: components.StateInHive}
	flight := components.Flight{}

	entity := g.beeMapper.NewEntity(&bee, &p, &forager, &flight)
	g.bees = append(g.bees, entity)

	g.lifetimeTracker.Register(id, g.frame)
	return entity
}
