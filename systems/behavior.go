package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/forage/components"
)

// Decision constants. These are fixed colony parameters, not configuration.
const (
	DanceChance   = 0.8 // unloading -> dancing
	FollowChance  = 0.6 // dancing -> following
	RecruitChance = 0.7 // following -> foraging
	VisitCap      = 1.0 // max nectar taken per visit
)

// Sources is the registry view a transition needs.
type Sources interface {
	Lookup(id components.SourceID) (NectarSource, bool)
	Extract(id components.SourceID, amount float64) float64
	PickRandom(rng RNG) (components.SourceID, bool)
}

// Outcome describes the side effects of one transition.
type Outcome struct {
	From, To  components.State
	Travel    bool    // a new target was set
	Extracted float64 // nectar removed from a source
	Delivered float64 // nectar carried into the hive (returning -> unloading)
	Stale     bool    // the held source handle was gone or depleted
	Retry     bool    // scouting found no live source
}

// Changed reports whether the state changed.
func (o Outcome) Changed() bool {
	return o.From != o.To
}

// Transition advances one forager by one logical tick.
// It reads and writes the registry through src and draws from rng only at the
// documented decision points, so results depend solely on its inputs.
func Transition(f components.Forager, src Sources, rng RNG, hive r2.Box) (components.Forager, Outcome) {
	out := Outcome{From: f.State}

	travelTo := func(p r2.Vec) {
		f.Target = p
		f.HasTarget = true
		out.Travel = true
	}

	switch f.State {
	case components.StateInHive:
		f.Load = 0
		f.State = components.StateScouting

	case components.StateScouting:
		id, ok := src.PickRandom(rng)
		if !ok {
			out.Retry = true
			break
		}
		s, _ := src.Lookup(id)
		f.Source = id
		travelTo(s.Position)
		f.State = components.StateOnSource

	case components.StateOnSource:
		if !resolvesLive(src, f.Source) {
			out.Stale = f.Source != components.NoSource
			f.Source = components.NoSource
			f.Load = 0
			f.State = components.StateScouting
			break
		}
		extracted := src.Extract(f.Source, VisitCap)
		f.Load = extracted
		out.Extracted = extracted
		travelTo(RandomPoint(rng, hive))
		f.State = components.StateReturning

	case components.StateReturning:
		out.Delivered = f.Load
		travelTo(RandomPoint(rng, hive))
		f.State = components.StateUnloading

	case components.StateUnloading:
		if rng.Float64() < DanceChance {
			f.State = components.StateDancing
		} else {
			f.State = components.StateInHive
		}

	case components.StateDancing:
		if rng.Float64() < FollowChance {
			f.State = components.StateFollowing
		} else {
			f.State = components.StateInHive
		}

	case components.StateFollowing:
		if rng.Float64() < RecruitChance {
			if id, ok := src.PickRandom(rng); ok {
				s, _ := src.Lookup(id)
				f.Source = id
				travelTo(s.Position)
				f.State = components.StateForaging
				break
			}
		}
		f.State = components.StateInHive

	case components.StateForaging:
		if resolvesLive(src, f.Source) {
			f.State = components.StateOnSource
			break
		}
		out.Stale = true
		f.Load = 0
		travelTo(RandomPoint(rng, hive))
		f.State = components.StateReturning

	default:
		// Unknown states re-enter the cycle from the hive.
		f.State = components.StateInHive
	}

	out.To = f.State
	return f, out
}

// resolvesLive reports whether id names a source that still has nectar.
func resolvesLive(src Sources, id components.SourceID) bool {
	if id == components.NoSource {
		return false
	}
	s, ok := src.Lookup(id)
	return ok && s.Live()
}
