package telemetry

import (
	"sort"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

// LifetimeStats tracks per-bee statistics over a run.
type LifetimeStats struct {
	SpawnFrame int32

	Transitions  int
	Visits       int // extractions that yielded nectar
	Trips        int // loads delivered to the hive
	Extracted    float64
	Delivered    float64
	Dances       int
	Recruited    int // times this bee followed a dance into foraging
	StaleVisits  int
	ScoutRetries int

	// Frames spent in each state, sampled at tick boundaries
	StateTicks [components.NumStates]int
}

// LifetimeTracker manages per-bee lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new bee.
func (lt *LifetimeTracker) Register(beeID uint32, spawnFrame int32) {
	lt.stats[beeID] = &LifetimeStats{SpawnFrame: spawnFrame}
}

// Get returns the lifetime stats for a bee, or nil if not found.
func (lt *LifetimeTracker) Get(beeID uint32) *LifetimeStats {
	return lt.stats[beeID]
}

// Record folds one transition outcome into the bee's totals.
func (lt *LifetimeTracker) Record(beeID uint32, out systems.Outcome) {
	s := lt.stats[beeID]
	if s == nil {
		return
	}

	s.StateTicks[out.From]++
	if out.Retry {
		s.ScoutRetries++
	}
	if out.Stale {
		s.StaleVisits++
	}
	if out.Extracted > 0 {
		s.Visits++
		s.Extracted += out.Extracted
	}
	if out.Delivered > 0 {
		s.Trips++
		s.Delivered += out.Delivered
	}

	if !out.Changed() {
		return
	}
	s.Transitions++
	switch out.To {
	case components.StateDancing:
		s.Dances++
	case components.StateForaging:
		s.Recruited++
	}
}

// IDs returns tracked bee IDs in ascending order.
func (lt *LifetimeTracker) IDs() []uint32 {
	ids := make([]uint32, 0, len(lt.stats))
	for id := range lt.stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of tracked bees.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
