package telemetry

import (
	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

// Census is the colony state sampled at the end of a window.
type Census struct {
	States      [components.NumStates]int
	Loads       []float64 // nectar load per bee
	Qualities   []float64 // quality per source
	LiveSources int
}

// Collector accumulates events within windows of frames and produces WindowStats.
type Collector struct {
	windowFrames int32

	// Current window tracking
	windowStartFrame int32

	// Event counters for current window
	agentTicks   int
	visits       int
	trips        int
	dances       int
	recruits     int
	staleVisits  int
	scoutRetries int
	extracted    float64
	delivered    float64
	depleted     int
	spawned      int
}

// NewCollector creates a new stats collector.
// windowFrames: frames per window; 0 disables flushing.
func NewCollector(windowFrames int) *Collector {
	return &Collector{
		windowFrames: int32(windowFrames),
	}
}

// RecordOutcome records one forager transition.
func (c *Collector) RecordOutcome(out systems.Outcome) {
	c.agentTicks++

	if out.Retry {
		c.scoutRetries++
	}
	if out.Stale {
		c.staleVisits++
	}
	if out.Extracted > 0 {
		c.visits++
		c.extracted += out.Extracted
	}
	if out.Delivered > 0 {
		c.trips++
		c.delivered += out.Delivered
	}

	if !out.Changed() {
		return
	}
	switch out.To {
	case components.StateDancing:
		c.dances++
	case components.StateForaging:
		c.recruits++
	}
}

// RecordMaintenance records a sweep/replenish pass.
func (c *Collector) RecordMaintenance(depleted, spawned int) {
	c.depleted += depleted
	c.spawned += spawned
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame int32) bool {
	if c.windowFrames <= 0 {
		return false
	}
	return frame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(frame int32, census Census) WindowStats {
	var retryRate float64
	if c.agentTicks > 0 {
		retryRate = float64(c.scoutRetries) / float64(c.agentTicks)
	}

	loadMean, loadP50, loadP90 := ComputeLoadStats(census.Loads)
	qTotal, qMean, qStd := ComputeQualityStats(census.Qualities)

	s := census.States
	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,

		InHive:    s[components.StateInHive],
		Scouting:  s[components.StateScouting],
		OnSource:  s[components.StateOnSource],
		Returning: s[components.StateReturning],
		Unloading: s[components.StateUnloading],
		Dancing:   s[components.StateDancing],
		Following: s[components.StateFollowing],
		Foraging:  s[components.StateForaging],

		AgentTicks:   c.agentTicks,
		Visits:       c.visits,
		Trips:        c.trips,
		Dances:       c.dances,
		Recruits:     c.recruits,
		StaleVisits:  c.staleVisits,
		ScoutRetries: c.scoutRetries,
		RetryRate:    retryRate,
		Extracted:    c.extracted,
		Delivered:    c.delivered,

		LoadMean: loadMean,
		LoadP50:  loadP50,
		LoadP90:  loadP90,

		LiveSources:     census.LiveSources,
		SourcesDepleted: c.depleted,
		SourcesSpawned:  c.spawned,
		QualityTotal:    qTotal,
		QualityMean:     qMean,
		QualityStd:      qStd,
	}

	// Reset for next window
	*c = Collector{
		windowFrames:     c.windowFrames,
		windowStartFrame: frame,
	}

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int32 {
	return c.windowFrames
}
