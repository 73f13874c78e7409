package telemetry

import (
	"testing"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

func TestCollectorCountsOutcomes(t *testing.T) {
	c := NewCollector(100)

	outcomes := []systems.Outcome{
		{From: components.StateInHive, To: components.StateScouting},
		{From: components.StateScouting, To: components.StateScouting, Retry: true},
		{From: components.StateScouting, To: components.StateOnSource, Travel: true},
		{From: components.StateOnSource, To: components.StateReturning, Extracted: 1, Travel: true},
		{From: components.StateReturning, To: components.StateUnloading, Delivered: 1, Travel: true},
		{From: components.StateUnloading, To: components.StateDancing},
		{From: components.StateFollowing, To: components.StateForaging, Travel: true},
		{From: components.StateOnSource, To: components.StateScouting, Stale: true},
		{From: components.StateReturning, To: components.StateUnloading}, // empty return
	}
	for _, out := range outcomes {
		c.RecordOutcome(out)
	}
	c.RecordMaintenance(2, 3)

	var census Census
	census.States[components.StateScouting] = 2
	census.States[components.StateDancing] = 1
	census.Loads = []float64{0, 0, 1}
	census.Qualities = []float64{2, 4}
	census.LiveSources = 2

	s := c.Flush(100, census)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"agent ticks", float64(s.AgentTicks), 9},
		{"retries", float64(s.ScoutRetries), 1},
		{"visits", float64(s.Visits), 1},
		{"trips", float64(s.Trips), 1},
		{"dances", float64(s.Dances), 1},
		{"recruits", float64(s.Recruits), 1},
		{"stale", float64(s.StaleVisits), 1},
		{"extracted", s.Extracted, 1},
		{"delivered", s.Delivered, 1},
		{"depleted", float64(s.SourcesDepleted), 2},
		{"spawned", float64(s.SourcesSpawned), 3},
		{"scouting census", float64(s.Scouting), 2},
		{"dancing census", float64(s.Dancing), 1},
		{"live sources", float64(s.LiveSources), 2},
		{"quality total", s.QualityTotal, 6},
		{"quality mean", s.QualityMean, 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if want := 1.0 / 9.0; s.RetryRate != want {
		t.Errorf("retry rate = %v, want %v", s.RetryRate, want)
	}
}

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(50)

	if c.ShouldFlush(49) {
		t.Error("flush before window end")
	}
	if !c.ShouldFlush(50) {
		t.Error("expected flush at window end")
	}

	c.RecordOutcome(systems.Outcome{Retry: true})
	first := c.Flush(50, Census{})
	if first.WindowStartFrame != 0 || first.WindowEndFrame != 50 || first.AgentTicks != 1 {
		t.Errorf("unexpected first window: %+v", first)
	}

	if c.ShouldFlush(99) || !c.ShouldFlush(100) {
		t.Error("second window boundary misplaced")
	}
	second := c.Flush(100, Census{})
	if second.WindowStartFrame != 50 || second.AgentTicks != 0 {
		t.Errorf("counters not reset: %+v", second)
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(0)
	if c.ShouldFlush(1_000_000) {
		t.Error("disabled collector should never flush")
	}
}
