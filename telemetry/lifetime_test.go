package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

func TestLifetimeTrackerRecord(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(7, 0)

	lt.Record(7, systems.Outcome{From: components.StateOnSource, To: components.StateReturning, Extracted: 0.5})
	lt.Record(7, systems.Outcome{From: components.StateReturning, To: components.StateUnloading, Delivered: 0.5})
	lt.Record(7, systems.Outcome{From: components.StateUnloading, To: components.StateDancing})
	lt.Record(7, systems.Outcome{From: components.StateScouting, To: components.StateScouting, Retry: true})
	lt.Record(99, systems.Outcome{Delivered: 5}) // unregistered, ignored

	s := lt.Get(7)
	if s.Visits != 1 || s.Trips != 1 || s.Dances != 1 || s.ScoutRetries != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Transitions != 3 {
		t.Errorf("expected 3 transitions, got %d", s.Transitions)
	}
	if s.Delivered != 0.5 || s.Extracted != 0.5 {
		t.Errorf("unexpected nectar totals: %+v", s)
	}
	if s.StateTicks[components.StateScouting] != 1 || s.StateTicks[components.StateOnSource] != 1 {
		t.Errorf("unexpected state ticks: %v", s.StateTicks)
	}
	if lt.Get(99) != nil {
		t.Error("unregistered bee should not be tracked")
	}
}

func TestHallOfFameRanking(t *testing.T) {
	lt := NewLifetimeTracker()
	delivered := map[uint32]float64{0: 2, 1: 5, 2: 0, 3: 5, 4: 1, 5: 3}
	for id := uint32(0); id < 6; id++ {
		lt.Register(id, 0)
		if d := delivered[id]; d > 0 {
			lt.Record(id, systems.Outcome{Delivered: d})
		}
	}

	hof := NewHallOfFame(3)
	hof.ConsiderAll(lt)

	entries := hof.Entries()
	wantIDs := []uint32{1, 3, 5}
	if len(entries) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(entries))
	}
	for i, id := range wantIDs {
		if entries[i].BeeID != id {
			t.Errorf("rank %d: expected bee %d, got %d", i, id, entries[i].BeeID)
		}
	}
	if hof.TopDelivered() != 5 {
		t.Errorf("expected top delivery 5, got %v", hof.TopDelivered())
	}
}

func TestHallOfFameSkipsIdleBees(t *testing.T) {
	hof := NewHallOfFame(5)
	if hof.Consider(1, &LifetimeStats{}) {
		t.Error("bee without deliveries admitted")
	}
	if hof.Consider(2, nil) {
		t.Error("nil stats admitted")
	}
	if hof.Size() != 0 {
		t.Errorf("expected empty hall, got %d", hof.Size())
	}
}

func TestHallOfFameJSON(t *testing.T) {
	hof := NewHallOfFame(2)
	hof.Consider(4, &LifetimeStats{Trips: 2, Delivered: 1.5})

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	var decoded struct {
		Foragers []HallEntry `json:"foragers"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Foragers) != 1 || decoded.Foragers[0].BeeID != 4 || decoded.Foragers[0].Delivered != 1.5 {
		t.Errorf("unexpected JSON content: %s", data)
	}
}
