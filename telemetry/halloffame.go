package telemetry

import (
	"encoding/json"
	"sort"
)

// HallEntry records one of the colony's most productive foragers.
type HallEntry struct {
	BeeID       uint32  `json:"bee_id"`
	Delivered   float64 `json:"delivered"`
	Trips       int     `json:"trips"`
	Visits      int     `json:"visits"`
	Dances      int     `json:"dances"`
	Recruited   int     `json:"recruited"`
	StaleVisits int     `json:"stale_visits"`
}

// HallOfFame keeps the top foragers of a run ranked by nectar delivered.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a new hall of fame with the given capacity.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider evaluates a bee for hall of fame entry.
// Bees that never delivered are ignored. Returns true if the bee was added.
func (hof *HallOfFame) Consider(beeID uint32, stats *LifetimeStats) bool {
	if stats == nil || stats.Trips == 0 {
		return false
	}

	entry := HallEntry{
		BeeID:       beeID,
		Delivered:   stats.Delivered,
		Trips:       stats.Trips,
		Visits:      stats.Visits,
		Dances:      stats.Dances,
		Recruited:   stats.Recruited,
		StaleVisits: stats.StaleVisits,
	}

	// Sorted descending by delivery; ties keep earlier entries first
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Delivered < entry.Delivered
	})
	if idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// ConsiderAll offers every tracked bee to the hall in ascending ID order.
func (hof *HallOfFame) ConsiderAll(lt *LifetimeTracker) {
	for _, id := range lt.IDs() {
		hof.Consider(id, lt.Get(id))
	}
}

// Entries returns the ranked entries.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopDelivered returns the best delivery total, or 0 if the hall is empty.
func (hof *HallOfFame) TopDelivered() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Delivered
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Foragers []HallEntry `json:"foragers"`
	}{hof.entries}, "", "  ")
}
