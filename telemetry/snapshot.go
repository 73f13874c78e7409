package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is a bookmarked frame together with what is needed to rerun it.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`

	Frame Frame `json:"frame"`

	// Per-bee totals at the time of the snapshot, keyed by bee ID
	Lifetime map[uint32]LifetimeStatsJSON `json:"lifetime,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	SpawnFrame   int32   `json:"spawn_frame"`
	Transitions  int     `json:"transitions"`
	Visits       int     `json:"visits"`
	Trips        int     `json:"trips"`
	Extracted    float64 `json:"extracted"`
	Delivered    float64 `json:"delivered"`
	Dances       int     `json:"dances"`
	Recruited    int     `json:"recruited"`
	StaleVisits  int     `json:"stale_visits"`
	ScoutRetries int     `json:"scout_retries"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() LifetimeStatsJSON {
	if ls == nil {
		return LifetimeStatsJSON{}
	}
	return LifetimeStatsJSON{
		SpawnFrame:   ls.SpawnFrame,
		Transitions:  ls.Transitions,
		Visits:       ls.Visits,
		Trips:        ls.Trips,
		Extracted:    ls.Extracted,
		Delivered:    ls.Delivered,
		Dances:       ls.Dances,
		Recruited:    ls.Recruited,
		StaleVisits:  ls.StaleVisits,
		ScoutRetries: ls.ScoutRetries,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Frame.Frame)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Frame.Frame, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
