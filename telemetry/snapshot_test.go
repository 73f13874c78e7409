package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/pthm-cable/forage/components"
)

func testFrame() Frame {
	return Frame{
		Frame: 120,
		Tick:  12,
		Bees: []BeeState{
			{ID: 0, X: 1.5, Y: -0.5, State: components.StateReturning, Load: 1},
			{ID: 1, X: -1, Y: 2, State: components.StateDancing, Load: 0.4},
		},
		Sources: []SourceState{
			{ID: 3, X: 7.25, Y: -9, Quality: 4.5},
		},
	}
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RunID:   "run-1",
		Seed:    42,
		Frame:   testFrame(),
		Lifetime: map[uint32]LifetimeStatsJSON{
			0: {Trips: 3, Delivered: 2.5},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkNectarBoom,
			Frame:       120,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "snapshot_120_nectar_boom.json"); path != want {
		t.Errorf("expected path %s, got %s", want, path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.RunID != "run-1" || loaded.Seed != 42 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if !loaded.Frame.Equal(snapshot.Frame) {
		t.Errorf("frame mismatch:\n got %+v\nwant %+v", loaded.Frame, snapshot.Frame)
	}
	if loaded.Lifetime[0].Delivered != 2.5 {
		t.Errorf("lifetime not restored: %+v", loaded.Lifetime)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkNectarBoom {
		t.Errorf("bookmark not restored: %+v", loaded.Bookmark)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	tmpDir := t.TempDir()
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion + 1, Frame: testFrame()}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version mismatch error")
	}
}

func TestFrameCloneIsDeep(t *testing.T) {
	f := testFrame()
	c := f.Clone()

	c.Bees[0].Load = 99
	c.Sources[0].Quality = 0

	if f.Bees[0].Load == 99 || f.Sources[0].Quality == 0 {
		t.Error("clone shares storage with original")
	}
	if f.Equal(c) {
		t.Error("modified clone still reports equal")
	}
	if !f.Equal(f.Clone()) {
		t.Error("fresh clone not equal")
	}
}
