package telemetry

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/forage/components"
)

func TestTraceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl.zst")
	tw, err := CreateTrace(path, TraceHeader{RunID: "abc", Seed: 9, Every: 2, Config: "colony:\n  agents: 2\n"})
	if err != nil {
		t.Fatalf("CreateTrace failed: %v", err)
	}

	var written []Frame
	for i := int32(0); i < 7; i++ {
		f := Frame{
			Frame:   i,
			Tick:    i / 3,
			Bees:    []BeeState{{ID: 0, X: 0.1 * float64(i), Y: 1.0 / 3.0, State: components.StateForaging, Load: 0.7}},
			Sources: []SourceState{{ID: 1, X: -4, Y: 2.2, Quality: 9.999}},
		}
		if err := tw.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame %d: %v", i, err)
		}
		if i%2 == 0 {
			written = append(written, f)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	defer tr.Close()

	h := tr.Header()
	if h.Version != TraceVersion || h.RunID != "abc" || h.Seed != 9 || h.Every != 2 {
		t.Errorf("unexpected header: %+v", h)
	}
	if h.Config != "colony:\n  agents: 2\n" {
		t.Errorf("config not preserved: %q", h.Config)
	}

	for i, want := range written {
		got, err := tr.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !got.Equal(want) {
			t.Errorf("frame %d differs:\n got %+v\nwant %+v", i, got, want)
		}
	}
	if _, err := tr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestOpenTraceMissing(t *testing.T) {
	if _, err := OpenTrace(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Error("expected error for missing trace")
	}
}
