package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/telemetry"
)

// Result summarizes a replay.
type Result struct {
	RunID      string
	Seed       int64
	Compared   int   // recorded frames checked
	LastFrame  int32 // last frame simulated
	Divergence *Divergence
}

// Divergence is the first recorded frame the replay did not reproduce.
type Divergence struct {
	Frame  int32
	Detail string
}

// Verify rebuilds the run described by the trace header and steps it in
// lockstep with the recorded frames.
func Verify(path string) (Result, error) {
	tr, err := telemetry.OpenTrace(path)
	if err != nil {
		return Result{}, err
	}
	defer tr.Close()

	h := tr.Header()
	res := Result{RunID: h.RunID, Seed: h.Seed, LastFrame: -1}

	cfg, err := config.Parse([]byte(h.Config))
	if err != nil {
		return res, fmt.Errorf("trace config: %w", err)
	}
	g, err := game.New(game.Options{Seed: h.Seed, Config: cfg})
	if err != nil {
		return res, err
	}
	defer g.Close()

	for {
		want, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		if want.Frame < g.Frame() {
			return res, fmt.Errorf("trace frame %d out of order after %d", want.Frame, res.LastFrame)
		}

		var got telemetry.Frame
		for g.Frame() <= want.Frame {
			got = g.Step()
		}
		res.LastFrame = got.Frame
		res.Compared++

		if !got.Equal(want) {
			res.Divergence = &Divergence{Frame: want.Frame, Detail: describe(want, got)}
			return res, nil
		}
	}
}

// describe names the first difference between two frames.
func describe(want, got telemetry.Frame) string {
	if want.Tick != got.Tick {
		return fmt.Sprintf("tick %d, replay %d", want.Tick, got.Tick)
	}
	if len(want.Bees) != len(got.Bees) {
		return fmt.Sprintf("%d bees, replay %d", len(want.Bees), len(got.Bees))
	}
	for i := range want.Bees {
		if want.Bees[i] != got.Bees[i] {
			return fmt.Sprintf("bee %d: %+v, replay %+v", want.Bees[i].ID, want.Bees[i], got.Bees[i])
		}
	}
	if len(want.Sources) != len(got.Sources) {
		return fmt.Sprintf("%d sources, replay %d", len(want.Sources), len(got.Sources))
	}
	for i := range want.Sources {
		if want.Sources[i] != got.Sources[i] {
			return fmt.Sprintf("source %d: %+v, replay %+v", want.Sources[i].ID, want.Sources[i], got.Sources[i])
		}
	}
	return "frames differ"
}
