// Package main re-runs a recorded frame trace from its header and reports the
// first frame where the simulation no longer matches the recording.
package main

import (
	"flag"
	"log/slog"
	"os"
)

func main() {
	tracePath := flag.String("trace", "", "Path to a frames.jsonl.zst trace (required)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *tracePath == "" {
		slog.Error("--trace is required")
		os.Exit(2)
	}

	res, err := Verify(*tracePath)
	if err != nil {
		slog.Error("replay failed", "trace", *tracePath, "error", err)
		os.Exit(1)
	}

	if res.Divergence != nil {
		slog.Error("trace diverged",
			"run_id", res.RunID,
			"frame", res.Divergence.Frame,
			"detail", res.Divergence.Detail,
			"compared", res.Compared,
		)
		os.Exit(1)
	}
	slog.Info("trace reproduced",
		"run_id", res.RunID,
		"seed", res.Seed,
		"compared", res.Compared,
		"last_frame", res.LastFrame,
	)
}
