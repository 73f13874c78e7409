package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/observer"
	"github.com/pthm-cable/forage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	frames := flag.Int("frames", 0, "Frames to run (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config, hall of fame and snapshots")
	tracePath := flag.String("trace", "", "Write a zstd frame trace to this path")
	indexPath := flag.String("index", "", "Record the run in this sqlite run index")
	observe := flag.String("observe", "", "Serve the live frame stream on this loopback address (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	runFrames := cfg.Schedule.Frames
	if *frames > 0 {
		runFrames = *frames
	}
	addr := cfg.Observer.Addr
	if *observe != "" {
		addr = *observe
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The observer needs the run ID, so it is created after the game.
	var srv *observer.Server
	g, err := game.New(game.Options{
		Seed:      rngSeed,
		Config:    cfg,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		TracePath: *tracePath,
		IndexPath: *indexPath,
		FrameCallback: func(f telemetry.Frame) {
			if srv != nil {
				srv.Publish(f)
			}
		},
	})
	if err != nil {
		slog.Error("failed to create colony", "error", err)
		os.Exit(1)
	}

	observerDone := make(chan error, 1)
	observeCtx, stopObserver := context.WithCancel(ctx)
	if addr != "" {
		srv = observer.NewServer(g.RunID(), rngSeed, cfg)
		go func() { observerDone <- srv.ListenAndServe(observeCtx, addr) }()
	} else {
		observerDone <- nil
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"frames", runFrames,
		"output_dir", *outputDir,
		"trace", *tracePath,
		"observe", addr,
	)

	runErr := game.Run(ctx, g, runFrames)
	if runErr != nil {
		slog.Warn("run stopped early", "frame", g.Frame(), "error", runErr)
	}

	closeErr := g.Close()
	if closeErr != nil {
		slog.Error("failed to close outputs", "error", closeErr)
	}

	stopObserver()
	if err := <-observerDone; err != nil {
		slog.Error("observer failed", "error", err)
	}

	if closeErr != nil {
		os.Exit(1)
	}
}
