// Package game runs the colony: it owns the ECS world, the nectar registry,
// the seeded RNG, and the frame/tick scheduler.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/systems"
	"github.com/pthm-cable/forage/telemetry"
)

// Options configures a new Game.
type Options struct {
	Seed   int64
	Config *config.Config // nil uses config.Cfg()

	LogStats  bool   // log window and perf stats via slog
	OutputDir string // CSV logs, config, hall of fame, bookmark snapshots (empty = disabled)
	TracePath string // zstd frame trace (empty = disabled)
	IndexPath string // sqlite run index (empty = disabled)

	// StatsCallback is called with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
	// FrameCallback is called with every frame. The frame shares no memory
	// with the simulation and may be handed to another goroutine.
	FrameCallback func(telemetry.Frame)
}

// Game holds the complete colony state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64
	runID string

	beeMapper *ecs.Map4[components.Bee, components.Position, components.Forager, components.Flight]
	beeFilter *ecs.Filter4[components.Bee, components.Position, components.Forager, components.Flight]
	bees      []ecs.Entity // indexed by bee ID

	registry *systems.Registry
	hive     r2.Box

	// State
	frame     int32
	tick      int32
	delivered float64
	closed    bool
	last      telemetry.Frame // most recently emitted frame

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	lifetimeTracker  *telemetry.LifetimeTracker
	hallOfFame       *telemetry.HallOfFame
	outputManager    *telemetry.OutputManager
	trace            *telemetry.TraceWriter
	index            *telemetry.RunIndex
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
	frameCallback    func(telemetry.Frame)
}

// New validates the configuration and builds a colony ready to step.
// Configuration errors wrap config.ErrInvalid and are returned before any frame runs.
func New(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}

	registry, err := systems.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("nectar registry: %w", err)
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:      cfg,
		world:    world,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		seed:     opts.Seed,
		runID:    uuid.NewString(),
		registry: registry,
		hive:     cfg.Derived.HiveBox,

		beeMapper: ecs.NewMap4[components.Bee, components.Position, components.Forager, components.Flight](world),
		beeFilter: ecs.NewFilter4[components.Bee, components.Position, components.Forager, components.Flight](world),

		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		lifetimeTracker:  telemetry.NewLifetimeTracker(),
		hallOfFame:       telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
		frameCallback:    opts.FrameCallback,
	}

	// Draw order at startup: bee positions by ascending ID, then the initial sources
	g.spawnColony()
	g.registry.Replenish(g.rng)

	if err := g.openOutputs(opts); err != nil {
		g.Close()
		return nil, err
	}

	slog.Info("colony created",
		"run_id", g.runID,
		"seed", g.seed,
		"agents", len(g.bees),
		"sources", g.registry.LiveCount(),
		"tick_interval", cfg.Schedule.TickInterval,
		"interp_steps", cfg.Schedule.InterpSteps,
	)
	return g, nil
}

// openOutputs wires the optional sinks.
func (g *Game) openOutputs(opts Options) error {
	yaml, err := g.cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return err
		}
		g.outputManager = om
		g.snapshotDir = filepath.Join(opts.OutputDir, "snapshots")
		if err := om.WriteConfig(g.cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}

	if opts.TracePath != "" {
		tw, err := telemetry.CreateTrace(opts.TracePath, telemetry.TraceHeader{
			RunID:  g.runID,
			Seed:   g.seed,
			Every:  g.cfg.Trace.Every,
			Config: string(yaml),
		})
		if err != nil {
			return err
		}
		g.trace = tw
	}

	if opts.IndexPath != "" {
		ix, err := telemetry.OpenRunIndex(opts.IndexPath)
		if err != nil {
			return err
		}
		g.index = ix
		run := telemetry.RunRecord{
			ID:        g.runID,
			Seed:      g.seed,
			Agents:    len(g.bees),
			StartedAt: time.Now(),
			Config:    string(yaml),
		}
		if err := ix.BeginRun(context.Background(), run); err != nil {
			return err
		}
	}
	return nil
}

// Close finalizes the run: ranks the hall of fame, finishes the index row,
// and closes every sink.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	var errs []error

	g.hallOfFame.ConsiderAll(g.lifetimeTracker)
	if err := g.outputManager.WriteHallOfFame(g.hallOfFame); err != nil {
		errs = append(errs, err)
	}

	if g.index != nil {
		errs = append(errs, g.index.FinishRun(context.Background(), g.runID, g.frame, g.delivered, time.Now()))
		errs = append(errs, g.index.Close())
		g.index = nil
	}
	if g.trace != nil {
		errs = append(errs, g.trace.Close())
		g.trace = nil
	}
	errs = append(errs, g.outputManager.Close())
	g.outputManager = nil

	return errors.Join(errs...)
}

// Frame returns the number of frames executed.
func (g *Game) Frame() int32 {
	return g.frame
}

// Tick returns the number of logical ticks executed.
func (g *Game) Tick() int32 {
	return g.tick
}

// RunID returns the unique identifier of this run.
func (g *Game) RunID() string {
	return g.runID
}

// Seed returns the RNG seed.
func (g *Game) Seed() int64 {
	return g.seed
}

// Config returns the configuration the colony was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// BeeCount returns the number of bees.
func (g *Game) BeeCount() int {
	return len(g.bees)
}

// LiveSources returns the number of live nectar sources.
func (g *Game) LiveSources() int {
	return g.registry.LiveCount()
}

// Delivered returns the total nectar delivered to the hive so far.
func (g *Game) Delivered() float64 {
	return g.delivered
}

// HallOfFame returns the hall of fame. It is populated by Close.
func (g *Game) HallOfFame() *telemetry.HallOfFame {
	return g.hallOfFame
}
