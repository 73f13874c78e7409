// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every configuration validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Colony    ColonyConfig    `yaml:"colony"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Nectar    NectarConfig    `yaml:"nectar"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Observer  ObserverConfig  `yaml:"observer"`
	Trace     TraceConfig     `yaml:"trace"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Rect is an axis-aligned rectangle in world units.
type Rect struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// Box converts the rectangle to a gonum box.
func (r Rect) Box() r2.Box {
	return r2.Box{
		Min: r2.Vec{X: r.MinX, Y: r.MinY},
		Max: r2.Vec{X: r.MaxX, Y: r.MaxY},
	}
}

// Degenerate reports whether the rectangle has zero or negative extent on either axis.
func (r Rect) Degenerate() bool {
	return !(r.MaxX > r.MinX) || !(r.MaxY > r.MinY)
}

// Finite reports whether every coordinate is a finite number.
func (r Rect) Finite() bool {
	return finite(r.MinX) && finite(r.MinY) && finite(r.MaxX) && finite(r.MaxY)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// ColonyConfig holds the bee population and hive geometry.
type ColonyConfig struct {
	Agents int  `yaml:"agents"`
	Hive   Rect `yaml:"hive"` // spawn area and "return to hive" targets
}

// ScheduleConfig holds frame/tick cadence.
type ScheduleConfig struct {
	Frames       int `yaml:"frames"`        // Run length in frames
	TickInterval int `yaml:"tick_interval"` // Frames per logical tick (T)
	InterpSteps  int `yaml:"interp_steps"`  // Waypoints per travel (S)
}

// NectarConfig holds nectar source replenishment parameters.
type NectarConfig struct {
	TargetCount int     `yaml:"target_count"` // Live sources kept after every replenish
	Spawn       Rect    `yaml:"spawn"`        // Bounding box for new sources
	QualityMin  float64 `yaml:"quality_min"`  // New source quality is uniform in [min, max)
	QualityMax  float64 `yaml:"quality_max"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // frames; 0 disables window stats
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	HallOfFameSize      int `yaml:"hall_of_fame_size"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	NectarBoom       NectarBoomConfig       `yaml:"nectar_boom"`
	RecruitmentSurge RecruitmentSurgeConfig `yaml:"recruitment_surge"`
	Scarcity         ScarcityConfig         `yaml:"scarcity"`
	StableColony     StableColonyConfig     `yaml:"stable_colony"`
}

// NectarBoomConfig holds nectar boom detection parameters.
type NectarBoomConfig struct {
	Multiplier   float64 `yaml:"multiplier"`
	MinExtracted float64 `yaml:"min_extracted"`
}

// RecruitmentSurgeConfig holds recruitment surge detection parameters.
type RecruitmentSurgeConfig struct {
	Multiplier  float64 `yaml:"multiplier"`
	MinRecruits int     `yaml:"min_recruits"`
}

// ScarcityConfig holds scarcity detection parameters.
type ScarcityConfig struct {
	RetryFraction float64 `yaml:"retry_fraction"` // empty scouting retries / agent ticks
}

// StableColonyConfig holds stable colony detection parameters.
type StableColonyConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
	MinDelivered  float64 `yaml:"min_delivered"`
}

// ObserverConfig holds the live frame stream settings.
type ObserverConfig struct {
	Addr        string  `yaml:"addr"`         // empty = disabled
	MarkerScale float64 `yaml:"marker_scale"` // source marker size = max(quality*scale, floor)
	MarkerFloor float64 `yaml:"marker_floor"`
	Buffer      int     `yaml:"buffer"` // per-subscriber frame queue
}

// TraceConfig holds frame trace settings.
type TraceConfig struct {
	Every int `yaml:"every"` // write every Nth frame
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HiveBox  r2.Box
	SpawnBox r2.Box
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges YAML data on top of the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HiveBox = c.Colony.Hive.Box()
	c.Derived.SpawnBox = c.Nectar.Spawn.Box()

	if c.Trace.Every < 1 {
		c.Trace.Every = 1
	}
}

// Validate reports every configuration error at once. Each error wraps ErrInvalid.
// A config that fails validation must not be used to start a run.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Colony.Agents < 0 {
		invalid("colony.agents must be >= 0, got %d", c.Colony.Agents)
	}
	if !c.Colony.Hive.Finite() {
		invalid("colony.hive has non-finite bounds: %s", c.Colony.Hive)
	} else if c.Colony.Hive.Degenerate() {
		invalid("colony.hive is degenerate: %s", c.Colony.Hive)
	}

	if c.Schedule.Frames < 0 {
		invalid("schedule.frames must be >= 0, got %d", c.Schedule.Frames)
	}
	if c.Schedule.TickInterval < 1 {
		invalid("schedule.tick_interval must be >= 1, got %d", c.Schedule.TickInterval)
	}
	if c.Schedule.InterpSteps < 1 {
		invalid("schedule.interp_steps must be >= 1, got %d", c.Schedule.InterpSteps)
	}

	if c.Nectar.TargetCount < 1 {
		invalid("nectar.target_count must be >= 1, got %d", c.Nectar.TargetCount)
	}
	if !c.Nectar.Spawn.Finite() {
		invalid("nectar.spawn has non-finite bounds: %s", c.Nectar.Spawn)
	} else if c.Nectar.Spawn.Degenerate() {
		invalid("nectar.spawn is degenerate: %s", c.Nectar.Spawn)
	}
	// NaN fails every comparison, so finiteness is checked first
	if !finite(c.Nectar.QualityMin) || !(c.Nectar.QualityMin > 0) {
		invalid("nectar.quality_min must be finite and > 0, got %g", c.Nectar.QualityMin)
	}
	if !finite(c.Nectar.QualityMax) {
		invalid("nectar.quality_max must be finite, got %g", c.Nectar.QualityMax)
	} else if c.Nectar.QualityMax < c.Nectar.QualityMin {
		invalid("nectar.quality_max %g is below quality_min %g", c.Nectar.QualityMax, c.Nectar.QualityMin)
	}

	if c.Telemetry.StatsWindow < 0 {
		invalid("telemetry.stats_window must be >= 0, got %d", c.Telemetry.StatsWindow)
	}

	return errors.Join(errs...)
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
