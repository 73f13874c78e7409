package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults should validate, got %v", err)
	}

	if cfg.Colony.Agents != 10 {
		t.Errorf("expected 10 agents, got %d", cfg.Colony.Agents)
	}
	if cfg.Schedule.TickInterval != 10 || cfg.Schedule.InterpSteps != 10 {
		t.Errorf("expected T=10 S=10, got T=%d S=%d", cfg.Schedule.TickInterval, cfg.Schedule.InterpSteps)
	}
	if cfg.Derived.HiveBox.Min.X != -2 || cfg.Derived.HiveBox.Max.Y != 2 {
		t.Errorf("unexpected hive box %+v", cfg.Derived.HiveBox)
	}
	if cfg.Derived.SpawnBox.Max.X != 10 {
		t.Errorf("unexpected spawn box %+v", cfg.Derived.SpawnBox)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("colony:\n  agents: 3\nnectar:\n  target_count: 7\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Colony.Agents != 3 {
		t.Errorf("expected overridden agents 3, got %d", cfg.Colony.Agents)
	}
	if cfg.Nectar.TargetCount != 7 {
		t.Errorf("expected overridden target_count 7, got %d", cfg.Nectar.TargetCount)
	}
	// Untouched fields keep their defaults
	if cfg.Nectar.QualityMax != 10 {
		t.Errorf("expected default quality_max 10, got %g", cfg.Nectar.QualityMax)
	}
	if cfg.Colony.Hive.MaxX != 2 {
		t.Errorf("expected default hive max_x 2, got %g", cfg.Colony.Hive.MaxX)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative agents", func(c *Config) { c.Colony.Agents = -1 }, "colony.agents"},
		{"flat hive", func(c *Config) { c.Colony.Hive.MaxY = c.Colony.Hive.MinY }, "colony.hive"},
		{"zero tick interval", func(c *Config) { c.Schedule.TickInterval = 0 }, "schedule.tick_interval"},
		{"zero interp steps", func(c *Config) { c.Schedule.InterpSteps = 0 }, "schedule.interp_steps"},
		{"zero target count", func(c *Config) { c.Nectar.TargetCount = 0 }, "nectar.target_count"},
		{"zero-size spawn box", func(c *Config) { c.Nectar.Spawn = Rect{} }, "nectar.spawn"},
		{"zero quality min", func(c *Config) { c.Nectar.QualityMin = 0 }, "nectar.quality_min"},
		{"inverted quality range", func(c *Config) { c.Nectar.QualityMax = 0.5 }, "nectar.quality_max"},
		{"nan quality max", func(c *Config) { c.Nectar.QualityMax = math.NaN() }, "nectar.quality_max"},
		{"infinite quality max", func(c *Config) { c.Nectar.QualityMax = math.Inf(1) }, "nectar.quality_max"},
		{"nan quality min", func(c *Config) { c.Nectar.QualityMin = math.NaN() }, "nectar.quality_min"},
		{"infinite spawn bound", func(c *Config) { c.Nectar.Spawn.MaxX = math.Inf(1) }, "nectar.spawn"},
		{"nan spawn bound", func(c *Config) { c.Nectar.Spawn.MinY = math.NaN() }, "nectar.spawn"},
		{"infinite hive bound", func(c *Config) { c.Colony.Hive.MinX = math.Inf(-1) }, "colony.hive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected error to wrap ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Nectar.TargetCount = 0
	cfg.Schedule.TickInterval = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "nectar.target_count") || !strings.Contains(msg, "schedule.tick_interval") {
		t.Errorf("expected both field errors, got %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Colony.Agents = 42

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Colony.Agents != 42 {
		t.Errorf("expected agents 42 after round trip, got %d", loaded.Colony.Agents)
	}
}

func TestParseNonFiniteYAML(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		field   string
	}{
		{"nan quality", "nectar:\n  quality_max: .nan\n", "nectar.quality_max"},
		{"infinite quality", "nectar:\n  quality_max: .inf\n", "nectar.quality_max"},
		{"infinite spawn", "nectar:\n  spawn:\n    max_x: .inf\n", "nectar.spawn"},
		{"nan hive", "colony:\n  hive:\n    min_y: .nan\n", "colony.hive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.overlay))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			err = cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}
