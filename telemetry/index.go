package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string
	Seed       int64
	Agents     int
	Frames     int32 // frames completed; 0 until the run finishes
	StartedAt  time.Time
	FinishedAt time.Time // zero until the run finishes
	Delivered  float64
	Config     string // effective config as YAML
}

// RunIndex is a sqlite catalogue of runs and their window stats.
type RunIndex struct {
	db *sql.DB
}

// OpenRunIndex opens or creates the index database at path.
func OpenRunIndex(path string) (*RunIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index schema: %w", err)
	}
	return &RunIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT '',
			delivered REAL NOT NULL DEFAULT 0,
			config TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS windows (
			run_id TEXT NOT NULL REFERENCES runs(id),
			window_end INTEGER NOT NULL,
			visits INTEGER NOT NULL,
			trips INTEGER NOT NULL,
			dances INTEGER NOT NULL,
			recruits INTEGER NOT NULL,
			stale_visits INTEGER NOT NULL,
			scout_retries INTEGER NOT NULL,
			extracted REAL NOT NULL,
			delivered REAL NOT NULL,
			live_sources INTEGER NOT NULL,
			quality_total REAL NOT NULL,
			PRIMARY KEY (run_id, window_end)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun inserts the run row.
func (ix *RunIndex) BeginRun(ctx context.Context, run RunRecord) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, agents, started_at, config) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Seed, run.Agents, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Config)
	if err != nil {
		return fmt.Errorf("index begin run %s: %w", run.ID, err)
	}
	return nil
}

// RecordWindow stores one window of stats for a run.
func (ix *RunIndex) RecordWindow(ctx context.Context, runID string, s WindowStats) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO windows (run_id, window_end, visits, trips, dances, recruits,
			stale_visits, scout_retries, extracted, delivered, live_sources, quality_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.WindowEndFrame, s.Visits, s.Trips, s.Dances, s.Recruits,
		s.StaleVisits, s.ScoutRetries, s.Extracted, s.Delivered, s.LiveSources, s.QualityTotal)
	if err != nil {
		return fmt.Errorf("index window %d: %w", s.WindowEndFrame, err)
	}
	return nil
}

// FinishRun records the final frame count and total delivery.
func (ix *RunIndex) FinishRun(ctx context.Context, runID string, frames int32, delivered float64, at time.Time) error {
	_, err := ix.db.ExecContext(ctx,
		`UPDATE runs SET frames = ?, delivered = ?, finished_at = ? WHERE id = ?`,
		frames, delivered, at.UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("index finish run %s: %w", runID, err)
	}
	return nil
}

// Run loads one run row.
func (ix *RunIndex) Run(ctx context.Context, runID string) (RunRecord, error) {
	var (
		r                 RunRecord
		started, finished string
	)
	err := ix.db.QueryRowContext(ctx,
		`SELECT id, seed, agents, frames, started_at, finished_at, delivered, config FROM runs WHERE id = ?`,
		runID).Scan(&r.ID, &r.Seed, &r.Agents, &r.Frames, &started, &finished, &r.Delivered, &r.Config)
	if err != nil {
		return RunRecord{}, fmt.Errorf("index run %s: %w", runID, err)
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	}
	return r, nil
}

// Windows returns a run's stored windows ordered by window end.
// Only the indexed columns are populated.
func (ix *RunIndex) Windows(ctx context.Context, runID string) ([]WindowStats, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT window_end, visits, trips, dances, recruits, stale_visits, scout_retries,
			extracted, delivered, live_sources, quality_total
		FROM windows WHERE run_id = ? ORDER BY window_end`, runID)
	if err != nil {
		return nil, fmt.Errorf("index windows %s: %w", runID, err)
	}
	defer rows.Close()

	var out []WindowStats
	for rows.Next() {
		var s WindowStats
		if err := rows.Scan(&s.WindowEndFrame, &s.Visits, &s.Trips, &s.Dances, &s.Recruits,
			&s.StaleVisits, &s.ScoutRetries, &s.Extracted, &s.Delivered, &s.LiveSources, &s.QualityTotal); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (ix *RunIndex) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}
