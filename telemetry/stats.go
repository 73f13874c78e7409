package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame int32 `csv:"-"`
	WindowEndFrame   int32 `csv:"window_end"`

	// State census at window end
	InHive    int `csv:"in_hive"`
	Scouting  int `csv:"scouting"`
	OnSource  int `csv:"on_source"`
	Returning int `csv:"returning"`
	Unloading int `csv:"unloading"`
	Dancing   int `csv:"dancing"`
	Following int `csv:"following"`
	Foraging  int `csv:"foraging"`

	// Events during window
	AgentTicks   int     `csv:"agent_ticks"`
	Visits       int     `csv:"visits"`
	Trips        int     `csv:"trips"`
	Dances       int     `csv:"dances"`
	Recruits     int     `csv:"recruits"`
	StaleVisits  int     `csv:"stale_visits"`
	ScoutRetries int     `csv:"scout_retries"`
	RetryRate    float64 `csv:"retry_rate"`
	Extracted    float64 `csv:"extracted"`
	Delivered    float64 `csv:"delivered"`

	// Load distribution (sampled at window end)
	LoadMean float64 `csv:"load_mean"`
	LoadP50  float64 `csv:"load_p50"`
	LoadP90  float64 `csv:"load_p90"`

	// Nectar sources
	LiveSources     int     `csv:"live_sources"`
	SourcesDepleted int     `csv:"sources_depleted"`
	SourcesSpawned  int     `csv:"sources_spawned"`
	QualityTotal    float64 `csv:"quality_total"`
	QualityMean     float64 `csv:"quality_mean"`
	QualityStd      float64 `csv:"quality_std"`
}

// ComputeLoadStats calculates the mean and empirical quantiles of nectar loads.
func ComputeLoadStats(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, p50, p90
}

// ComputeQualityStats calculates total, mean, and standard deviation of source qualities.
func ComputeQualityStats(values []float64) (total, mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		total += v
	}
	if n == 1 {
		return total, values[0], 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	return total, mean, std
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartFrame)),
		slog.Int("window_end", int(s.WindowEndFrame)),
		slog.Int("in_hive", s.InHive),
		slog.Int("scouting", s.Scouting),
		slog.Int("on_source", s.OnSource),
		slog.Int("returning", s.Returning),
		slog.Int("unloading", s.Unloading),
		slog.Int("dancing", s.Dancing),
		slog.Int("following", s.Following),
		slog.Int("foraging", s.Foraging),
		slog.Int("visits", s.Visits),
		slog.Int("trips", s.Trips),
		slog.Int("dances", s.Dances),
		slog.Int("recruits", s.Recruits),
		slog.Int("stale_visits", s.StaleVisits),
		slog.Int("scout_retries", s.ScoutRetries),
		slog.Float64("retry_rate", s.RetryRate),
		slog.Float64("extracted", s.Extracted),
		slog.Float64("delivered", s.Delivered),
		slog.Float64("load_mean", s.LoadMean),
		slog.Float64("load_p50", s.LoadP50),
		slog.Float64("load_p90", s.LoadP90),
		slog.Int("live_sources", s.LiveSources),
		slog.Int("sources_depleted", s.SourcesDepleted),
		slog.Int("sources_spawned", s.SourcesSpawned),
		slog.Float64("quality_total", s.QualityTotal),
		slog.Float64("quality_mean", s.QualityMean),
		slog.Float64("quality_std", s.QualityStd),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
