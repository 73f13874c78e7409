package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one scheduler frame. The transitions phase only runs on
// tick frames; the other three run every frame.
const (
	PhaseTransitions = "transitions"
	PhaseMovement    = "movement"
	PhaseMaintenance = "maintenance"
	PhaseTelemetry   = "telemetry"
)

// Phases lists the frame phases in execution order.
var Phases = []string{PhaseTransitions, PhaseMovement, PhaseMaintenance, PhaseTelemetry}

// FrameSample is the timing of one scheduler frame.
type FrameSample struct {
	Tick     bool // transitions ran this frame
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector times scheduler frames over a ring of the most recent
// samples, keeping tick frames apart from movement-only frames: a tick frame
// does the state machine work for every bee, the frames between only pop
// waypoints.
type PerfCollector struct {
	ring  []FrameSample
	next  int
	count int

	cur        FrameSample
	frameStart time.Time
	phase      string
	phaseStart time.Time
}

// NewPerfCollector creates a collector averaging over the last windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{ring: make([]FrameSample, windowSize)}
}

// StartStep begins timing a frame. tick reports whether it is a tick frame.
func (p *PerfCollector) StartStep(tick bool) {
	p.frameStart = time.Now()
	p.cur = FrameSample{Tick: tick, Phases: make(map[string]time.Duration, len(Phases))}
	p.phase = ""
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
}

// EndStep closes the frame and stores its sample, evicting the oldest once full.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.cur.Duration = now.Sub(p.frameStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
	p.cur = FrameSample{}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase == "" {
		return
	}
	p.cur.Phases[p.phase] += now.Sub(p.phaseStart)
	p.phase = ""
}

// PerfStats summarizes the frames currently held by a PerfCollector.
type PerfStats struct {
	Frames     int // frames in the window
	TickFrames int // of which ran transitions

	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	// Averages split by cadence; zero when the window has no frame of that kind
	AvgTickStep time.Duration
	AvgMoveStep time.Duration

	// Average time per frame spent in each phase, and its share of all frame time
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	StepsPerSecond float64
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Frames:   p.count,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.count == 0 {
		return s
	}

	var total, tickTotal, moveTotal time.Duration
	phaseSum := make(map[string]time.Duration)
	for i, f := range p.ring[:p.count] {
		total += f.Duration
		if f.Tick {
			s.TickFrames++
			tickTotal += f.Duration
		} else {
			moveTotal += f.Duration
		}
		if i == 0 || f.Duration < s.MinStepDuration {
			s.MinStepDuration = f.Duration
		}
		s.MaxStepDuration = max(s.MaxStepDuration, f.Duration)
		for phase, d := range f.Phases {
			phaseSum[phase] += d
		}
	}

	s.AvgStepDuration = total / time.Duration(p.count)
	if s.TickFrames > 0 {
		s.AvgTickStep = tickTotal / time.Duration(s.TickFrames)
	}
	if moves := p.count - s.TickFrames; moves > 0 {
		s.AvgMoveStep = moveTotal / time.Duration(moves)
	}
	for phase, sum := range phaseSum {
		s.PhaseAvg[phase] = sum / time.Duration(p.count)
		if total > 0 {
			s.PhasePct[phase] = float64(sum) / float64(total) * 100
		}
	}
	if s.AvgStepDuration > 0 {
		s.StepsPerSecond = float64(time.Second) / float64(s.AvgStepDuration)
	}
	return s
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int("tick_frames", s.TickFrames),
		slog.Int64("avg_step_us", s.AvgStepDuration.Microseconds()),
		slog.Int64("avg_tick_step_us", s.AvgTickStep.Microseconds()),
		slog.Int64("avg_move_step_us", s.AvgMoveStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStepDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	Frames         int     `csv:"frames"`
	TickFrames     int     `csv:"tick_frames"`
	AvgStepUS      int64   `csv:"avg_step_us"`
	MinStepUS      int64   `csv:"min_step_us"`
	MaxStepUS      int64   `csv:"max_step_us"`
	AvgTickStepUS  int64   `csv:"avg_tick_step_us"`
	AvgMoveStepUS  int64   `csv:"avg_move_step_us"`
	StepsPerSec    float64 `csv:"steps_per_sec"`
	TransitionsPct float64 `csv:"transitions_pct"`
	MovementPct    float64 `csv:"movement_pct"`
	MaintenancePct float64 `csv:"maintenance_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		Frames:         s.Frames,
		TickFrames:     s.TickFrames,
		AvgStepUS:      s.AvgStepDuration.Microseconds(),
		MinStepUS:      s.MinStepDuration.Microseconds(),
		MaxStepUS:      s.MaxStepDuration.Microseconds(),
		AvgTickStepUS:  s.AvgTickStep.Microseconds(),
		AvgMoveStepUS:  s.AvgMoveStep.Microseconds(),
		StepsPerSec:    s.StepsPerSecond,
		TransitionsPct: s.PhasePct[PhaseTransitions],
		MovementPct:    s.PhasePct[PhaseMovement],
		MaintenancePct: s.PhasePct[PhaseMaintenance],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
