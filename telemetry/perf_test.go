package telemetry

import (
	"testing"
	"time"
)

// step times one synthetic frame; tick frames spend extra time in transitions.
func step(pc *PerfCollector, tick bool, work time.Duration) {
	pc.StartStep(tick)
	if tick {
		pc.StartPhase(PhaseTransitions)
		time.Sleep(work)
	}
	pc.StartPhase(PhaseMovement)
	time.Sleep(50 * time.Microsecond)
	pc.EndStep()
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		step(pc, i == 0, 100*time.Microsecond)
	}

	stats := pc.Stats()
	if stats.Frames != 5 || stats.TickFrames != 1 {
		t.Errorf("expected 5 frames with 1 tick frame, got %d/%d", stats.Frames, stats.TickFrames)
	}
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v exceeds max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_TickAndMoveFrames(t *testing.T) {
	pc := NewPerfCollector(20)
	for i := 0; i < 20; i++ {
		step(pc, i%10 == 0, 2*time.Millisecond)
	}

	stats := pc.Stats()
	if stats.TickFrames != 2 {
		t.Fatalf("expected 2 tick frames, got %d", stats.TickFrames)
	}
	if stats.AvgTickStep <= stats.AvgMoveStep {
		t.Errorf("expected tick frames (%v) slower than movement frames (%v)", stats.AvgTickStep, stats.AvgMoveStep)
	}
	if stats.AvgMoveStep <= 0 {
		t.Error("expected movement-only frames to be timed")
	}
	if stats.PhasePct[PhaseTransitions] <= 0 {
		t.Error("expected transitions share on tick frames")
	}
}

func TestPerfCollector_MoveOnlyWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	for i := 0; i < 3; i++ {
		step(pc, true, 0)
	}
	// Tick frames age out of the window
	for i := 0; i < 5; i++ {
		step(pc, false, 0)
	}

	stats := pc.Stats()
	if stats.Frames != 5 || stats.TickFrames != 0 {
		t.Errorf("expected 5 movement-only frames, got %d/%d", stats.Frames, stats.TickFrames)
	}
	if stats.AvgTickStep != 0 {
		t.Errorf("expected no tick average, got %v", stats.AvgTickStep)
	}
	if _, ok := stats.PhaseAvg[PhaseTransitions]; ok {
		t.Error("transitions phase reported without tick frames")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep(false)
		pc.StartPhase(PhaseMaintenance)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseTelemetry)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseTelemetry] <= stats.PhasePct[PhaseMaintenance] {
		t.Errorf("expected telemetry (%v%%) > maintenance (%v%%)", stats.PhasePct[PhaseTelemetry], stats.PhasePct[PhaseMaintenance])
	}
	if sum := stats.PhasePct[PhaseTelemetry] + stats.PhasePct[PhaseMaintenance]; sum > 100.0001 {
		t.Errorf("phase shares exceed frame time: %v%%", sum)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.Frames != 0 || stats.AvgStepDuration != 0 {
		t.Error("expected zero stats for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		Frames:          100,
		TickFrames:      10,
		AvgStepDuration: 250 * time.Microsecond,
		AvgTickStep:     900 * time.Microsecond,
		AvgMoveStep:     180 * time.Microsecond,
		PhasePct: map[string]float64{
			PhaseTransitions: 40,
			PhaseMovement:    30,
			PhaseMaintenance: 20,
			PhaseTelemetry:   10,
		},
	}

	row := s.ToCSV(300)
	if row.WindowEnd != 300 || row.AvgStepUS != 250 || row.Frames != 100 || row.TickFrames != 10 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.AvgTickStepUS != 900 || row.AvgMoveStepUS != 180 {
		t.Errorf("cadence split not carried: %+v", row)
	}
	if row.TransitionsPct != 40 || row.MovementPct != 30 || row.MaintenancePct != 20 || row.TelemetryPct != 10 {
		t.Errorf("phase percentages not carried: %+v", row)
	}
}
