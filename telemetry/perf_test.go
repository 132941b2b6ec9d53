package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSense)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseLifecycle)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[PhaseSense]; !ok {
		t.Error("expected sense_act phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseLifecycle]; !ok {
		t.Error("expected lifecycle phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseEvolve]; ok {
		t.Error("evolve phase should not appear when never started")
	}
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("min/avg/max out of order: %v %v %v",
			stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSense)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	if pc.sampleCount != 5 {
		t.Errorf("sampleCount = %d, want 5", pc.sampleCount)
	}
	if pc.Stats().TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_Empty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector reported %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("maps should be non-nil")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		MaxTickDuration: 3 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseSense: 80, PhaseEvolve: 5},
		TicksPerSecond:  666,
	}
	row := s.ToCSV(7)
	if row.Generation != 7 || row.AvgTickUS != 1500 || row.MaxTickUS != 3000 {
		t.Errorf("unexpected row %+v", row)
	}
	if row.SenseActPct != 80 || row.EvolvePct != 5 || row.LifecyclePct != 0 {
		t.Errorf("unexpected phase pcts %+v", row)
	}
}
