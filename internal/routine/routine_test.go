package routine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/armsim/internal/config"
	"github.com/san-kum/armsim/internal/sim"
)

func writeRoutine(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routine.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func benchSession(t *testing.T) *sim.Session {
	t.Helper()
	cfg := config.GetPreset("bench")
	if cfg == nil {
		t.Fatal("missing bench preset")
	}
	cfg.Seed = 1
	s, err := sim.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

func TestLoadRejectsEmptyAndZeroDuration(t *testing.T) {
	if _, err := Load(writeRoutine(t, "name: empty\nsteps: []\n")); err == nil {
		t.Error("expected error for routine with no steps")
	}

	body := "name: bad\nsteps:\n  - setpoint_deg: 45\n    duration_sec: 0\n"
	if _, err := Load(writeRoutine(t, body)); err == nil {
		t.Error("expected error for zero-duration step")
	}
}

func TestRoutinePlaysStepsInOrder(t *testing.T) {
	body := `name: two-pose
steps:
  - setpoint_deg: 45
    duration_sec: 3
  - setpoint_deg: 90
    duration_sec: 3
`
	r, err := Load(writeRoutine(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	s := benchSession(t)
	if err := r.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	frames := s.Frames()
	if len(frames) != 300 {
		t.Fatalf("expected 300 frames, got %d", len(frames))
	}
	// Midway through step one the arm tracks 45, at the end it tracks 90.
	mid := frames[140].AngleRad * 180 / math.Pi
	if math.Abs(mid-45) > 2 {
		t.Errorf("expected ~45 deg mid-routine, got %f", mid)
	}
	final := frames[len(frames)-1].AngleRad * 180 / math.Pi
	if math.Abs(final-90) > 2 {
		t.Errorf("expected ~90 deg at end, got %f", final)
	}
}

func TestRoutineStopsOnCancel(t *testing.T) {
	body := "name: hold\nsteps:\n  - setpoint_deg: 45\n    duration_sec: 60\n"
	r, err := Load(writeRoutine(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := benchSession(t)
	if err := r.Run(ctx, s); err == nil {
		t.Error("expected context error")
	}
	if len(s.Frames()) != 0 {
		t.Errorf("expected no frames after immediate cancel, got %d", len(s.Frames()))
	}
}

func TestMonteCarloCountsSettledTrials(t *testing.T) {
	mc := MonteCarlo{Trials: 8, PerturbationDeg: 10, ToleranceRad: 0.05, Seed: 3}

	results, settled, err := mc.Run(context.Background(), func(offsetDeg float64) (*sim.Session, error) {
		cfg := config.GetPreset("bench")
		cfg.Seed = 1
		cfg.Arm.StartAngleDeg += offsetDeg
		return sim.NewSession(cfg, nil)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(results) != 8 {
		t.Fatalf("expected 8 trials, got %d", len(results))
	}
	// The bench tuning recovers from a 10 degree kick well inside the run.
	if settled != 8 {
		t.Errorf("expected every trial to settle, got %d/8", settled)
	}
	for _, r := range results {
		if math.Abs(r.OffsetDeg) > 10 {
			t.Errorf("offset %f outside perturbation bound", r.OffsetDeg)
		}
	}
}
