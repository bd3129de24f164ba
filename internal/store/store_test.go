package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/armsim/internal/telemetry"
)

func sampleFrames() []telemetry.Frame {
	return []telemetry.Frame{
		{TimeSec: 0.02, AngleRad: 0.1, VelocityRadPerSec: 0.5, Volts: 6, CurrentAmps: 20, BatteryVolts: 11.6},
		{TimeSec: 0.04, AngleRad: 0.2, VelocityRadPerSec: 0.4, Volts: 4, CurrentAmps: 12, BatteryVolts: 11.8},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	meta := RunMetadata{
		Name:        "arm",
		Seed:        7,
		Dt:          0.02,
		Duration:    10,
		Kp:          50,
		Kd:          2,
		SetpointDeg: 75,
		Metrics:     map[string]float64{"settling_time": 1.2},
	}

	runID, err := s.Save(meta, sampleFrames())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Kp != 50 || loaded.SetpointDeg != 75 {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Metrics["settling_time"] != 1.2 {
		t.Error("metrics not preserved")
	}

	frames, err := s.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[1].BatteryVolts != 11.8 {
		t.Errorf("frame mismatch: %+v", frames[1])
	}
}

func TestListEmptyDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListSkipsForeignEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := s.Save(RunMetadata{Name: "arm"}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "not-a-run"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, RunMetadata{ID: "arm_1"}, sampleFrames()); err != nil {
		t.Fatalf("export: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty export")
	}
}
