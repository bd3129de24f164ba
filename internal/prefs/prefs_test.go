package prefs

import (
	"path/filepath"
	"testing"
)

func TestInitDoubleDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.InitDouble("arm/kp", 50); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := s.SetDouble("arm/kp", 72.5); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A later init with a different default must not clobber the tuned value.
	if err := s.InitDouble("arm/kp", 50); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if got := s.Double("arm/kp", 0); got != 72.5 {
		t.Errorf("expected 72.5, got %f", got)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetDouble("arm/setpoint_deg", 45); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Double("arm/setpoint_deg", 0); got != 45 {
		t.Errorf("expected 45 after reopen, got %f", got)
	}
}

func TestDoubleFallsBackToDefault(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Double("missing", 7.5); got != 7.5 {
		t.Errorf("expected default 7.5, got %f", got)
	}
}
