package control

import (
	"math"
	"testing"
)

func TestProportionalOnly(t *testing.T) {
	pd := NewPD(2, 0)

	got := pd.Compute(0.5, 1.0)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestDerivativeFirstCallIsZero(t *testing.T) {
	pd := NewPD(0, 5)

	// No previous error on the first call, so kd contributes nothing.
	if got := pd.Compute(0, 1); got != 0 {
		t.Errorf("expected 0 on first call, got %f", got)
	}

	// Error unchanged between calls also contributes nothing.
	if got := pd.Compute(0, 1); got != 0 {
		t.Errorf("expected 0 for constant error, got %f", got)
	}
}

func TestDerivativeTracksErrorRate(t *testing.T) {
	pd := NewPDWithPeriod(0, 1, 0.02)

	pd.Compute(0, 1)          // err = 1
	got := pd.Compute(0.5, 1) // err = 0.5, d(err)/dt = -25

	if math.Abs(got-(-25)) > 1e-9 {
		t.Errorf("expected -25, got %f", got)
	}
}

func TestGainHotSwap(t *testing.T) {
	pd := NewPD(1, 0)

	pd.Compute(0, 1)
	pd.SetP(10)

	// New gain applies on the very next call; the previous-error state is
	// preserved so the derivative term sees no discontinuity.
	got := pd.Compute(0, 1)
	if math.Abs(got-10) > 1e-12 {
		t.Errorf("expected 10 with new gain, got %f", got)
	}

	pd.SetGains(10, 100)
	got = pd.Compute(0, 1) // error still constant, derivative still zero
	if math.Abs(got-10) > 1e-12 {
		t.Errorf("expected no derivative kick after SetGains, got %f", got)
	}
}

func TestNonFiniteInputs(t *testing.T) {
	pd := NewPD(3, 1)

	pd.Compute(0, 1) // latch prevErr = 1

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := pd.Compute(bad, 1); got != 0 {
			t.Errorf("expected 0 for bad measurement, got %f", got)
		}
		if got := pd.Compute(0, bad); got != 0 {
			t.Errorf("expected 0 for bad setpoint, got %f", got)
		}
	}

	// Derivative state survived the bad inputs.
	got := pd.Compute(0, 1)
	if math.Abs(got-3) > 1e-12 {
		t.Errorf("expected 3 after recovery, got %f", got)
	}
}

func TestReset(t *testing.T) {
	pd := NewPD(0, 4)

	pd.Compute(0, 2)
	pd.Reset()

	// After reset the next call is a first call again: no derivative term.
	if got := pd.Compute(0, 1); got != 0 {
		t.Errorf("expected 0 after reset, got %f", got)
	}
}
