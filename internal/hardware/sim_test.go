package hardware

import (
	"math"
	"testing"

	"github.com/san-kum/armsim/internal/motor"
	"github.com/san-kum/armsim/internal/physics"
)

func testModel(t *testing.T) *physics.Model {
	t.Helper()
	length := 0.762
	mass := 8.0
	m, err := physics.New(physics.Params{
		Gearing:         200,
		MomentOfInertia: physics.EstimateMOI(length, mass),
		ArmLengthM:      length,
		ArmMassKg:       mass,
		Motor:           motor.Vex775Pro(2),
		GravityMPerSec2: 0,
		MinAngleRad:     -math.Pi,
		MaxAngleRad:     math.Pi,
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func TestVoltageOnlyAppliesOnAdvance(t *testing.T) {
	arm := NewSimulatedArm(testModel(t), physics.State{}, 0, 1)

	arm.SetVoltage(6)
	if arm.AngleRad() != 0 || arm.VelocityRadPerSec() != 0 {
		t.Error("state moved before Advance")
	}

	arm.Advance(0.02)
	if arm.VelocityRadPerSec() == 0 {
		t.Error("state did not move after Advance")
	}
}

func TestStopZeroesCommand(t *testing.T) {
	arm := NewSimulatedArm(testModel(t), physics.State{}, 0, 1)

	arm.SetVoltage(6)
	arm.Stop()
	if arm.Voltage() != 0 {
		t.Errorf("expected 0 V after stop, got %f", arm.Voltage())
	}

	// With no command and no gravity the arm coasts; current draw is pure
	// back-EMF braking, negative while still moving forward.
	arm.Advance(0.02)
	if arm.Voltage() != 0 {
		t.Error("advance must not resurrect the old command")
	}
}

func TestNoiseBoundAndPurity(t *testing.T) {
	const stdDev = 0.01
	arm := NewSimulatedArm(testModel(t), physics.State{AngleRad: 0.5}, stdDev, 42)

	for i := 0; i < 10000; i++ {
		reading := arm.AngleRad()
		if math.Abs(reading-0.5) > 5*stdDev {
			t.Fatalf("sample %d: reading %f exceeds 5 sigma from true angle", i, reading)
		}
	}

	// Read noise never leaks into the true state.
	if got := arm.TrueState().AngleRad; got != 0.5 {
		t.Errorf("true angle drifted to %f", got)
	}
}

func TestNoiseIsSeededDeterministic(t *testing.T) {
	a := NewSimulatedArm(testModel(t), physics.State{}, 0.01, 7)
	b := NewSimulatedArm(testModel(t), physics.State{}, 0.01, 7)

	for i := 0; i < 100; i++ {
		if a.AngleRad() != b.AngleRad() {
			t.Fatalf("sequences diverged at sample %d", i)
		}
	}
}

func TestVelocityReadingIsNoiseFree(t *testing.T) {
	arm := NewSimulatedArm(testModel(t), physics.State{VelocityRadPerSec: 1.25}, 0.05, 3)

	for i := 0; i < 100; i++ {
		if got := arm.VelocityRadPerSec(); got != 1.25 {
			t.Fatalf("expected exact velocity, got %f", got)
		}
	}
}

func TestCurrentDrawMatchesModel(t *testing.T) {
	model := testModel(t)
	arm := NewSimulatedArm(model, physics.State{}, 0, 1)

	arm.SetVoltage(4)
	want := model.CurrentDrawAmps(physics.State{}, 4)
	if got := arm.CurrentDrawAmps(); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
}
