package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/armsim/internal/motor"
)

// State is the true pose of the arm joint.
type State struct {
	AngleRad          float64
	VelocityRadPerSec float64
}

func (s State) IsValid() bool {
	return !math.IsNaN(s.AngleRad) && !math.IsInf(s.AngleRad, 0) &&
		!math.IsNaN(s.VelocityRadPerSec) && !math.IsInf(s.VelocityRadPerSec, 0)
}

// Params are the physical constants of a single-jointed arm. Immutable once
// handed to New.
type Params struct {
	Gearing         float64 // output rotations per motor rotation, > 1 reduces speed
	MomentOfInertia float64 // kg m^2 about the pivot
	ArmLengthM      float64
	ArmMassKg       float64
	Motor           motor.Characteristic
	GravityMPerSec2 float64 // 0 disables gravity torque
	MinAngleRad     float64
	MaxAngleRad     float64
}

// Model advances arm state under an applied motor voltage. All methods are
// pure over the explicit state; Model itself holds no mutable fields.
type Model struct {
	p Params
}

func New(p Params) (*Model, error) {
	if p.Gearing <= 0 {
		return nil, fmt.Errorf("physics: gearing must be positive, got %f", p.Gearing)
	}
	if p.MomentOfInertia <= 0 {
		return nil, fmt.Errorf("physics: moment of inertia must be positive, got %f", p.MomentOfInertia)
	}
	if p.ArmLengthM <= 0 {
		return nil, fmt.Errorf("physics: arm length must be positive, got %f", p.ArmLengthM)
	}
	if p.ArmMassKg < 0 {
		return nil, fmt.Errorf("physics: arm mass must be non-negative, got %f", p.ArmMassKg)
	}
	if p.MinAngleRad >= p.MaxAngleRad {
		return nil, fmt.Errorf("physics: min angle %f must be below max angle %f", p.MinAngleRad, p.MaxAngleRad)
	}
	if p.Motor.StallCurrentAmps == 0 {
		return nil, fmt.Errorf("physics: motor characteristic not set")
	}
	return &Model{p: p}, nil
}

func (m *Model) Params() Params { return m.p }

// EstimateMOI returns the moment of inertia of a uniform rod pivoting about
// one end.
func EstimateMOI(lengthM, massKg float64) float64 {
	return massKg * lengthM * lengthM / 3
}

// AngularAccel returns the net angular acceleration at a state and voltage.
// Motor torque uses the DC-motor curve reflected through the gearbox; gravity
// acts on the arm's center of mass at half length.
func (m *Model) AngularAccel(s State, volts float64) float64 {
	motorSpeed := s.VelocityRadPerSec * m.p.Gearing
	motorTorque := m.p.Motor.TorqueAt(motorSpeed, volts) * m.p.Gearing
	gravityTorque := -m.p.ArmMassKg * m.p.GravityMPerSec2 * (m.p.ArmLengthM / 2) * math.Cos(s.AngleRad)
	return (motorTorque + gravityTorque) / m.p.MomentOfInertia
}

// Step integrates one fixed timestep with semi-implicit Euler: velocity is
// updated first, then position uses the new velocity. Hitting a travel limit
// clamps the angle and zeroes velocity (inelastic hard stop). A non-finite
// voltage is treated as 0 so bad commands cannot poison the state.
func (m *Model) Step(s State, volts, dt float64) State {
	if math.IsNaN(volts) || math.IsInf(volts, 0) {
		volts = 0
	}

	accel := m.AngularAccel(s, volts)
	next := State{
		VelocityRadPerSec: s.VelocityRadPerSec + accel*dt,
	}
	next.AngleRad = s.AngleRad + next.VelocityRadPerSec*dt

	if next.AngleRad <= m.p.MinAngleRad {
		next.AngleRad = m.p.MinAngleRad
		next.VelocityRadPerSec = 0
	} else if next.AngleRad >= m.p.MaxAngleRad {
		next.AngleRad = m.p.MaxAngleRad
		next.VelocityRadPerSec = 0
	}
	return next
}

// CurrentDrawAmps returns the battery current drawn at a state and voltage,
// signed by the commanded voltage. Consistent with the torque relation used
// in Step.
func (m *Model) CurrentDrawAmps(s State, volts float64) float64 {
	motorSpeed := s.VelocityRadPerSec * m.p.Gearing
	current := m.p.Motor.Current(motorSpeed, volts)
	if volts < 0 {
		return -current
	}
	return current
}
