package hardware

import (
	"math/rand"

	"github.com/san-kum/armsim/internal/physics"
)

// SimulatedArm backs the actuator/sensor pair with the physics model. Setting
// a voltage only records it; the state moves when Advance is called, so the
// backend matches the two-phase control/simulation cadence of the real loop.
type SimulatedArm struct {
	model       *physics.Model
	state       physics.State
	volts       float64
	noiseStdDev float64
	rng         *rand.Rand
}

// Angle noise is clipped to this many standard deviations so a single read
// can never report a wild outlier.
const noiseClipSigma = 4

func NewSimulatedArm(model *physics.Model, initial physics.State, noiseStdDev float64, seed int64) *SimulatedArm {
	return &SimulatedArm{
		model:       model,
		state:       initial,
		noiseStdDev: noiseStdDev,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (a *SimulatedArm) SetVoltage(volts float64) { a.volts = volts }

func (a *SimulatedArm) Stop() { a.volts = 0 }

// Advance steps the physics model by dt using the last commanded voltage.
func (a *SimulatedArm) Advance(dtSec float64) {
	a.state = a.model.Step(a.state, a.volts, dtSec)
}

// AngleRad returns the true angle plus bounded Gaussian read noise. Noise is
// applied per read and never accumulates into the true state.
func (a *SimulatedArm) AngleRad() float64 {
	if a.noiseStdDev == 0 {
		return a.state.AngleRad
	}
	n := a.rng.NormFloat64() * a.noiseStdDev
	limit := noiseClipSigma * a.noiseStdDev
	if n > limit {
		n = limit
	} else if n < -limit {
		n = -limit
	}
	return a.state.AngleRad + n
}

// VelocityRadPerSec returns the true angular velocity. The reference encoder
// derives velocity internally, so this reading carries no noise.
func (a *SimulatedArm) VelocityRadPerSec() float64 { return a.state.VelocityRadPerSec }

// CurrentDrawAmps reports the battery current for the last commanded voltage.
func (a *SimulatedArm) CurrentDrawAmps() float64 {
	return a.model.CurrentDrawAmps(a.state, a.volts)
}

// TrueState exposes the noise-free state for telemetry and tests.
func (a *SimulatedArm) TrueState() physics.State { return a.state }

// Voltage returns the last commanded voltage.
func (a *SimulatedArm) Voltage() float64 { return a.volts }

func (a *SimulatedArm) Close() error { return nil }
