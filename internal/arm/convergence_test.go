package arm_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/armsim/internal/arm"
	"github.com/san-kum/armsim/internal/hardware"
	"github.com/san-kum/armsim/internal/motor"
	"github.com/san-kum/armsim/internal/physics"
)

const (
	benchDt           = 0.02
	benchMinAngle     = -75 * math.Pi / 180
	benchMaxAngle     = 255 * math.Pi / 180
	degPerRad         = 180 / math.Pi
	angleToleranceDeg = 2.0
)

// benchArm builds the reference rig: a 0.762 m, 8 kg arm on a 200:1 gearbox
// driven by two 775pro motors.
func benchArm(kp, kd, setpointDeg, gravity, noiseStdDev float64) (*arm.Arm, *hardware.SimulatedArm) {
	model, err := physics.New(physics.Params{
		Gearing:         200,
		MomentOfInertia: physics.EstimateMOI(0.762, 8),
		ArmLengthM:      0.762,
		ArmMassKg:       8,
		Motor:           motor.Vex775Pro(2),
		GravityMPerSec2: gravity,
		MinAngleRad:     benchMinAngle,
		MaxAngleRad:     benchMaxAngle,
	})
	Expect(err).NotTo(HaveOccurred())

	backend := hardware.NewSimulatedArm(model, physics.State{}, noiseStdDev, 7)
	a := arm.New(arm.Config{
		SetpointDeg: setpointDeg,
		Kp:          kp,
		Kd:          kd,
		MinAngleRad: benchMinAngle,
		MaxAngleRad: benchMaxAngle,
	}, backend)
	return a, backend
}

func runCycles(a *arm.Arm, n int) {
	for i := 0; i < n; i++ {
		a.ControlStep()
		a.SimulationStep(benchDt)
	}
}

var _ = Describe("closed-loop convergence", func() {
	It("reaches a 45 degree setpoint within tolerance in 300 cycles", func() {
		a, backend := benchArm(40, 4, 45, 0, 0)
		defer a.Close()

		runCycles(a, 300)

		angleDeg := backend.TrueState().AngleRad * degPerRad
		Expect(angleDeg).To(BeNumerically("~", 45, angleToleranceDeg))
		Expect(math.Abs(backend.TrueState().VelocityRadPerSec)).To(BeNumerically("<", 0.1))
	})

	It("holds the setpoint against gravity and sensor noise", func() {
		a, backend := benchArm(40, 4, 45, 9.81, 0.00048)
		defer a.Close()

		runCycles(a, 300)

		angleDeg := backend.TrueState().AngleRad * degPerRad
		Expect(angleDeg).To(BeNumerically("~", 45, angleToleranceDeg))
		// Holding against gravity needs a sustained nonzero command.
		Expect(math.Abs(a.CommandedVolts())).To(BeNumerically(">", 0.1))
	})

	It("re-converges after a setpoint step", func() {
		a, backend := benchArm(40, 4, 45, 9.81, 0)
		defer a.Close()

		runCycles(a, 300)
		a.SetSetpointDegrees(90)
		runCycles(a, 300)

		angleDeg := backend.TrueState().AngleRad * degPerRad
		Expect(angleDeg).To(BeNumerically("~", 90, angleToleranceDeg))
	})

	It("lets the arm fall under gravity once stopped", func() {
		a, backend := benchArm(40, 4, 45, 9.81, 0)
		defer a.Close()

		runCycles(a, 300)
		held := backend.TrueState().AngleRad

		a.Stop()
		for i := 0; i < 300; i++ {
			a.SimulationStep(benchDt)
		}

		Expect(a.CommandedVolts()).To(BeZero())
		Expect(backend.TrueState().AngleRad).To(BeNumerically("<", held-0.1))
	})
})
