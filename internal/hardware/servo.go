package hardware

import (
	"context"
	"fmt"
	"math"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ServoConfig describes a single Feetech STS servo joint on a serial bus.
type ServoConfig struct {
	Port               string
	BaudRate           int
	ServoID            int
	CountsPerRev       int
	PeriodSec          float64
	FullScaleRadPerSec float64 // joint speed commanded at the full 12 V
}

func (c *ServoConfig) setDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = 1_000_000
	}
	if c.ServoID == 0 {
		c.ServoID = 1
	}
	if c.CountsPerRev == 0 {
		c.CountsPerRev = 4096
	}
	if c.PeriodSec == 0 {
		c.PeriodSec = 0.02
	}
	if c.FullScaleRadPerSec == 0 {
		c.FullScaleRadPerSec = 2.0
	}
}

// ServoArm drives a position-mode hobby servo through the voltage-command
// interface. The servo has no voltage input, so each SetVoltage call is
// treated as a velocity command proportional to voltage and integrated into
// the goal position at the configured period. Velocity readings come from a
// finite difference of consecutive position reads.
type ServoArm struct {
	cfg       ServoConfig
	bus       *feetech.Bus
	group     *feetech.ServoGroup
	goalRad   float64
	lastRad   float64
	lastVel   float64
	haveAngle bool
	err       error
}

func NewServoArm(cfg ServoConfig) (*ServoArm, error) {
	cfg.setDefaults()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open servo bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cfg.ServoID)
	if err := group.EnableAll(context.Background()); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable servo torque: %w", err)
	}

	a := &ServoArm{cfg: cfg, bus: bus, group: group}
	a.goalRad = a.AngleRad()
	return a, nil
}

func (a *ServoArm) countsToRad(counts int) float64 {
	return float64(counts) / float64(a.cfg.CountsPerRev) * 2 * math.Pi
}

func (a *ServoArm) radToCounts(rad float64) int {
	return int(rad / (2 * math.Pi) * float64(a.cfg.CountsPerRev))
}

// SetVoltage advances the goal position by one period's worth of the
// voltage-equivalent velocity and writes it to the servo.
func (a *ServoArm) SetVoltage(volts float64) {
	if math.IsNaN(volts) || math.IsInf(volts, 0) {
		volts = 0
	}
	vel := volts / 12.0 * a.cfg.FullScaleRadPerSec
	a.goalRad += vel * a.cfg.PeriodSec

	err := a.group.SetPositions(context.Background(), feetech.PositionMap{
		a.cfg.ServoID: a.radToCounts(a.goalRad),
	})
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("write servo position: %w", err)
	}
}

// Stop halts motion by re-targeting the current position.
func (a *ServoArm) Stop() {
	a.goalRad = a.AngleRad()
	a.SetVoltage(0)
}

func (a *ServoArm) AngleRad() float64 {
	positions, err := a.group.Positions(context.Background())
	if err != nil {
		if a.err == nil {
			a.err = fmt.Errorf("read servo position: %w", err)
		}
		return a.lastRad
	}

	rad := a.countsToRad(positions[a.cfg.ServoID])
	if a.haveAngle {
		a.lastVel = (rad - a.lastRad) / a.cfg.PeriodSec
	}
	a.lastRad = rad
	a.haveAngle = true
	return rad
}

func (a *ServoArm) VelocityRadPerSec() float64 { return a.lastVel }

// Err reports the first bus failure seen since construction.
func (a *ServoArm) Err() error { return a.err }

// Close releases torque and the serial port. Safe to call once per arm.
func (a *ServoArm) Close() error {
	disableErr := a.group.DisableAll(context.Background())
	closeErr := a.bus.Close()
	if disableErr != nil {
		return disableErr
	}
	return closeErr
}
