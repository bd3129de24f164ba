// Package arm ties the feedback controller, the actuator/sensor pair, the
// preference store and the telemetry sink into one periodic control cycle.
package arm

import (
	"math"
	"sync"

	"github.com/san-kum/armsim/internal/control"
	"github.com/san-kum/armsim/internal/hardware"
	"github.com/san-kum/armsim/internal/physics"
	"github.com/san-kum/armsim/internal/prefs"
	"github.com/san-kum/armsim/internal/telemetry"
)

const (
	// Preference keys, shared with whatever tuning UI writes them.
	SetpointKey = "arm/setpoint_deg"
	KpKey       = "arm/kp"

	DefaultSetpointDeg = 75.0
	DefaultKp          = 50.0
	DefaultKd          = 0.0
)

// Config carries the orchestrator's tunables. Prefs and Telemetry are
// optional collaborators.
type Config struct {
	Name        string
	SetpointDeg float64
	Kp          float64
	Kd          float64
	MinAngleRad float64
	MaxAngleRad float64
	Prefs       *prefs.Store
	Telemetry   telemetry.Sink
}

// simulated is the extra capability a simulation backend provides on top of
// the actuator/sensor pair.
type simulated interface {
	Advance(dtSec float64)
	CurrentDrawAmps() float64
	TrueState() physics.State
}

// Arm owns one controller and one actuator/sensor backend. An external
// scheduler calls ControlStep and, for simulated backends, SimulationStep at
// a fixed period. Setters are safe to call from a tuning goroutine.
type Arm struct {
	cfg  Config
	pd   *control.PD
	pair hardware.ActuatorSensor
	sim  simulated // nil when backed by real hardware
	sink telemetry.Sink

	mu             sync.Mutex
	setpointDeg    float64
	commandedVolts float64
	batteryVolts   float64
	timeSec        float64
	closed         bool
}

func New(cfg Config, pair hardware.ActuatorSensor) *Arm {
	if cfg.Name == "" {
		cfg.Name = "arm"
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.Nop{}
	}

	a := &Arm{
		cfg:          cfg,
		pd:           control.NewPD(cfg.Kp, cfg.Kd),
		pair:         pair,
		sink:         cfg.Telemetry,
		setpointDeg:  cfg.SetpointDeg,
		batteryVolts: physics.LoadedBatteryVoltage(),
	}
	if sim, ok := pair.(simulated); ok {
		a.sim = sim
	}

	// Seed the preference keys on first-ever run only; existing tuned values
	// always win.
	if cfg.Prefs != nil {
		cfg.Prefs.InitDouble(SetpointKey, cfg.SetpointDeg)
		cfg.Prefs.InitDouble(KpKey, cfg.Kp)
	}
	return a
}

// ControlStep runs one feedback cycle: read the sensor, compute the command
// for the current setpoint, drive the actuator, and remember the command for
// the simulation step.
func (a *Arm) ControlStep() {
	measurement := a.pair.AngleRad()
	setpointRad := a.SetpointDeg() * math.Pi / 180

	volts := a.pd.Compute(measurement, setpointRad)
	a.pair.SetVoltage(volts)

	a.mu.Lock()
	a.commandedVolts = volts
	a.mu.Unlock()
}

// SimulationStep advances the simulated plant by dt using the last commanded
// voltage, refreshes the battery estimate, and publishes telemetry. It is a
// no-op on real hardware. Telemetry failures are swallowed.
func (a *Arm) SimulationStep(dtSec float64) {
	if a.sim == nil {
		return
	}
	a.sim.Advance(dtSec)

	battery := physics.LoadedBatteryVoltage(a.sim.CurrentDrawAmps())
	state := a.sim.TrueState()

	a.mu.Lock()
	a.batteryVolts = battery
	a.timeSec += dtSec
	frame := telemetry.Frame{
		TimeSec:           a.timeSec,
		AngleRad:          state.AngleRad,
		SetpointRad:       a.setpointDeg * math.Pi / 180,
		VelocityRadPerSec: state.VelocityRadPerSec,
		Volts:             a.commandedVolts,
		CurrentAmps:       a.sim.CurrentDrawAmps(),
		BatteryVolts:      battery,
	}
	name := a.cfg.Name
	a.mu.Unlock()

	_ = a.sink.Publish(name, frame)
}

// Stop forces the motor command to zero. Idempotent; the plant state is left
// alone.
func (a *Arm) Stop() {
	a.pair.SetVoltage(0)
	a.mu.Lock()
	a.commandedVolts = 0
	a.mu.Unlock()
}

// SetSetpointDegrees updates the target angle. Values outside the travel
// limits are clamped to the nearest bound.
func (a *Arm) SetSetpointDegrees(deg float64) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return
	}
	if a.cfg.MinAngleRad < a.cfg.MaxAngleRad {
		minDeg := a.cfg.MinAngleRad * 180 / math.Pi
		maxDeg := a.cfg.MaxAngleRad * 180 / math.Pi
		deg = math.Max(minDeg, math.Min(maxDeg, deg))
	}
	a.mu.Lock()
	a.setpointDeg = deg
	a.mu.Unlock()
}

func (a *Arm) SetpointDeg() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setpointDeg
}

func (a *Arm) SetProportionalGain(kp float64) { a.pd.SetP(kp) }
func (a *Arm) SetDerivativeGain(kd float64)   { a.pd.SetD(kd) }

// CommandedVolts returns the last value written to the actuator.
func (a *Arm) CommandedVolts() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commandedVolts
}

// BatteryVolts returns the latest loaded-battery estimate.
func (a *Arm) BatteryVolts() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batteryVolts
}

// AttachPreferences wires a preference store after construction, seeding the
// keys on first-ever use.
func (a *Arm) AttachPreferences(p *prefs.Store) {
	a.cfg.Prefs = p
	p.InitDouble(SetpointKey, a.SetpointDeg())
	kp, _ := a.pd.Gains()
	p.InitDouble(KpKey, kp)
}

// ReloadPreferences re-reads the setpoint and proportional gain from the
// preference store, forwarding a changed kp to the controller.
func (a *Arm) ReloadPreferences() {
	if a.cfg.Prefs == nil {
		return
	}
	a.SetSetpointDegrees(a.cfg.Prefs.Double(SetpointKey, a.SetpointDeg()))

	kp, kd := a.pd.Gains()
	if stored := a.cfg.Prefs.Double(KpKey, kp); stored != kp {
		a.pd.SetGains(stored, kd)
	}
}

// Close stops the motor and releases the backend and telemetry handles.
// Subsequent calls are no-ops; the first error wins.
func (a *Arm) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.Stop()
	err := a.pair.Close()
	if sinkErr := a.sink.Close(); err == nil {
		err = sinkErr
	}
	return err
}
