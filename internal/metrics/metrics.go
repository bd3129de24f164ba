// Package metrics scores closed-loop arm runs. Metrics observe the telemetry
// frame once per cycle and report a single value at the end of a run.
package metrics

import (
	"math"

	"github.com/san-kum/armsim/internal/telemetry"
)

type Metric interface {
	Name() string
	Observe(f telemetry.Frame)
	Value() float64
	Reset()
}

// SettlingTime reports the time after which the angle error stayed inside the
// tolerance band for the rest of the run. -1 when the run never settled.
type SettlingTime struct {
	toleranceRad  float64
	lastViolation float64
	settled       bool
}

func NewSettlingTime(toleranceRad float64) *SettlingTime {
	return &SettlingTime{toleranceRad: toleranceRad, lastViolation: -1}
}

func (s *SettlingTime) Name() string { return "settling_time" }

func (s *SettlingTime) Observe(f telemetry.Frame) {
	if math.Abs(f.SetpointRad-f.AngleRad) > s.toleranceRad {
		s.lastViolation = f.TimeSec
		s.settled = false
	} else {
		s.settled = true
	}
}

func (s *SettlingTime) Value() float64 {
	if !s.settled {
		return -1
	}
	return s.lastViolation
}

func (s *SettlingTime) Reset() {
	s.lastViolation = -1
	s.settled = false
}

// ControlEffort reports the mean magnitude of the commanded voltage.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(f telemetry.Frame) {
	c.sum += math.Abs(f.Volts)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Overshoot reports the peak excursion past the setpoint, in radians, on the
// approach side seen at the first observation. 0 when the arm never crossed.
type Overshoot struct {
	first bool
	sign  float64
	peak  float64
}

func NewOvershoot() *Overshoot { return &Overshoot{first: true} }

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(f telemetry.Frame) {
	err := f.SetpointRad - f.AngleRad
	if o.first {
		o.first = false
		o.sign = 1
		if err < 0 {
			o.sign = -1
		}
	}
	// Crossing means the error changed sign relative to the approach.
	if excursion := -err * o.sign; excursion > o.peak {
		o.peak = excursion
	}
}

func (o *Overshoot) Value() float64 { return o.peak }

func (o *Overshoot) Reset() {
	o.first = true
	o.sign = 0
	o.peak = 0
}
