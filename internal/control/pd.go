// Package control implements the feedback law that drives the arm motor.
package control

import (
	"math"
	"sync"
)

const DefaultPeriodSec = 0.02

// PD is a proportional-derivative position controller. The derivative term is
// estimated from consecutive Compute calls, which the caller must make at the
// configured fixed period. Gains may be swapped from another goroutine; they
// take effect on the next Compute call.
type PD struct {
	mu        sync.Mutex
	kp        float64
	kd        float64
	periodSec float64
	prevErr   float64
	first     bool
}

func NewPD(kp, kd float64) *PD {
	return &PD{
		kp:        kp,
		kd:        kd,
		periodSec: DefaultPeriodSec,
		first:     true,
	}
}

// NewPDWithPeriod sets an explicit call period for the derivative estimate.
func NewPDWithPeriod(kp, kd, periodSec float64) *PD {
	p := NewPD(kp, kd)
	if periodSec > 0 {
		p.periodSec = periodSec
	}
	return p
}

// Compute returns the voltage command for the current measurement and
// setpoint, both in radians. Output is not clamped; saturation belongs to the
// actuator. Non-finite inputs yield 0 V and leave the derivative state
// untouched.
func (p *PD) Compute(measurementRad, setpointRad float64) float64 {
	if isBad(measurementRad) || isBad(setpointRad) {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := setpointRad - measurementRad

	if p.first {
		p.prevErr = err
		p.first = false
		return p.kp * err
	}

	derivative := (err - p.prevErr) / p.periodSec
	p.prevErr = err

	return p.kp*err + p.kd*derivative
}

// SetGains replaces both gains at once.
func (p *PD) SetGains(kp, kd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kp = kp
	p.kd = kd
}

func (p *PD) SetP(kp float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kp = kp
}

func (p *PD) SetD(kd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kd = kd
}

func (p *PD) Gains() (kp, kd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kp, p.kd
}

// Reset clears the derivative state so the next Compute behaves like the
// first call.
func (p *PD) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prevErr = 0
	p.first = true
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
