package metrics

import (
	"math"

	"github.com/san-kum/armsim/internal/telemetry"
)

// Energy reports the peak mechanical energy of the arm over a run: rotational
// kinetic energy of a rod pivoted at its end plus the potential energy of its
// center of mass above the pivot plane.
type Energy struct {
	massKg    float64
	lengthM   float64
	gravity   float64
	peakJoule float64
}

func NewEnergy(massKg, lengthM, gravity float64) *Energy {
	return &Energy{massKg: massKg, lengthM: lengthM, gravity: gravity}
}

func (e *Energy) Name() string { return "peak_energy" }

func (e *Energy) Observe(f telemetry.Frame) {
	moi := e.massKg * e.lengthM * e.lengthM / 3
	ke := 0.5 * moi * f.VelocityRadPerSec * f.VelocityRadPerSec
	pe := e.massKg * e.gravity * (e.lengthM / 2) * math.Sin(f.AngleRad)
	if total := ke + pe; total > e.peakJoule {
		e.peakJoule = total
	}
}

func (e *Energy) Value() float64 { return e.peakJoule }

func (e *Energy) Reset() { e.peakJoule = 0 }
