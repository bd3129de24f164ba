package motor

import "math"

// Characteristic models a DC motor gearbox as a linear torque/speed curve.
// Derived constants follow the usual conventions: R from the stall point,
// Kv from the free-speed point, Kt from stall torque over stall current.
type Characteristic struct {
	NominalVolts       float64
	StallTorqueNm      float64
	StallCurrentAmps   float64
	FreeCurrentAmps    float64
	FreeSpeedRadPerSec float64
	Count              int

	ResistanceOhms     float64
	KvRadPerSecPerVolt float64
	KtNmPerAmp         float64
}

func New(nominalVolts, stallTorqueNm, stallCurrentAmps, freeCurrentAmps, freeSpeedRadPerSec float64, count int) Characteristic {
	if count < 1 {
		count = 1
	}
	r := nominalVolts / stallCurrentAmps
	return Characteristic{
		NominalVolts:       nominalVolts,
		StallTorqueNm:      stallTorqueNm * float64(count),
		StallCurrentAmps:   stallCurrentAmps * float64(count),
		FreeCurrentAmps:    freeCurrentAmps * float64(count),
		FreeSpeedRadPerSec: freeSpeedRadPerSec,
		Count:              count,
		ResistanceOhms:     r / float64(count),
		KvRadPerSecPerVolt: freeSpeedRadPerSec / (nominalVolts - freeCurrentAmps*r),
		KtNmPerAmp:         stallTorqueNm / stallCurrentAmps,
	}
}

// Current returns the winding current at a given motor-shaft speed and
// applied voltage. Negative when back-EMF exceeds the applied voltage.
func (c Characteristic) Current(speedRadPerSec, volts float64) float64 {
	return (volts - speedRadPerSec/c.KvRadPerSecPerVolt) / c.ResistanceOhms
}

// Torque returns the shaft torque produced by a given winding current.
func (c Characteristic) Torque(currentAmps float64) float64 {
	return c.KtNmPerAmp * currentAmps
}

// TorqueAt combines Current and Torque for a speed/voltage operating point.
func (c Characteristic) TorqueAt(speedRadPerSec, volts float64) float64 {
	return c.Torque(c.Current(speedRadPerSec, volts))
}

const rpmToRadPerSec = 2 * math.Pi / 60

// Vex775Pro returns the characteristic for a gearbox of count 775pro motors.
func Vex775Pro(count int) Characteristic {
	return New(12, 0.71, 134, 0.7, 18730*rpmToRadPerSec, count)
}

// CIM returns the characteristic for a gearbox of count CIM motors.
func CIM(count int) Characteristic {
	return New(12, 2.42, 133, 2.7, 5310*rpmToRadPerSec, count)
}

// NEO returns the characteristic for a gearbox of count NEO brushless motors.
func NEO(count int) Characteristic {
	return New(12, 2.6, 105, 1.8, 5676*rpmToRadPerSec, count)
}

// Falcon500 returns the characteristic for a gearbox of count Falcon 500
// integrated brushless motors.
func Falcon500(count int) Characteristic {
	return New(12, 4.69, 257, 1.5, 6380*rpmToRadPerSec, count)
}
