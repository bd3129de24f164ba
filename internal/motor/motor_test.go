package motor

import (
	"math"
	"testing"
)

func TestStallPoint(t *testing.T) {
	m := Vex775Pro(1)

	current := m.Current(0, m.NominalVolts)
	if math.Abs(current-m.StallCurrentAmps) > 1e-6 {
		t.Errorf("stall current: expected %f, got %f", m.StallCurrentAmps, current)
	}

	torque := m.Torque(current)
	if math.Abs(torque-m.StallTorqueNm) > 1e-6 {
		t.Errorf("stall torque: expected %f, got %f", m.StallTorqueNm, torque)
	}
}

func TestFreeSpeed(t *testing.T) {
	m := CIM(1)

	// At free speed the winding current drops to the free current.
	current := m.Current(m.FreeSpeedRadPerSec, m.NominalVolts)
	if math.Abs(current-m.FreeCurrentAmps) > 0.5 {
		t.Errorf("free current: expected ~%f, got %f", m.FreeCurrentAmps, current)
	}
}

func TestMultiMotorScaling(t *testing.T) {
	one := NEO(1)
	two := NEO(2)

	if math.Abs(two.StallTorqueNm-2*one.StallTorqueNm) > 1e-9 {
		t.Errorf("expected stall torque to double, got %f vs %f", two.StallTorqueNm, one.StallTorqueNm)
	}
	if math.Abs(two.FreeSpeedRadPerSec-one.FreeSpeedRadPerSec) > 1e-9 {
		t.Error("free speed should not change with motor count")
	}

	// Same operating point, twice the torque.
	torqueOne := one.TorqueAt(100, 6)
	torqueTwo := two.TorqueAt(100, 6)
	if math.Abs(torqueTwo-2*torqueOne) > 1e-9 {
		t.Errorf("expected doubled torque, got %f vs %f", torqueTwo, torqueOne)
	}
}

func TestBackEMFReversesCurrent(t *testing.T) {
	m := Vex775Pro(2)

	// Spinning faster than the applied voltage can sustain drives current negative.
	current := m.Current(m.FreeSpeedRadPerSec, 1.0)
	if current >= 0 {
		t.Errorf("expected negative current, got %f", current)
	}
}
