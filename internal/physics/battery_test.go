package physics

import (
	"math"
	"testing"
)

func TestLoadedBatteryVoltage(t *testing.T) {
	if v := LoadedBatteryVoltage(); v != nominalBatteryVolts {
		t.Errorf("no load: expected %f, got %f", nominalBatteryVolts, v)
	}

	v := LoadedBatteryVoltage(50, 50)
	want := nominalBatteryVolts - 100*batteryResistanceOhms
	if math.Abs(v-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, v)
	}

	// Regenerative (negative) current still loads the battery.
	if LoadedBatteryVoltage(-100) >= nominalBatteryVolts {
		t.Error("negative current should still sag the rail")
	}

	if LoadedBatteryVoltage(1e6) != 0 {
		t.Error("voltage must not go negative")
	}
}
