package physics

const (
	nominalBatteryVolts   = 12.0
	batteryResistanceOhms = 0.020
)

// LoadedBatteryVoltage estimates the rail voltage of a nominal 12 V battery
// under the given current draws. Never returns below 0.
func LoadedBatteryVoltage(currentsAmps ...float64) float64 {
	total := 0.0
	for _, c := range currentsAmps {
		if c < 0 {
			c = -c
		}
		total += c
	}
	v := nominalBatteryVolts - total*batteryResistanceOhms
	if v < 0 {
		return 0
	}
	return v
}
