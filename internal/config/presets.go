package config

func preset(mutate func(*Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]*Config{
	// The stock arm holding level against gravity.
	"level": preset(func(c *Config) {
		c.SetpointDeg = 0
		c.Arm.StartAngleDeg = -75
	}),
	// Reach up to a high shelf from rest.
	"high-shelf": preset(func(c *Config) {
		c.SetpointDeg = 110
		c.Control.Kp = 60
		c.Control.Kd = 5
	}),
	// Double the payload; needs a stiffer loop.
	"heavy": preset(func(c *Config) {
		c.Arm.MassKg = 16
		c.Control.Kp = 90
		c.Control.Kd = 8
	}),
	// Gravity-free bench configuration used for controller characterization.
	"bench": preset(func(c *Config) {
		c.Arm.Gravity = false
		c.Arm.NoiseStdDevRad = 0
		c.SetpointDeg = 45
		c.Control.Kp = 40
		c.Control.Kd = 4
	}),
}

// GetPreset returns a copy of the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	c, ok := Presets[name]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
