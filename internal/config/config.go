package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/armsim/internal/motor"
	"github.com/san-kum/armsim/internal/physics"
)

const (
	DefaultDt          = 0.02
	DefaultDuration    = 10.0
	DefaultKp          = 50.0
	DefaultKd          = 0.0
	DefaultSetpointDeg = 75.0
)

type Config struct {
	Name        string        `yaml:"name"`
	Dt          float64       `yaml:"dt"`
	Duration    float64       `yaml:"duration"`
	Seed        int64         `yaml:"seed"`
	Arm         ArmConfig     `yaml:"arm"`
	Control     ControlConfig `yaml:"control"`
	SetpointDeg float64       `yaml:"setpoint_deg"`
}

type ArmConfig struct {
	Motor          string  `yaml:"motor"` // vex775pro, cim, neo or falcon500
	MotorCount     int     `yaml:"motor_count"`
	Gearing        float64 `yaml:"gearing"`
	LengthM        float64 `yaml:"length_m"`
	MassKg         float64 `yaml:"mass_kg"`
	MinAngleDeg    float64 `yaml:"min_angle_deg"`
	MaxAngleDeg    float64 `yaml:"max_angle_deg"`
	StartAngleDeg  float64 `yaml:"start_angle_deg"`
	Gravity        bool    `yaml:"gravity"`
	NoiseStdDevRad float64 `yaml:"noise_std_dev_rad"`
}

type ControlConfig struct {
	Kp float64 `yaml:"kp"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "arm",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Arm: ArmConfig{
			Motor:          "vex775pro",
			MotorCount:     2,
			Gearing:        200,
			LengthM:        0.762,
			MassKg:         8.0,
			MinAngleDeg:    -75,
			MaxAngleDeg:    255,
			StartAngleDeg:  0,
			Gravity:        true,
			NoiseStdDevRad: 0.00048, // one 4096-count encoder tick
		},
		Control: ControlConfig{
			Kp: DefaultKp,
			Kd: DefaultKd,
		},
		SetpointDeg: DefaultSetpointDeg,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PhysicsParams resolves the arm section into model parameters, including
// the motor preset lookup and the rod moment-of-inertia estimate.
func (c *Config) PhysicsParams() (physics.Params, error) {
	var characteristic motor.Characteristic
	count := c.Arm.MotorCount
	if count < 1 {
		count = 1
	}

	switch c.Arm.Motor {
	case "", "vex775pro":
		characteristic = motor.Vex775Pro(count)
	case "cim":
		characteristic = motor.CIM(count)
	case "neo":
		characteristic = motor.NEO(count)
	case "falcon500":
		characteristic = motor.Falcon500(count)
	default:
		return physics.Params{}, fmt.Errorf("config: unknown motor %q", c.Arm.Motor)
	}

	gravity := 0.0
	if c.Arm.Gravity {
		gravity = 9.81
	}

	return physics.Params{
		Gearing:         c.Arm.Gearing,
		MomentOfInertia: physics.EstimateMOI(c.Arm.LengthM, c.Arm.MassKg),
		ArmLengthM:      c.Arm.LengthM,
		ArmMassKg:       c.Arm.MassKg,
		Motor:           characteristic,
		GravityMPerSec2: gravity,
		MinAngleRad:     c.Arm.MinAngleDeg * math.Pi / 180,
		MaxAngleRad:     c.Arm.MaxAngleDeg * math.Pi / 180,
	}, nil
}

// StartState returns the initial pose for a simulated run.
func (c *Config) StartState() physics.State {
	return physics.State{AngleRad: c.Arm.StartAngleDeg * math.Pi / 180}
}
