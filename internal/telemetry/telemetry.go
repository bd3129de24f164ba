// Package telemetry publishes arm state for display. Sinks are best effort:
// the control loop reports into them once per cycle and ignores failures.
package telemetry

// Frame is the composite value published once per control/simulation cycle.
type Frame struct {
	TimeSec           float64
	AngleRad          float64
	SetpointRad       float64
	VelocityRadPerSec float64
	Volts             float64
	CurrentAmps       float64
	BatteryVolts      float64
}

type Sink interface {
	Publish(name string, f Frame) error
	Close() error
}

// Nop discards every frame.
type Nop struct{}

func (Nop) Publish(string, Frame) error { return nil }
func (Nop) Close() error                { return nil }
