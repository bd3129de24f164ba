// Package hardware defines the actuator/sensor seam between the control loop
// and whatever drives the joint. Real and simulated backends implement the
// same pair of interfaces and are interchangeable from the controller's point
// of view.
package hardware

// MotorActuator applies a voltage command to the joint motor. It reports no
// feedback of its own.
type MotorActuator interface {
	SetVoltage(volts float64)
	Stop()
}

// PositionSensor reports the current joint angle and angular velocity.
type PositionSensor interface {
	AngleRad() float64
	VelocityRadPerSec() float64
}

// ActuatorSensor is the full capability set a backend provides.
type ActuatorSensor interface {
	MotorActuator
	PositionSensor
	Close() error
}
