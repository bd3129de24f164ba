// Package physics models the single-jointed arm plant.
//
// [Model] integrates the rigid-body dynamics of a rod driven through a
// gearbox by a DC motor:
//
//   - motor torque from the voltage/speed curve in [motor.Characteristic]
//   - gravity torque on the rod's center of mass
//   - hard travel stops that absorb all momentum
//
// Integration is semi-implicit Euler at a fixed timestep: [Model.Step]
// updates the velocity from the acceleration first, then the angle from the
// new velocity, then applies the travel stops.
//
//	model, _ := physics.New(params)
//	next := model.Step(state, volts, 0.02)
//
// [LoadedBatteryVoltage] estimates how far the supply sags under the motor's
// current draw.
package physics
