// Package sim assembles the physics model, the simulated backend and the arm
// controller into a runnable closed-loop session.
package sim

import (
	"context"
	"time"

	"github.com/san-kum/armsim/internal/arm"
	"github.com/san-kum/armsim/internal/config"
	"github.com/san-kum/armsim/internal/hardware"
	"github.com/san-kum/armsim/internal/metrics"
	"github.com/san-kum/armsim/internal/physics"
	"github.com/san-kum/armsim/internal/telemetry"
)

// Session owns one arm plus its simulated plant for the duration of a run.
// It sits between the arm and the caller's telemetry sink, recording every
// frame and feeding the metrics before forwarding.
type Session struct {
	cfg     *config.Config
	arm     *arm.Arm
	backend *hardware.SimulatedArm
	sink    telemetry.Sink
	metrics []metrics.Metric
	frames  []telemetry.Frame
	seed    int64
}

func NewSession(cfg *config.Config, sink telemetry.Sink) (*Session, error) {
	params, err := cfg.PhysicsParams()
	if err != nil {
		return nil, err
	}
	model, err := physics.New(params)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if sink == nil {
		sink = telemetry.Nop{}
	}

	s := &Session{cfg: cfg, sink: sink, seed: seed}
	s.backend = hardware.NewSimulatedArm(model, cfg.StartState(), cfg.Arm.NoiseStdDevRad, seed)
	s.arm = arm.New(arm.Config{
		Name:        cfg.Name,
		SetpointDeg: cfg.SetpointDeg,
		Kp:          cfg.Control.Kp,
		Kd:          cfg.Control.Kd,
		MinAngleRad: params.MinAngleRad,
		MaxAngleRad: params.MaxAngleRad,
		Telemetry:   s,
	}, s.backend)

	return s, nil
}

func (s *Session) AddMetric(m metrics.Metric) {
	m.Reset()
	s.metrics = append(s.metrics, m)
}

// Publish implements telemetry.Sink between the arm and the real sink.
func (s *Session) Publish(name string, f telemetry.Frame) error {
	s.frames = append(s.frames, f)
	for _, m := range s.metrics {
		m.Observe(f)
	}
	return s.sink.Publish(name, f)
}

func (s *Session) Close() error { return s.sink.Close() }

// Step runs one control plus one simulation cycle.
func (s *Session) Step() {
	s.arm.ControlStep()
	s.arm.SimulationStep(s.cfg.Dt)
}

// Run executes the configured duration, stops the motor, and releases the
// arm. The partial trace survives cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer s.arm.Close()

	steps := int(s.cfg.Duration / s.cfg.Dt)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Step()
	}
	return nil
}

func (s *Session) Arm() *arm.Arm                   { return s.arm }
func (s *Session) Config() *config.Config          { return s.cfg }
func (s *Session) Backend() *hardware.SimulatedArm { return s.backend }
func (s *Session) Frames() []telemetry.Frame       { return s.frames }
func (s *Session) Seed() int64                     { return s.seed }

// MetricValues reports every registered metric by name.
func (s *Session) MetricValues() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
