// Package routine runs scripted setpoint sequences and batch robustness
// trials against simulated arm sessions.
package routine

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/armsim/internal/metrics"
	"github.com/san-kum/armsim/internal/sim"
)

// Routine is a scripted sequence of moves, loaded from YAML.
type Routine struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step drives the arm to a setpoint and holds it for the duration. Zero
// gains keep whatever the arm is currently tuned to.
type Step struct {
	SetpointDeg float64 `yaml:"setpoint_deg"`
	DurationSec float64 `yaml:"duration_sec"`
	Kp          float64 `yaml:"kp"`
	Kd          float64 `yaml:"kd"`
}

func Load(path string) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Routine
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse routine %s: %w", path, err)
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("routine %s has no steps", path)
	}
	for i, s := range r.Steps {
		if s.DurationSec <= 0 {
			return nil, fmt.Errorf("routine %s: step %d has no duration", path, i+1)
		}
	}
	return &r, nil
}

// Run plays the routine against the session one control cycle at a time,
// stopping and releasing the arm when done. The session keeps the full trace
// across all steps, including a partial one on cancellation.
func (r *Routine) Run(ctx context.Context, s *sim.Session) error {
	defer s.Arm().Close()

	dt := s.Config().Dt
	for i, step := range r.Steps {
		if step.Kp > 0 {
			s.Arm().SetProportionalGain(step.Kp)
		}
		if step.Kd > 0 {
			s.Arm().SetDerivativeGain(step.Kd)
		}
		s.Arm().SetSetpointDegrees(step.SetpointDeg)

		cycles := int(step.DurationSec / dt)
		for c := 0; c < cycles; c++ {
			select {
			case <-ctx.Done():
				return fmt.Errorf("step %d: %w", i+1, ctx.Err())
			default:
			}
			s.Step()
		}
	}
	return nil
}

// MonteCarlo measures how reliably a tuning settles when the start pose is
// perturbed. Each trial draws a uniform offset in [-PerturbationDeg,
// +PerturbationDeg] and runs a fresh session built by the caller.
type MonteCarlo struct {
	Trials          int
	PerturbationDeg float64
	ToleranceRad    float64
	Seed            int64
}

type TrialResult struct {
	Trial           int
	OffsetDeg       float64
	SettlingTimeSec float64 // -1 when the trial never settled
}

// Run executes all trials and returns per-trial results plus the count that
// settled. The base callback builds a session with the given start-angle
// offset applied.
func (m *MonteCarlo) Run(ctx context.Context, base func(offsetDeg float64) (*sim.Session, error)) ([]TrialResult, int, error) {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]TrialResult, 0, m.Trials)
	settled := 0
	for trial := 0; trial < m.Trials; trial++ {
		offset := (rng.Float64() - 0.5) * 2 * m.PerturbationDeg

		s, err := base(offset)
		if err != nil {
			return results, settled, fmt.Errorf("trial %d: %w", trial+1, err)
		}
		settling := metrics.NewSettlingTime(m.ToleranceRad)
		s.AddMetric(settling)

		if err := s.Run(ctx); err != nil {
			return results, settled, fmt.Errorf("trial %d: %w", trial+1, err)
		}

		r := TrialResult{Trial: trial, OffsetDeg: offset, SettlingTimeSec: settling.Value()}
		if r.SettlingTimeSec >= 0 {
			settled++
		}
		results = append(results, r)
	}
	return results, settled, nil
}
