// Package runner drives a robot program's periodic callbacks at a fixed
// cadence, standing in for the scheduler a real robot framework provides.
package runner

import (
	"context"
	"fmt"
	"time"
)

// DefaultPeriod is the nominal loop period. The arm dynamics are discretized
// for this step size; much larger steps risk integration divergence near
// gravity-dominated poses.
const DefaultPeriod = 20 * time.Millisecond

// Robot is the lifecycle a Runner manages: Init once, the two periodic
// callbacks every cycle, Close exactly once on the way out.
type Robot interface {
	Init() error
	ControlPeriodic()
	SimulationPeriodic(dtSec float64)
	Close() error
}

type Runner struct {
	robot  Robot
	period time.Duration
}

func New(robot Robot, period time.Duration) *Runner {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Runner{robot: robot, period: period}
}

// Run executes the periodic loop in real time until the context is canceled.
// The robot is closed on every exit path.
func (r *Runner) Run(ctx context.Context) (err error) {
	if err := r.robot.Init(); err != nil {
		return fmt.Errorf("runner: init: %w", err)
	}
	defer func() {
		if closeErr := r.robot.Close(); err == nil {
			err = closeErr
		}
	}()

	dt := r.period.Seconds()
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.robot.ControlPeriodic()
			r.robot.SimulationPeriodic(dt)
		}
	}
}

// Steps executes n cycles back to back without sleeping, for batch runs and
// tests. each may be nil; when set it is called after every cycle.
func (r *Runner) Steps(n int, each func(step int)) (err error) {
	if err := r.robot.Init(); err != nil {
		return fmt.Errorf("runner: init: %w", err)
	}
	defer func() {
		if closeErr := r.robot.Close(); err == nil {
			err = closeErr
		}
	}()

	dt := r.period.Seconds()
	for i := 0; i < n; i++ {
		r.robot.ControlPeriodic()
		r.robot.SimulationPeriodic(dt)
		if each != nil {
			each(i)
		}
	}
	return nil
}
