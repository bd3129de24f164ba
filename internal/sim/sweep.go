package sim

import (
	"context"
	"math"
	"sync"

	"github.com/san-kum/armsim/internal/metrics"
	"github.com/san-kum/armsim/internal/telemetry"
)

// GainSweep grid-searches kp/kd over a base configuration, scoring each pair
// by settling time. Runs execute in parallel; every run gets the same seed so
// the comparison is apples to apples.
type GainSweep struct {
	Kp []float64
	Kd []float64
}

type SweepResult struct {
	Kp           float64
	Kd           float64
	SettlingTime float64
	Overshoot    float64
}

// Run evaluates the full grid and returns all results plus the index of the
// best pair. Pairs that never settle score +Inf.
func (g *GainSweep) Run(ctx context.Context, base func() *Session, toleranceRad float64) ([]SweepResult, int, error) {
	results := make([]SweepResult, 0, len(g.Kp)*len(g.Kd))
	for _, kp := range g.Kp {
		for _, kd := range g.Kd {
			results = append(results, SweepResult{Kp: kp, Kd: kd})
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s := base()
			s.sink = telemetry.Nop{}
			s.arm.SetProportionalGain(results[idx].Kp)
			s.arm.SetDerivativeGain(results[idx].Kd)

			settling := metrics.NewSettlingTime(toleranceRad)
			overshoot := metrics.NewOvershoot()
			s.AddMetric(settling)
			s.AddMetric(overshoot)

			if err := s.Run(ctx); err != nil {
				errs[idx] = err
				return
			}
			results[idx].SettlingTime = settling.Value()
			results[idx].Overshoot = overshoot.Value()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, -1, err
		}
	}

	best := -1
	bestScore := math.Inf(1)
	for i, r := range results {
		score := r.SettlingTime
		if score < 0 {
			score = math.Inf(1)
		}
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return results, best, nil
}
