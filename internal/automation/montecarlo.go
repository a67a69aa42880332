package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

// MonteCarlo perturbs the geometry, mass and torque of a linkage by up to
// ±Perturbation (relative) and tracks the first crossing of one component.
type MonteCarlo struct {
	Base         mechanism.Params
	Perturbation float64
	Trials       int
	Seed         int64
	Grid         sim.Grid
	Solver       rootfind.Params
	Component    mechanism.Component
}

type MonteCarloResult struct {
	Trial  int
	Params mechanism.Params
	// Time of the first crossing; Found is false when the component keeps
	// its sign over the grid or the crossing exhausted the solver budget,
	// the latter marked Unconverged.
	Time        float64
	Found       bool
	Unconverged bool
}

type MonteCarloSummary struct {
	Trials      int
	Found       int
	Unconverged int
	Mean        float64
	Std         float64
	Min         float64
	Max         float64
}

var perturbed = []string{"ab", "bc", "cd", "de", "mass", "radius", "torque"}

func (r *Runner) RunMonteCarlo(ctx context.Context, mc MonteCarlo) ([]MonteCarloResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("need at least 1 trial, got %d", mc.Trials)
	}
	if mc.Perturbation < 0 || mc.Perturbation >= 1 {
		return nil, fmt.Errorf("perturbation must be in [0, 1), got %g", mc.Perturbation)
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, mc.Trials)
	for trial := 0; trial < mc.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		l, err := mechanism.New(mc.Base)
		if err != nil {
			return nil, err
		}
		base := l.GetParams()
		for _, name := range perturbed {
			v := base[name] * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
			if err := l.SetParam(name, v); err != nil {
				return nil, fmt.Errorf("trial %d: %w", trial, err)
			}
		}

		tgt := analysis.ReactionTargets(l, mc.Component)
		cs, err := analysis.FindCrossings(ctx, r.solver, tgt, mc.Grid.Times(), mc.Solver)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		res := MonteCarloResult{Trial: trial, Params: l.Params()}
		if len(cs) > 0 {
			if cs[0].Converged {
				res.Time, res.Found = cs[0].Time, true
			} else {
				res.Unconverged = true
			}
		}
		results = append(results, res)
	}

	r.logger.Info("monte carlo complete",
		zap.Int("trials", mc.Trials),
		zap.String("component", mc.Component.Label()),
	)
	return results, nil
}

// Summarize computes statistics over the trials that found a converged
// crossing.
func Summarize(results []MonteCarloResult) MonteCarloSummary {
	s := MonteCarloSummary{Trials: len(results), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum, sumSq float64
	for _, r := range results {
		if r.Unconverged {
			s.Unconverged++
		}
		if !r.Found {
			continue
		}
		s.Found++
		sum += r.Time
		sumSq += r.Time * r.Time
		s.Min = math.Min(s.Min, r.Time)
		s.Max = math.Max(s.Max, r.Time)
	}
	if s.Found == 0 {
		s.Min, s.Max = math.NaN(), math.NaN()
		s.Mean, s.Std = math.NaN(), math.NaN()
		return s
	}
	n := float64(s.Found)
	s.Mean = sum / n
	s.Std = math.Sqrt(math.Max(sumSq/n-s.Mean*s.Mean, 0))
	return s
}
