package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

// Calibration asks which value of Param in Range moves the first crossing
// of Component to time At.
type Calibration struct {
	Base      mechanism.Params
	Param     string
	Range     rootfind.Bracket
	Component mechanism.Component
	At        float64
	Grid      sim.Grid
	// Inner refines each crossing; Outer refines the parameter and its
	// tolerance is in seconds of crossing time.
	Inner rootfind.Params
	Outer rootfind.Params
}

// DefaultOuterParams is looser than the crossing tolerance so the outer
// solve is not chasing the inner one's rounding.
func DefaultOuterParams() rootfind.Params {
	return rootfind.Params{Tol: 1e-6, MaxIter: 60}
}

// Calibrate bisects on the parameter. Values that invalidate the linkage
// or leave no crossing on the grid evaluate to NaN, which the solver
// rejects. A first crossing that exhausts the inner budget is an error.
func Calibrate(ctx context.Context, solver *rootfind.Bisection, cal Calibration) (rootfind.Result, error) {
	if _, err := mechanism.New(cal.Base); err != nil {
		return rootfind.Result{}, err
	}
	if err := cal.Grid.Validate(); err != nil {
		return rootfind.Result{}, err
	}
	times := cal.Grid.Times()

	var innerErr error
	f := func(v float64) float64 {
		if innerErr != nil {
			return math.NaN()
		}
		l, _ := mechanism.New(cal.Base)
		if err := l.SetParam(cal.Param, v); err != nil {
			return math.NaN()
		}
		cs, err := analysis.FindCrossings(ctx, solver, analysis.ReactionTargets(l, cal.Component), times, cal.Inner)
		if err != nil {
			innerErr = err
			return math.NaN()
		}
		if len(cs) == 0 {
			return math.NaN()
		}
		if !cs[0].Converged {
			innerErr = fmt.Errorf("calibrate %s=%g: %s crossing did not converge in %d iterations",
				cal.Param, v, cs[0].Target, cs[0].Iterations)
			return math.NaN()
		}
		return cs[0].Time - cal.At
	}

	res, err := solver.Solve(f, cal.Range, cal.Outer)
	if innerErr != nil {
		return rootfind.Result{}, innerErr
	}
	if err != nil {
		return rootfind.Result{}, fmt.Errorf("calibrate %s: %w", cal.Param, err)
	}
	return res, nil
}
