package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/sim"
)

// GridSearch evaluates every combination of the given parameter values and
// keeps the one with the smallest metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	loadLimit  float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one value list per parameter, got %d names and %d lists", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// WithLoadLimit makes the within_* metrics available to the search.
func (g *GridSearch) WithLoadLimit(limit float64) *GridSearch {
	g.loadLimit = limit
	return g
}

type Candidate struct {
	Params map[string]float64
	Value  float64
}

// Search returns the best combination. Combinations the linkage rejects
// are skipped; ties keep the first combination visited.
func (g *GridSearch) Search(ctx context.Context, base mechanism.Params, grid sim.Grid, metricName string) (Candidate, int, error) {
	best := Candidate{Value: math.Inf(1)}
	evaluated := 0

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, grid, metricName, &best, &evaluated)
	if err != nil {
		return Candidate{}, evaluated, err
	}
	if best.Params == nil {
		return Candidate{}, evaluated, fmt.Errorf("no valid parameter combination")
	}
	return best, evaluated, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base mechanism.Params,
	grid sim.Grid,
	metricName string,
	best *Candidate,
	evaluated *int,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		l, err := mechanism.New(base)
		if err != nil {
			return err
		}
		for k, v := range current {
			if err := l.SetParam(k, v); err != nil {
				return nil
			}
		}

		s := sim.New(l)
		for _, m := range metrics.Defaults(g.loadLimit) {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx, grid)
		if err != nil {
			return err
		}
		*evaluated++

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		if val < best.Value {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, grid, metricName, best, evaluated); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
