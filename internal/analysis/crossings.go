package analysis

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
)

// Target is a named function to search for zero-crossings.
type Target struct {
	Name string
	F    rootfind.Func
}

// ReactionTargets wraps linkage components as targets.
func ReactionTargets(l *mechanism.Linkage, cs ...mechanism.Component) []Target {
	out := make([]Target, len(cs))
	for i, c := range cs {
		out[i] = Target{Name: c.Label(), F: l.Func(c)}
	}
	return out
}

// Crossing is one refined zero-crossing.
type Crossing struct {
	Target     string           `json:"target" yaml:"target"`
	Bracket    rootfind.Bracket `json:"bracket" yaml:"bracket"`
	Time       float64          `json:"time" yaml:"time"`
	Value      float64          `json:"value" yaml:"value"`
	Iterations int              `json:"iterations" yaml:"iterations"`
	Converged  bool             `json:"converged" yaml:"converged"`
}

// FindCrossings scans every target over times and refines each bracket.
// Targets are searched concurrently; the result is ordered by target (in
// the order given) and then by time.
func FindCrossings(ctx context.Context, solver *rootfind.Bisection, targets []Target, times []float64, p rootfind.Params) ([]Crossing, error) {
	perTarget := make([][]Crossing, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			found, err := crossingsOf(ctx, solver, tgt, times, p)
			if err != nil {
				return err
			}
			perTarget[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Crossing
	for _, cs := range perTarget {
		out = append(out, cs...)
	}
	return out, nil
}

// Solve refines a single caller-supplied bracket for one target.
func Solve(solver *rootfind.Bisection, tgt Target, br rootfind.Bracket, p rootfind.Params) (Crossing, error) {
	res, err := solver.Solve(tgt.F, br, p)
	if err != nil {
		return Crossing{}, fmt.Errorf("%s: %w", tgt.Name, err)
	}
	return Crossing{
		Target:     tgt.Name,
		Bracket:    br,
		Time:       res.Root,
		Value:      res.FRoot,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}, nil
}

func crossingsOf(ctx context.Context, solver *rootfind.Bisection, tgt Target, times []float64, p rootfind.Params) ([]Crossing, error) {
	brackets, skipped := scan(tgt.F, times)
	if len(skipped) > 0 {
		solver.Logger().Warn("non-finite samples, intervals not searched for crossings",
			zap.String("target", tgt.Name),
			zap.Int("intervals", len(skipped)),
			zap.Float64("from", skipped[0].A),
			zap.Float64("to", skipped[len(skipped)-1].B),
		)
	}
	out := make([]Crossing, 0, len(brackets))
	for _, br := range brackets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := Solve(solver, tgt, br, p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// First returns the earliest crossing of the named target.
func First(cs []Crossing, target string) (Crossing, bool) {
	for _, c := range cs {
		if c.Target == target {
			return c, true
		}
	}
	return Crossing{}, false
}
