package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

// Runner executes scripted batches of linkage runs.
type Runner struct {
	solver *rootfind.Bisection
	logger *zap.Logger
}

func NewRunner(solver *rootfind.Bisection, logger *zap.Logger) *Runner {
	if solver == nil {
		solver = rootfind.NewBisection()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{solver: solver, logger: logger}
}

// Scenario is a named list of cases loaded from YAML.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Cases       []ScenarioCase `yaml:"cases"`
}

// ScenarioCase starts from the base config and overrides parameters by
// name. A preset contributes only its mechanism parameters; grid, solver
// and components stay those of the base config unless the case sets them.
type ScenarioCase struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Params     map[string]float64 `yaml:"params"`
	Grid       *sim.Grid          `yaml:"grid"`
	Components []string           `yaml:"components"`
}

type CaseResult struct {
	Name      string
	Params    mechanism.Params
	Solver    rootfind.Params
	Result    *sim.Result
	Crossings []analysis.Crossing
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Cases) == 0 {
		return nil, fmt.Errorf("%s: scenario has no cases", path)
	}
	return &scenario, nil
}

// RunScenario executes every case in order and stops at the first failure,
// returning the cases completed so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario, base *config.Config) ([]CaseResult, error) {
	results := make([]CaseResult, 0, len(scenario.Cases))

	for i, c := range scenario.Cases {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("case %d", i+1)
		}
		r.logger.Info("running case",
			zap.String("scenario", scenario.Name),
			zap.String("case", name),
			zap.Int("index", i+1),
			zap.Int("total", len(scenario.Cases)),
		)

		res, err := r.runCase(ctx, c, base)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		res.Name = name
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, c ScenarioCase, base *config.Config) (CaseResult, error) {
	cfg := base
	if c.Preset != "" {
		p := config.GetPreset(c.Preset)
		if p == nil {
			return CaseResult{}, fmt.Errorf("unknown preset: %s", c.Preset)
		}
		cfg = base.Clone()
		cfg.Mechanism = p.Mechanism
	}

	l, err := mechanism.New(cfg.Mechanism)
	if err != nil {
		return CaseResult{}, err
	}
	for name, v := range c.Params {
		if err := l.SetParam(name, v); err != nil {
			return CaseResult{}, err
		}
	}

	grid := cfg.Grid
	if c.Grid != nil {
		grid = *c.Grid
	}

	comps, err := cfg.ComponentList()
	if err != nil {
		return CaseResult{}, err
	}
	if len(c.Components) > 0 {
		comps = comps[:0:0]
		for _, name := range c.Components {
			comp, err := mechanism.ParseComponent(name)
			if err != nil {
				return CaseResult{}, err
			}
			comps = append(comps, comp)
		}
	}

	s := sim.New(l)
	for _, m := range metrics.Defaults(cfg.Crossings.LoadLimit) {
		s.AddMetric(m)
	}
	res, err := s.Run(ctx, grid)
	if err != nil {
		return CaseResult{}, err
	}

	cs, err := analysis.FindCrossings(ctx, r.solver, analysis.ReactionTargets(l, comps...), res.Times, cfg.Solver)
	if err != nil {
		return CaseResult{}, err
	}
	return CaseResult{Params: l.Params(), Solver: cfg.Solver, Result: res, Crossings: cs}, nil
}

// Sweep varies one linkage parameter over [Min, Max] in Steps values.
type Sweep struct {
	Base      mechanism.Params
	Param     string
	Min       float64
	Max       float64
	Steps     int
	Grid      sim.Grid
	Solver    rootfind.Params
	Component mechanism.Component
}

type SweepResult struct {
	Value     float64
	Crossings []float64
	// Peak is the largest |component| on the grid.
	Peak float64
}

func (sw Sweep) values() ([]float64, error) {
	if sw.Steps < 1 {
		return nil, fmt.Errorf("sweep needs at least 1 step, got %d", sw.Steps)
	}
	if !(sw.Min <= sw.Max) {
		return nil, fmt.Errorf("sweep range [%g, %g] is empty", sw.Min, sw.Max)
	}
	if sw.Steps == 1 {
		return []float64{sw.Min}, nil
	}
	step := (sw.Max - sw.Min) / float64(sw.Steps-1)
	vals := make([]float64, sw.Steps)
	for i := range vals {
		vals[i] = sw.Min + float64(i)*step
	}
	return vals, nil
}

// RunSweep samples every parameter value concurrently, then refines the
// crossings of the chosen component for each.
func (r *Runner) RunSweep(ctx context.Context, sw Sweep) ([]SweepResult, error) {
	vals, err := sw.values()
	if err != nil {
		return nil, err
	}

	linkages := make([]*mechanism.Linkage, len(vals))
	for i, v := range vals {
		l, err := mechanism.New(sw.Base)
		if err != nil {
			return nil, err
		}
		if err := l.SetParam(sw.Param, v); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sw.Param, v, err)
		}
		linkages[i] = l
	}

	ens := sim.NewEnsemble(linkages, func() []sim.Metric {
		return []sim.Metric{metrics.NewPeak(sw.Component)}
	})
	runs, err := ens.Run(ctx, sw.Grid)
	if err != nil {
		return nil, err
	}

	peakName := metrics.NewPeak(sw.Component).Name()
	results := make([]SweepResult, len(vals))
	for i, l := range linkages {
		cs, err := analysis.FindCrossings(ctx, r.solver, analysis.ReactionTargets(l, sw.Component), runs[i].Times, sw.Solver)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sw.Param, vals[i], err)
		}

		times := make([]float64, len(cs))
		for j, c := range cs {
			times[j] = c.Time
		}
		results[i] = SweepResult{
			Value:     vals[i],
			Crossings: times,
			Peak:      runs[i].Metrics[peakName],
		}
		r.logger.Debug("sweep point",
			zap.String("param", sw.Param),
			zap.Float64("value", vals[i]),
			zap.Int("crossings", len(cs)),
		)
	}
	return results, nil
}
