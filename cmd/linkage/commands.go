package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/automation"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/export"
	"github.com/san-kum/linkage/internal/expr"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/optim"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
	"github.com/san-kum/linkage/internal/storage"
	"github.com/san-kum/linkage/internal/viz"
)

func newSolver() *rootfind.Bisection {
	opts := []rootfind.Option{rootfind.WithLogger(logger)}
	if trace {
		fmt.Printf("%4s  %14s  %14s  %14s  %11s  %10s\n", "k", "a", "b", "c", "f(c)", "half-width")
		opts = append(opts, rootfind.WithTrace(func(it rootfind.Iteration) {
			fmt.Printf("%4d  %14.10f  %14.10f  %14.10f  % .4e  %.4e\n", it.K, it.A, it.B, it.C, it.FC, it.HalfWidth)
		}))
	}
	return rootfind.NewBisection(opts...)
}

func plotOptions(cfg *config.Config) export.PlotOptions {
	return export.PlotOptions{
		Format: cfg.Output.PlotFormat,
		Width:  cfg.Output.Width,
		Height: cfg.Output.Height,
	}
}

// sample evaluates the configured linkage over the grid and refines the
// crossings of the configured components.
func sample(ctx context.Context, cfg *config.Config) (*mechanism.Linkage, *sim.Result, []analysis.Crossing, error) {
	l, err := mechanism.New(cfg.Mechanism)
	if err != nil {
		return nil, nil, nil, err
	}
	comps, err := cfg.ComponentList()
	if err != nil {
		return nil, nil, nil, err
	}

	s := sim.New(l)
	for _, m := range metrics.Defaults(cfg.Crossings.LoadLimit) {
		s.AddMetric(m)
	}

	start := time.Now()
	res, err := s.Run(ctx, cfg.Grid)
	if err != nil {
		return nil, nil, nil, err
	}

	cs, err := analysis.FindCrossings(ctx, newSolver(), analysis.ReactionTargets(l, comps...), res.Times, cfg.Solver)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info("sampled linkage",
		zap.Int("samples", len(res.Samples)),
		zap.Int("crossings", len(cs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return l, res, cs, nil
}

func runReactions(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	l, res, cs, err := sample(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := viz.WriteTable(os.Stdout, res); err != nil {
		return err
	}
	if !noPlot {
		fmt.Println()
		fmt.Println(viz.ReactionPlots(res, viz.DefaultPlotWidth, viz.DefaultPlotHeight))
	}

	fmt.Println("\ncrossings:")
	if err := viz.WriteCrossings(os.Stdout, cs); err != nil {
		return err
	}
	fmt.Println("\nmetrics:")
	if err := viz.WriteMetrics(os.Stdout, res.Metrics, res.MetricTimes); err != nil {
		return err
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.Run{
			Preset:    cfg.Preset,
			Params:    l.Params(),
			Solver:    cfg.Solver,
			Result:    res,
			Crossings: cs,
		})
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}

	dir := pngDir
	if dir == "" {
		dir = cfg.Output.PlotDir
	}
	if dir != "" {
		paths, err := export.SavePlots(dir, res, cs, plotOptions(cfg))
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("wrote %s\n", p)
		}
	}
	return nil
}

func findRoots(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	l, err := mechanism.New(cfg.Mechanism)
	if err != nil {
		return err
	}

	comps, err := cfg.ComponentList()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		comps = comps[:0]
		for _, a := range args {
			c, err := mechanism.ParseComponent(a)
			if err != nil {
				return err
			}
			comps = append(comps, c)
		}
	}

	cs, err := solveTargets(cmd, cfg, analysis.ReactionTargets(l, comps...))
	if err != nil {
		return err
	}
	return viz.WriteCrossings(os.Stdout, cs)
}

func solveExpression(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	l, err := mechanism.New(cfg.Mechanism)
	if err != nil {
		return err
	}

	e, err := expr.Compile(args[0], l)
	if err != nil {
		return err
	}

	cs, err := solveTargets(cmd, cfg, []analysis.Target{{Name: e.String(), F: e.Func()}})
	if err != nil {
		return err
	}
	return viz.WriteCrossings(os.Stdout, cs)
}

// solveTargets uses the --a/--b bracket when either is given, and otherwise
// scans the configured grid. Traced solves run one target at a time so the
// steps print in order.
func solveTargets(cmd *cobra.Command, cfg *config.Config, targets []analysis.Target) ([]analysis.Crossing, error) {
	solver := newSolver()

	if cmd.Flags().Changed("a") || cmd.Flags().Changed("b") {
		br := rootfind.Bracket{A: bracketA, B: bracketB}
		cs := make([]analysis.Crossing, 0, len(targets))
		for _, tgt := range targets {
			c, err := analysis.Solve(solver, tgt, br, cfg.Solver)
			if err != nil {
				return nil, err
			}
			cs = append(cs, c)
		}
		return cs, nil
	}

	times := cfg.Grid.Times()
	if !trace {
		return analysis.FindCrossings(cmd.Context(), solver, targets, times, cfg.Solver)
	}

	var cs []analysis.Crossing
	for _, tgt := range targets {
		found, err := analysis.FindCrossings(cmd.Context(), solver, []analysis.Target{tgt}, times, cfg.Solver)
		if err != nil {
			return nil, err
		}
		cs = append(cs, found...)
	}
	return cs, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tSAMPLES\tCROSSINGS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Grid.Duration,
			run.Grid.Dt,
			run.Samples,
			len(run.Crossings),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run %s (%s, %d samples)\n\n", meta.ID, meta.Preset, len(res.Samples))
	fmt.Println(viz.ReactionPlots(res, viz.DefaultPlotWidth, viz.DefaultPlotHeight))
	fmt.Println("\ncrossings:")
	return viz.WriteCrossings(os.Stdout, meta.Crossings)
}

// output returns stdout when path is empty.
func output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}

	w, done, err := output(outPath)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, samples); err != nil {
		done()
		return err
	}
	return done()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	w, done, err := output(outPath)
	if err != nil {
		return err
	}
	err = export.WriteJSON(w, export.Document{
		ID:        meta.ID,
		Params:    meta.Params,
		Grid:      meta.Grid,
		Solver:    meta.Solver,
		Crossings: meta.Crossings,
		Metrics:   meta.Metrics,
		Samples:   export.Rows(samples),
	})
	if err != nil {
		done()
		return err
	}
	return done()
}

func renderRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	meta, res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}

	opts := plotOptions(cfg)
	if plotFormat != "" {
		opts.Format = plotFormat
	}
	paths, err := export.SavePlots(outPath, res, meta.Crossings, opts)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
	return nil
}

func watchRun(cmd *cobra.Command, args []string) error {
	var (
		res *sim.Result
		cs  []analysis.Crossing
	)
	if len(args) == 1 {
		meta, loaded, err := storage.New(dataDir).LoadResult(args[0])
		if err != nil {
			return err
		}
		res, cs = loaded, meta.Crossings
	} else {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		_, res, cs, err = sample(cmd.Context(), cfg)
		if err != nil {
			return err
		}
	}
	if len(res.Samples) == 0 {
		return fmt.Errorf("run has no samples")
	}

	p := tea.NewProgram(viz.NewWatchModel(res, cs, 250*time.Millisecond), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	comp, err := mechanism.ParseComponent(component)
	if err != nil {
		return err
	}

	runner := automation.NewRunner(newSolver(), logger)
	results, err := runner.RunSweep(cmd.Context(), automation.Sweep{
		Base:      cfg.Mechanism,
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Steps:     sweepSteps,
		Grid:      cfg.Grid,
		Solver:    cfg.Solver,
		Component: comp,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK |%s| (N)\t%s CROSSINGS (s)\n", strings.ToUpper(sweepParam), comp.Label(), comp.Label())
	for _, r := range results {
		times := make([]string, len(r.Crossings))
		for i, t := range r.Crossings {
			times[i] = fmt.Sprintf("%.6f", t)
		}
		if len(times) == 0 {
			times = []string{"-"}
		}
		fmt.Fprintf(w, "%.4f\t%.3f\t%s\n", r.Value, r.Peak, strings.Join(times, ", "))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	comp, err := mechanism.ParseComponent(component)
	if err != nil {
		return err
	}

	runner := automation.NewRunner(newSolver(), logger)
	results, err := runner.RunMonteCarlo(cmd.Context(), automation.MonteCarlo{
		Base:         cfg.Mechanism,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         seed,
		Grid:         cfg.Grid,
		Solver:       cfg.Solver,
		Component:    comp,
	})
	if err != nil {
		return err
	}

	sum := automation.Summarize(results)
	fmt.Printf("first %s crossing over %d trials (±%.1f%%):\n", comp.Label(), sum.Trials, perturbation*100)
	fmt.Printf("  found: %d\n", sum.Found)
	if sum.Unconverged > 0 {
		fmt.Printf("  unconverged: %d (excluded)\n", sum.Unconverged)
	}
	if sum.Found > 0 {
		fmt.Printf("  mean:  %.6f s\n", sum.Mean)
		fmt.Printf("  std:   %.6f s\n", sum.Std)
		fmt.Printf("  range: [%.6f, %.6f] s\n", sum.Min, sum.Max)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	runner := automation.NewRunner(newSolver(), logger)
	results, err := runner.RunScenario(cmd.Context(), sc, cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if saveCases {
		if err := st.Init(); err != nil {
			return err
		}
	}

	for _, r := range results {
		fmt.Printf("== %s ==\n", r.Name)
		if err := viz.WriteCrossings(os.Stdout, r.Crossings); err != nil {
			return err
		}
		if saveCases {
			runID, err := st.Save(storage.Run{
				Preset:    strings.ReplaceAll(strings.ToLower(r.Name), " ", "_"),
				Params:    r.Params,
				Solver:    r.Solver,
				Result:    r.Result,
				Crossings: r.Crossings,
			})
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
		fmt.Println()
	}
	return nil
}

// parseRange reads name=min:max:n.
func parseRange(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid range %q, want name=min:max:n", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid range %q, want name=min:max:n", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("%s: count must be a positive integer", arg)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(varyParams) == 0 {
		return fmt.Errorf("at least one --vary is required")
	}

	names := make([]string, 0, len(varyParams))
	ranges := make([][]float64, 0, len(varyParams))
	for _, arg := range varyParams {
		name, vals, err := parseRange(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	best, n, err := g.WithLoadLimit(cfg.Crossings.LoadLimit).Search(cmd.Context(), cfg.Mechanism, cfg.Grid, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best %s = %.6f over %d combinations\n", metricName, best.Value, n)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best.Params[name])
	}
	return nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	comp, err := mechanism.ParseComponent(component)
	if err != nil {
		return err
	}

	res, err := optim.Calibrate(cmd.Context(), newSolver(), optim.Calibration{
		Base:      cfg.Mechanism,
		Param:     sweepParam,
		Range:     rootfind.Bracket{A: sweepMin, B: sweepMax},
		Component: comp,
		At:        calAt,
		Grid:      cfg.Grid,
		Inner:     cfg.Solver,
		Outer:     optim.DefaultOuterParams(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s = %.8f puts the first %s crossing at %.6f s (%d iterations)\n",
		sweepParam, res.Root, comp.Label(), calAt, res.Iterations)
	return nil
}
