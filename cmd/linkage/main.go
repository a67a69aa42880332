package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/rootfind"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	tol        float64
	maxIter    int
	dt         float64
	duration   float64

	// run
	pngDir string
	noSave bool
	noPlot bool

	// roots / solve
	bracketA float64
	bracketB float64
	trace    bool

	// export / render
	outPath    string
	plotFormat string

	// sweep / montecarlo
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	component    string
	trials       int
	perturbation float64
	seed         int64

	// scenario
	saveCases bool

	// optimize / calibrate
	varyParams []string
	metricName string
	calAt      float64

	logger *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linkage",
		Short: "support reactions of a torque-driven disk linkage",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			zap.ReplaceGlobals(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceUsage: true,
		RunE:         runReactions,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".linkage", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.Float64Var(&tol, "tol", rootfind.DefaultParams().Tol, "bisection tolerance")
	pf.IntVar(&maxIter, "max-iter", rootfind.DefaultParams().MaxIter, "bisection iteration budget")
	pf.Float64Var(&dt, "dt", 0.2, "sample spacing (s)")
	pf.Float64Var(&duration, "time", 4.0, "sampled duration (s)")

	addRunFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "sample the reactions, plot them and find their zero-crossings",
		Args:  cobra.NoArgs,
		RunE:  runReactions,
	}
	addRunFlags(runCmd)

	rootsCmd := &cobra.Command{
		Use:   "roots [component...]",
		Short: "find zero-crossings of reaction components (dx, dy, ex, ey)",
		RunE:  findRoots,
	}
	rootsCmd.Flags().Float64Var(&bracketA, "a", 0, "left end of an explicit bracket")
	rootsCmd.Flags().Float64Var(&bracketB, "b", 0, "right end of an explicit bracket")
	rootsCmd.Flags().BoolVar(&trace, "trace", false, "print every bisection step")

	solveCmd := &cobra.Command{
		Use:   "solve [expression]",
		Short: "find roots of an expression in t, e.g. 'ey(t) - 10'",
		Args:  cobra.ExactArgs(1),
		RunE:  solveExpression,
	}
	solveCmd.Flags().Float64Var(&bracketA, "a", 0, "left end of an explicit bracket")
	solveCmd.Flags().Float64Var(&bracketB, "b", 0, "right end of an explicit bracket")
	solveCmd.Flags().BoolVar(&trace, "trace", false, "print every bisection step")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "write image plots of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "plots", "output directory")
	renderCmd.Flags().StringVar(&plotFormat, "format", "", "image format: png, svg or pdf (default from config)")

	watchCmd := &cobra.Command{
		Use:   "watch [run_id]",
		Short: "step through a run interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchRun,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and track the crossings of a component",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "torque", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")
	sweepCmd.Flags().StringVar(&component, "component", "ex", "reaction component")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "spread of the first crossing under random parameter tolerances",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 200, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.02, "relative tolerance on geometry, mass and torque")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().StringVar(&component, "component", "ex", "reaction component")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the cases of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveCases, "save", false, "store every case as a run")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search over parameters for the smallest metric",
		Long:  "grid search over parameters for the smallest metric, e.g.\n\n  linkage optimize --vary mass=2:6:5 --vary radius=0.06:0.1:3 --metric peak_dy",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringArrayVar(&varyParams, "vary", nil, "parameter range as name=min:max:n (repeatable)")
	optimizeCmd.Flags().StringVar(&metricName, "metric", "peak_dy", "metric to minimise")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "find the parameter value that puts the first crossing at a given time",
		Args:  cobra.NoArgs,
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().StringVar(&sweepParam, "param", "torque", "parameter to calibrate")
	calibrateCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "lower end of the parameter range")
	calibrateCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "upper end of the parameter range")
	calibrateCmd.Flags().Float64Var(&calAt, "at", 0.25, "target crossing time (s)")
	calibrateCmd.Flags().StringVar(&component, "component", "ex", "reaction component")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, rootsCmd, solveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd,
		renderCmd, watchCmd, sweepCmd, monteCarloCmd, scenarioCmd, optimizeCmd, calibrateCmd, presetsCmd, configCmd)

	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&pngDir, "png", "", "also write image plots into this directory")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip terminal plots")
}

// newLogger writes human-readable logs to stderr so stdout stays clean for
// tables and exports.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// resolveConfig layers defaults, the preset, the config file and finally
// any flags set explicitly on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tol") {
		cfg.Solver.Tol = tol
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	if flags.Changed("dt") {
		cfg.Grid.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Grid.Duration = duration
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
