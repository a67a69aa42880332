package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

const (
	DefaultPlotFormat = "png"
	DefaultPlotWidth  = 6.0
	DefaultPlotHeight = 4.0
)

type Config struct {
	Preset    string           `yaml:"preset,omitempty"`
	Mechanism mechanism.Params `yaml:"mechanism"`
	Grid      sim.Grid         `yaml:"grid"`
	Solver    rootfind.Params  `yaml:"solver"`
	Crossings CrossingsConfig  `yaml:"crossings"`
	Output    OutputConfig     `yaml:"output"`
}

type CrossingsConfig struct {
	Components []string `yaml:"components"`
	// LoadLimit, when positive, adds a bearing load check per component (N).
	LoadLimit float64 `yaml:"load_limit"`
}

type OutputConfig struct {
	PlotDir    string  `yaml:"plot_dir"`
	PlotFormat string  `yaml:"plot_format"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Mechanism: mechanism.DefaultParams(),
		Grid:      sim.DefaultGrid(),
		Solver:    rootfind.DefaultParams(),
		Crossings: CrossingsConfig{
			Components: []string{"ex", "ey"},
		},
		Output: OutputConfig{
			PlotFormat: DefaultPlotFormat,
			Width:      DefaultPlotWidth,
			Height:     DefaultPlotHeight,
		},
	}
}

// Load reads a YAML file over the defaults, or over the preset the file
// names, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	return LoadOver(path, nil)
}

// LoadOver is Load with base in place of the defaults. A preset named in
// the file still takes precedence over base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case head.Preset != "":
		if cfg = GetPreset(head.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", head.Preset, ListPresets())
		}
	case base != nil:
		cfg = base.Clone()
	default:
		cfg = DefaultConfig()
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Crossings.Components = append([]string(nil), c.Crossings.Components...)
	return &out
}

func (c *Config) Validate() error {
	if err := c.Mechanism.Validate(); err != nil {
		return err
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Solver.Tol <= 0 {
		return fmt.Errorf("solver: tol must be positive, got %g", c.Solver.Tol)
	}
	if c.Solver.MaxIter <= 0 {
		return fmt.Errorf("solver: max_iter must be positive, got %d", c.Solver.MaxIter)
	}
	if _, err := c.ComponentList(); err != nil {
		return fmt.Errorf("crossings: %w", err)
	}
	switch c.Output.PlotFormat {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("output: unsupported plot format %q", c.Output.PlotFormat)
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output: plot size must be positive, got %gx%g", c.Output.Width, c.Output.Height)
	}
	return nil
}

// ComponentList parses the crossing components.
func (c *Config) ComponentList() ([]mechanism.Component, error) {
	out := make([]mechanism.Component, 0, len(c.Crossings.Components))
	for _, name := range c.Crossings.Components {
		comp, err := mechanism.ParseComponent(name)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}
