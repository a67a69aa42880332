package config

import "sort"

// Presets are named variations of the reference linkage.
var Presets = map[string]func(*Config){
	"reference": func(c *Config) {},
	"heavy_disk": func(c *Config) {
		c.Mechanism.Mass = 6.0
	},
	"large_disk": func(c *Config) {
		c.Mechanism.Radius = 0.16
	},
	"high_torque": func(c *Config) {
		c.Mechanism.Torque = 2.5
	},
	"slow_spin": func(c *Config) {
		c.Mechanism.Omega10 = 30
		c.Mechanism.Alpha1 = -5
	},
	"fine": func(c *Config) {
		c.Grid.Dt = 0.01
		c.Solver.Tol = 1e-12
		c.Solver.MaxIter = 200
	},
	"startup": func(c *Config) {
		c.Grid.Duration = 0.5
		c.Grid.Dt = 0.01
		c.Crossings.Components = []string{"dx", "dy", "ex", "ey"}
	},
}

// GetPreset returns a fresh config for the preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	cfg.Preset = name
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
