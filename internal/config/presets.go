package config

import "sort"

// Presets adjust the defaults for common workloads.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"quick": func(c *Config) {
		c.Fit.PopSize = 8
		c.Fit.MaxGenerations = 100
		c.Fit.Tol = 1e-2
		c.Fit.Polish = false
	},
	"thorough": func(c *Config) {
		c.Fit.PopSize = 25
		c.Fit.MaxGenerations = 3000
		c.Fit.Tol = 1e-4
		c.Solver.MaxEvaluations = 10000
	},
	"parallel": func(c *Config) {
		c.Fit.Updating = "deferred"
		c.Fit.Workers = 0
	},
	"coarse": func(c *Config) {
		c.Fit.Method = "grid"
		c.Fit.GridPoints = 5
	},
	"robust": func(c *Config) {
		c.Solver.Relax = true
		c.Solver.MaxEvaluations = 5000
	},
	"cold": func(c *Config) {
		c.Solver.ColdStart = true
		c.Solver.MaxEvaluations = 10000
	},
}

// GetPreset returns the defaults modified by the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ApplyPreset modifies cfg in place.
func ApplyPreset(cfg *Config, name string) bool {
	apply, ok := Presets[name]
	if ok {
		apply(cfg)
	}
	return ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
