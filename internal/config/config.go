package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/microkin/internal/export"
	"github.com/san-kum/microkin/internal/fit"
	"github.com/san-kum/microkin/internal/nlsolve"
	"github.com/san-kum/microkin/internal/optim"
	"github.com/san-kum/microkin/internal/steady"
)

const (
	DefaultOutputDir      = "runs"
	DefaultXTol           = 1e-12
	DefaultMaxEvaluations = 2000
	DefaultPopSize        = 15
	DefaultTol            = 1e-3
	DefaultMaxGenerations = 1000
	DefaultMutationLo     = 0.5
	DefaultMutationHi     = 1.0
	DefaultRecombination  = 0.7
	DefaultGridPoints     = 5
)

type Config struct {
	Name      string       `yaml:"name" toml:"name"`
	DataDir   string       `yaml:"data_dir" toml:"data_dir"`
	OutputDir string       `yaml:"output_dir" toml:"output_dir"`
	LogLevel  string       `yaml:"log_level" toml:"log_level"`
	Solver    SolverConfig `yaml:"solver" toml:"solver"`
	Fit       FitConfig    `yaml:"fit" toml:"fit"`
	Export    ExportConfig `yaml:"export" toml:"export"`
}

type SolverConfig struct {
	XTol           float64 `yaml:"xtol" toml:"xtol"`
	FTol           float64 `yaml:"ftol" toml:"ftol"`
	MaxEvaluations int     `yaml:"max_evaluations" toml:"max_evaluations"`
	ColdStart      bool    `yaml:"cold_start" toml:"cold_start"`
	// Relax falls back to time integration when the root finder fails.
	Relax         bool `yaml:"relax" toml:"relax"`
	RelaxMaxSteps int  `yaml:"relax_max_steps" toml:"relax_max_steps"`
}

type FitConfig struct {
	Method         string  `yaml:"method" toml:"method"`
	PopSize        int     `yaml:"popsize" toml:"popsize"`
	MaxGenerations int     `yaml:"max_generations" toml:"max_generations"`
	Tol            float64 `yaml:"tol" toml:"tol"`
	Atol           float64 `yaml:"atol" toml:"atol"`
	MutationLo     float64 `yaml:"mutation_lo" toml:"mutation_lo"`
	MutationHi     float64 `yaml:"mutation_hi" toml:"mutation_hi"`
	Recombination  float64 `yaml:"recombination" toml:"recombination"`
	Init           string  `yaml:"init" toml:"init"`
	Updating       string  `yaml:"updating" toml:"updating"`
	Workers        int     `yaml:"workers" toml:"workers"`
	Seed           int64   `yaml:"seed" toml:"seed"`
	Polish         bool    `yaml:"polish" toml:"polish"`
	GridPoints     int     `yaml:"grid_points" toml:"grid_points"`
	// Experimental data is multiplied by these factors on load.
	ScalePotential float64 `yaml:"scale_potential" toml:"scale_potential"`
	ScaleCurrent   float64 `yaml:"scale_current" toml:"scale_current"`
}

type ExportConfig struct {
	Variables []string `yaml:"variables" toml:"variables"`
	Format    string   `yaml:"format" toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "microkin",
		OutputDir: DefaultOutputDir,
		LogLevel:  "info",
		Solver: SolverConfig{
			XTol:           DefaultXTol,
			MaxEvaluations: DefaultMaxEvaluations,
		},
		Fit: FitConfig{
			Method:         "de",
			PopSize:        DefaultPopSize,
			MaxGenerations: DefaultMaxGenerations,
			Tol:            DefaultTol,
			MutationLo:     DefaultMutationLo,
			MutationHi:     DefaultMutationHi,
			Recombination:  DefaultRecombination,
			Init:           "latinhypercube",
			Updating:       "immediate",
			Polish:         true,
			GridPoints:     DefaultGridPoints,
			ScalePotential: 1,
			ScaleCurrent:   1,
		},
		Export: ExportConfig{
			Variables: []string{"theta", "fval", "j"},
			Format:    "md",
		},
	}
}

// Load reads YAML, or TOML when path ends in .toml, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Validate() error {
	if c.Solver.XTol < 0 || c.Solver.FTol < 0 {
		return fmt.Errorf("solver tolerances must be non-negative")
	}
	if c.Solver.MaxEvaluations < 0 {
		return fmt.Errorf("solver max_evaluations must be non-negative")
	}
	if _, err := fit.ParseMethod(c.Fit.Method); err != nil {
		return err
	}
	if c.Fit.MutationLo < 0 || c.Fit.MutationHi > 2 || c.Fit.MutationLo > c.Fit.MutationHi {
		return fmt.Errorf("mutation range [%g, %g] outside [0, 2]", c.Fit.MutationLo, c.Fit.MutationHi)
	}
	if c.Fit.Recombination < 0 || c.Fit.Recombination > 1 {
		return fmt.Errorf("recombination %g outside [0, 1]", c.Fit.Recombination)
	}
	if _, err := parseInit(c.Fit.Init); err != nil {
		return err
	}
	if _, err := parseUpdating(c.Fit.Updating); err != nil {
		return err
	}
	for _, v := range c.Export.Variables {
		if _, err := export.ParseVariable(v); err != nil {
			return err
		}
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	return nil
}

// SteadyConfig returns the sweep settings.
func (c *Config) SteadyConfig() steady.Config {
	root := nlsolve.DefaultConfig()
	root.XTol = c.Solver.XTol
	root.FTol = c.Solver.FTol
	if c.Solver.MaxEvaluations > 0 {
		root.MaxEvaluations = c.Solver.MaxEvaluations
	}
	relax := steady.DefaultRelaxation()
	relax.Enabled = c.Solver.Relax
	if c.Solver.RelaxMaxSteps > 0 {
		relax.MaxSteps = c.Solver.RelaxMaxSteps
	}
	return steady.Config{Root: root, ColdStart: c.Solver.ColdStart, Relax: relax}
}

// FitOptions returns the fitter settings.
func (c *Config) FitOptions() (fit.Options, error) {
	method, err := fit.ParseMethod(c.Fit.Method)
	if err != nil {
		return fit.Options{}, err
	}
	init, err := parseInit(c.Fit.Init)
	if err != nil {
		return fit.Options{}, err
	}
	updating, err := parseUpdating(c.Fit.Updating)
	if err != nil {
		return fit.Options{}, err
	}
	return fit.Options{
		Method: method,
		Optimizer: optim.Settings{
			PopSize:        c.Fit.PopSize,
			MaxGenerations: c.Fit.MaxGenerations,
			Tol:            c.Fit.Tol,
			Atol:           c.Fit.Atol,
			MutationLo:     c.Fit.MutationLo,
			MutationHi:     c.Fit.MutationHi,
			Recombination:  c.Fit.Recombination,
			Init:           init,
			Updating:       updating,
			Workers:        c.Fit.Workers,
			Seed:           c.Fit.Seed,
			Polish:         c.Fit.Polish,
		},
		Steady:     c.SteadyConfig(),
		GridPoints: c.Fit.GridPoints,
	}, nil
}

func parseInit(s string) (optim.Init, error) {
	switch strings.ToLower(s) {
	case "", "latinhypercube":
		return optim.LatinHypercube, nil
	case "random":
		return optim.Random, nil
	}
	return 0, fmt.Errorf("unknown init %q", s)
}

func parseUpdating(s string) (optim.Updating, error) {
	switch strings.ToLower(s) {
	case "", "immediate":
		return optim.Immediate, nil
	case "deferred":
		return optim.Deferred, nil
	}
	return 0, fmt.Errorf("unknown updating %q", s)
}
