package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/microkin/internal/config"
	"github.com/san-kum/microkin/internal/logging"
	"github.com/san-kum/microkin/internal/storage"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	// Experimental polarization curve; switches the root command to fitting.
	dataFile string
	// Solver overrides
	xtol      float64
	maxEvals  int
	coldStart bool
	relax     bool
	// Fitter overrides
	method         string
	popSize        int
	maxGenerations int
	workers        int
	seed           int64
	scalePotential float64
	scaleCurrent   float64
	live           bool
	// scan
	temperatures []float64
	// plot / export
	variable string
	format   string
	output   string
	kind     string
	// tafel
	tafelLo   float64
	tafelHi   float64
	threshold float64
)

// main registers the microkin commands and executes the root command.
// It exits with status 1 when the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "microkin [dir]",
		Short: "steady-state microkinetics of electrocatalytic networks",
		Long: "Solves the steady state of a reaction network over a potential sweep.\n" +
			"With -f the adsorbate and activation energies are fitted to a polarization curve instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if dataFile != "" {
				return runFit(cmd, args)
			}
			return runSweep(cmd, args)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".microkin", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&dataFile, "file", "f", "", "experimental polarization data")
	addRunFlags(rootCmd)
	addFitFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "solve the steady state over the potential sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(runCmd)

	fitCmd := &cobra.Command{
		Use:   "fit [dir]",
		Short: "fit energies to an experimental polarization curve",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVarP(&dataFile, "file", "f", "", "experimental polarization data")
	_ = fitCmd.MarkFlagRequired("file")
	addRunFlags(fitCmd)
	addFitFlags(fitCmd)

	scanCmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "repeat the sweep at several temperatures",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().Float64SliceVar(&temperatures, "temperature", nil, "temperatures in K")
	_ = scanCmd.MarkFlagRequired("temperature")
	addRunFlags(scanCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "only runs of this kind (sweep, fit)")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&variable, "variable", "j", "j or theta")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&variable, "variable", "theta", "theta, fval, j, c_reactants or c_products")
	exportCmd.Flags().StringVar(&format, "format", "md", "md, csv, json or svg")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")

	tafelCmd := &cobra.Command{
		Use:   "tafel [run_id]",
		Short: "Tafel analysis of a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  tafelRun,
	}
	tafelCmd.Flags().Float64Var(&tafelLo, "lo", 0, "lower |potential| of the Tafel window (V)")
	tafelCmd.Flags().Float64Var(&tafelHi, "hi", 0, "upper |potential| of the Tafel window (V)")
	tafelCmd.Flags().Float64Var(&threshold, "onset", 0, "report the potential where |j| first reaches this value")

	historyCmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "show the generations of a stored fit",
		Args:  cobra.ExactArgs(1),
		RunE:  fitHistory,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [dir]",
		Short: "compare warm and cold started sweeps",
		Args:  cobra.ExactArgs(1),
		RunE:  benchSweep,
	}
	addRunFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, fitCmd, scanCmd, listCmd, plotCmd, exportCmd, tafelCmd, historyCmd, deleteCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&xtol, "xtol", config.DefaultXTol, "relative step tolerance of the root finder")
	cmd.Flags().IntVar(&maxEvals, "max-evaluations", config.DefaultMaxEvaluations, "residual evaluations per potential")
	cmd.Flags().BoolVar(&coldStart, "cold", false, "start every potential from the initial guess")
	cmd.Flags().BoolVar(&relax, "relax", false, "integrate in time when the root finder fails")
}

func addFitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "de", "de or grid")
	cmd.Flags().IntVar(&popSize, "popsize", config.DefaultPopSize, "population size multiplier")
	cmd.Flags().IntVar(&maxGenerations, "max-generations", config.DefaultMaxGenerations, "generation limit")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel objective evaluations (deferred updating)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().Float64Var(&scalePotential, "scale-potential", 1, "factor applied to the experimental potentials")
	cmd.Flags().Float64Var(&scaleCurrent, "scale-current", 1, "factor applied to the experimental currents")
	cmd.Flags().BoolVar(&live, "live", false, "follow the fit in a terminal view")
}

// loadConfig layers defaults, the config file, the preset and finally any
// flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" && !config.ApplyPreset(cfg, preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("xtol") {
		cfg.Solver.XTol = xtol
	}
	if flags.Changed("max-evaluations") {
		cfg.Solver.MaxEvaluations = maxEvals
	}
	if flags.Changed("cold") {
		cfg.Solver.ColdStart = coldStart
	}
	if flags.Changed("relax") {
		cfg.Solver.Relax = relax
	}
	if flags.Changed("method") {
		cfg.Fit.Method = method
	}
	if flags.Changed("popsize") {
		cfg.Fit.PopSize = popSize
	}
	if flags.Changed("max-generations") {
		cfg.Fit.MaxGenerations = maxGenerations
	}
	if flags.Changed("workers") {
		cfg.Fit.Workers = workers
		cfg.Fit.Updating = "deferred"
	}
	if flags.Changed("seed") {
		cfg.Fit.Seed = seed
	}
	if flags.Changed("scale-potential") {
		cfg.Fit.ScalePotential = scalePotential
	}
	if flags.Changed("scale-current") {
		cfg.Fit.ScaleCurrent = scaleCurrent
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("open %s: %w", dataDir, err)
	}
	return st, nil
}

// newLogger logs to stderr and to the run directory. quiet keeps the
// console clear for the live view.
func newLogger(cfg *config.Config, dir string, quiet bool) (*logging.Logger, error) {
	opts := logging.Options{
		Dir:    dir,
		Level:  cfg.LogLevel,
		Colors: os.Getenv("NO_COLOR") == "",
	}
	if quiet {
		opts.Console = io.Discard
	}
	return logging.New(opts)
}

// runName is the base name of a network directory.
func runName(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		return "run"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
