package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/microkin/internal/collector"
	"github.com/san-kum/microkin/internal/fit"
	"github.com/san-kum/microkin/internal/steady"
	"github.com/san-kum/microkin/internal/storage"
	"github.com/san-kum/microkin/internal/viz"
)

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id := storage.NewID(runName(args[0]) + "-fit")
	log, err := newLogger(cfg, st.Dir(id), live)
	if err != nil {
		return err
	}
	defer log.Close()

	ds, err := collector.Collect(args[0], log)
	if err != nil {
		return err
	}
	pol, err := collector.ReadPolarization(dataFile)
	if err != nil {
		return err
	}
	pol.Scale(cfg.Fit.ScalePotential, cfg.Fit.ScaleCurrent)
	log.WithField("file", dataFile).Infof("read %d experimental points", len(pol.Potential))

	opts, err := cfg.FitOptions()
	if err != nil {
		return err
	}
	progress := make(chan fit.Progress, 64)
	opts.Progress = progress

	fitter, err := fit.New(ds, pol.Potential, pol.Current, opts, log)
	if err != nil {
		return err
	}

	// The fitter waits for this reader, so every generation reaches the
	// index. The live view only gets what it can keep up with.
	var view chan fit.Progress
	if live {
		view = make(chan fit.Progress, 64)
	}
	generations := make(chan []storage.Generation, 1)
	go func() {
		var gens []storage.Generation
		for p := range progress {
			gens = append(gens, storage.Generation{
				RunID:       id,
				Generation:  p.Generation,
				Objective:   storage.Nullable(p.Objective),
				Convergence: storage.Nullable(p.Convergence),
				Evaluations: p.Evaluations,
			})
			if view != nil {
				select {
				case view <- p:
				default:
				}
			}
		}
		if view != nil {
			close(view)
		}
		generations <- gens
	}()

	ctx, stop := interruptContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	var result *fit.Fit
	var fitErr error
	if live {
		model := viz.NewFitModel(view, fitter.Names(), opts.Optimizer.MaxGenerations, cancel)
		p := tea.NewProgram(model)
		go func() {
			r, err := fitter.Run(ctx)
			p.Send(viz.FitDoneMsg{Fit: r, Err: err})
		}()
		final, err := p.Run()
		if err != nil {
			cancel()
			return fmt.Errorf("live view: %w", err)
		}
		result, fitErr = final.(viz.FitModel).Result()
	} else {
		result, fitErr = fitter.Run(ctx)
	}
	elapsed := time.Since(start)

	switch {
	case fitErr == nil:
	case errors.Is(fitErr, context.Canceled) && result != nil:
		log.Warn("fit interrupted, keeping the best point so far")
	default:
		return fitErr
	}

	fitted, err := result.Apply(ds)
	if err != nil {
		return err
	}
	fitted.Parameters.Potential = slices.Clone(pol.Potential)
	res, err := steady.Calculate(context.Background(), fitted, cfg.SteadyConfig(), log)
	if err != nil {
		return fmt.Errorf("sweep at fitted energies: %w", err)
	}

	source, _ := filepath.Abs(args[0])
	meta := storage.RunMetadata{
		ID:          id,
		Name:        runName(args[0]),
		Kind:        storage.KindFit,
		Source:      source,
		Mode:        ds.Parameters.Mode.String(),
		Temperature: ds.Parameters.Temperature,
		Metrics: map[string]float64{
			"seconds": elapsed.Seconds(),
		},
		Fit: &storage.FitSummary{
			Names:       result.Names,
			Initial:     result.Initial,
			X:           result.X,
			Objective:   storage.FiniteOrNil(result.Objective),
			Generations: result.Generations,
			Evaluations: result.Evaluations,
			Converged:   result.Converged,
		},
	}
	if meta.Fit.Objective != nil {
		meta.Metrics["objective"] = result.Objective
	}
	if _, err := st.Save(meta, res); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := st.Index().RecordGenerations(<-generations); err != nil {
		log.WithError(err).Warn("generations not indexed")
	}
	if err := writeExports(cfg, st.Dir(id), res); err != nil {
		return err
	}

	fmt.Printf("fit: %s\n", result.Message)
	fmt.Printf("objective: %.6e (%s generations, %s evaluations, %v)\n\n",
		result.Objective, humanize.Comma(int64(result.Generations)), humanize.Comma(int64(result.Evaluations)),
		elapsed.Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENERGY\tINITIAL\tFITTED\tCHANGE")
	for i, name := range result.Names {
		change := "-"
		if result.Initial[i] != 0 {
			change = fmt.Sprintf("%+.1f%%", 100*(result.X[i]-result.Initial[i])/result.Initial[i])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\n", name, result.Initial[i], result.X[i], change)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nsaved to %s\n", st.Dir(id))
	return nil
}
