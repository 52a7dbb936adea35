package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/collector"
	"github.com/san-kum/microkin/internal/config"
	"github.com/san-kum/microkin/internal/export"
	"github.com/san-kum/microkin/internal/logging"
	"github.com/san-kum/microkin/internal/steady"
	"github.com/san-kum/microkin/internal/storage"
	"github.com/san-kum/microkin/internal/viz"
)

var extensions = map[export.Format]string{
	export.Markdown: "md",
	export.CSV:      "csv",
	export.JSON:     "json",
	export.SVG:      "svg",
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id := storage.NewID(runName(args[0]))
	log, err := newLogger(cfg, st.Dir(id), false)
	if err != nil {
		return err
	}
	defer log.Close()

	ds, err := collector.Collect(args[0], log)
	if err != nil {
		return err
	}

	ctx, stop := interruptContext()
	defer stop()

	start := time.Now()
	res, err := steady.Calculate(ctx, ds, cfg.SteadyConfig(), log)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := sweepMetadata(id, args[0], ds)
	meta.Metrics = map[string]float64{"seconds": elapsed.Seconds()}
	if _, err := st.Save(meta, res); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := writeExports(cfg, st.Dir(id), res); err != nil {
		return err
	}

	fmt.Println(viz.Summary(id, res))
	fmt.Printf("%s points, %s residual evaluations in %v\n",
		humanize.Comma(int64(res.Len())), humanize.Comma(int64(res.TotalEvaluations())), elapsed.Round(time.Millisecond))
	fmt.Printf("saved to %s\n", st.Dir(id))
	return nil
}

func sweepMetadata(id, dir string, ds *chem.Dataset) storage.RunMetadata {
	source, err := filepath.Abs(dir)
	if err != nil {
		source = dir
	}
	return storage.RunMetadata{
		ID:          id,
		Name:        runName(dir),
		Kind:        storage.KindSweep,
		Source:      source,
		Mode:        ds.Parameters.Mode.String(),
		Temperature: ds.Parameters.Temperature,
	}
}

// writeExports writes the configured tables next to the stored run.
// JSON carries the whole result and is written once.
func writeExports(cfg *config.Config, dir string, res *steady.Result) error {
	f, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	names := cfg.Export.Variables
	if f == export.JSON {
		names = names[:min(len(names), 1)]
	}
	for _, name := range names {
		v, err := export.ParseVariable(name)
		if err != nil {
			return err
		}
		base := v.String()
		if f == export.JSON {
			base = "result"
		}
		path := filepath.Join(dir, base+"."+extensions[f])
		if err := export.WriteFile(path, res, v); err != nil {
			return err
		}
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	log, err := newLogger(cfg, "", false)
	if err != nil {
		return err
	}
	defer log.Close()

	ds, err := collector.Collect(args[0], log)
	if err != nil {
		return err
	}

	ctx, stop := interruptContext()
	defer stop()

	variants := steady.TemperatureVariants(temperatures...)
	results, err := steady.NewEnsemble(ds, cfg.SteadyConfig(), log).Run(ctx, variants)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMP\tPOINTS\tJ(LAST)\tEVALS\tRUN")

	curves := make([][]float64, 0, len(results))
	legends := make([]string, 0, len(results))
	for i, res := range results {
		name := fmt.Sprintf("%s-%gK", runName(args[0]), temperatures[i])
		meta := sweepMetadata(storage.NewID(name), args[0], ds)
		meta.Name = name
		meta.Temperature = temperatures[i]
		id, err := st.Save(meta, res)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", variants[i].Name, err)
		}

		last := 0.0
		if res.Len() > 0 {
			last = res.J[res.Len()-1]
		}
		fmt.Fprintf(w, "%gK\t%d\t%.4e\t%s\t%s\n",
			temperatures[i], res.Len(), last, humanize.Comma(int64(res.TotalEvaluations())), id)

		if curve := logCurrent(res.J); len(curve) > 1 {
			curves = append(curves, curve)
			legends = append(legends, variants[i].Name)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(curves) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(curves,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.SeriesColors(scanColors(len(curves))...),
			asciigraph.SeriesLegends(legends...),
			asciigraph.Caption("log10 |j| (A/cm2) by temperature"),
		))
	}
	return nil
}

func logCurrent(j []float64) []float64 {
	out := make([]float64, 0, len(j))
	for _, v := range j {
		if v != 0 {
			out = append(out, math.Log10(math.Abs(v)))
		}
	}
	return out
}

func scanColors(n int) []asciigraph.AnsiColor {
	palette := []asciigraph.AnsiColor{asciigraph.Blue, asciigraph.Red, asciigraph.Green, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Cyan}
	out := make([]asciigraph.AnsiColor, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

func benchSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logging.Discard()
	ds, err := collector.Collect(args[0], log)
	if err != nil {
		return err
	}

	ctx, stop := interruptContext()
	defer stop()

	fmt.Printf("benchmarking %s (%d potentials)\n\n", args[0], len(ds.Parameters.Potential))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tITERATIONS\tEVALUATIONS\tTIME\tPOINTS/SEC")

	for _, cold := range []bool{false, true} {
		sc := cfg.SteadyConfig()
		sc.ColdStart = cold

		start := time.Now()
		res, err := steady.Calculate(ctx, ds, sc, log)
		elapsed := time.Since(start)

		label := "warm"
		if cold {
			label = "cold"
		}
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t%v\t%s\n", label, elapsed.Round(time.Microsecond), firstLine(err))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%.0f\n",
			label,
			humanize.Comma(int64(res.TotalIterations())),
			humanize.Comma(int64(res.TotalEvaluations())),
			elapsed.Round(time.Microsecond),
			float64(res.Len())/elapsed.Seconds(),
		)
	}
	return w.Flush()
}

func firstLine(err error) string {
	s, _, _ := strings.Cut(err.Error(), "\n")
	return "failed: " + s
}
