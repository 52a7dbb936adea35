package main

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/microkin/internal/analysis"
	"github.com/san-kum/microkin/internal/export"
	"github.com/san-kum/microkin/internal/storage"
	"github.com/san-kum/microkin/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if kind != "" {
		rows, err := st.Index().Runs(storage.Kind(kind))
		if err != nil {
			return err
		}
		indexed := make(map[string]bool, len(rows))
		for _, row := range rows {
			indexed[row.ID] = true
		}
		filtered := runs[:0]
		for _, run := range runs {
			if indexed[run.ID] {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODE\tTEMP\tPOINTS\tEVALS\tCREATED\tNOTE")

	for _, run := range runs {
		note := ""
		if run.NegativeCoverage {
			note = "negative coverage"
		}
		if run.Fit != nil {
			note = "objective " + formatNullable(run.Fit.Objective, "%.3e")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fK\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Mode,
			run.Temperature,
			run.Points,
			humanize.Comma(int64(run.Evaluations)),
			humanize.Time(run.Timestamp),
			note,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadSweep(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s, %.2f K\n", meta.Mode, meta.Temperature)
	fmt.Printf("points: %d\n\n", res.Len())

	switch variable {
	case "j":
		chart, err := viz.PlotSweep(res, "", 80, 12)
		if err != nil {
			return err
		}
		fmt.Println(chart)
	case "theta":
		for _, species := range res.Adsorbed {
			chart, err := viz.PlotSweep(res, species, 80, 10)
			if err != nil {
				return err
			}
			fmt.Println(chart)
			fmt.Println()
		}
	default:
		return fmt.Errorf("unknown plot variable %q (want j or theta)", variable)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	v, err := export.ParseVariable(variable)
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if output != "" && !cmd.Flags().Changed("format") {
		f = export.FormatFromPath(output)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.LoadSweep(runID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return export.Write(w, res, v, f)
}

func tafelRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadSweep(runID)
	if err != nil {
		return err
	}

	t, err := analysis.Fit(res.Potential, res.J, tafelLo, tafelHi)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n\n", meta.ID)
	fmt.Println(viz.Metric("Tafel slope", fmt.Sprintf("%.1f mV/dec", 1000*t.Slope)))
	fmt.Println(viz.Metric("Exchange current", fmt.Sprintf("%.3e A/cm2", t.ExchangeCurrent)))
	fmt.Println(viz.Metric("R²", fmt.Sprintf("%.4f", t.RSquared)))
	fmt.Println(viz.Metric("Points", fmt.Sprintf("%d", t.Points)))
	if meta.Temperature > 0 {
		fmt.Println(viz.Metric("Transfer coeff.", fmt.Sprintf("%.3f", analysis.TransferCoefficient(t.Slope, meta.Temperature))))
	}
	if threshold > 0 {
		onset, err := analysis.Onset(res.Potential, res.J, threshold)
		if err != nil {
			fmt.Println(viz.StatusWarn.Render(err.Error()))
		} else {
			fmt.Println(viz.Metric("Onset", fmt.Sprintf("%.3f V", onset)))
		}
	}
	return nil
}

func fitHistory(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	row, err := st.Index().Run(runID)
	if err != nil {
		return err
	}
	if row.Kind != string(storage.KindFit) {
		return fmt.Errorf("%s is a %s run", runID, row.Kind)
	}
	gens, err := st.Index().Generations(runID)
	if err != nil {
		return err
	}
	if len(gens) == 0 {
		fmt.Println("no generations recorded")
		return nil
	}

	objective := make([]float64, 0, len(gens))
	for _, g := range gens {
		if g.Objective.Valid && g.Objective.Float64 > 0 {
			objective = append(objective, math.Log10(g.Objective.Float64))
		}
	}
	if len(objective) > 1 {
		fmt.Println(asciigraph.Plot(objective,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("log10 objective by generation"),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GEN\tOBJECTIVE\tCONVERGENCE\tEVALS")
	step := max(1, len(gens)/20)
	for i, g := range gens {
		if i%step != 0 && i != len(gens)-1 {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", g.Generation,
			formatNull(g.Objective, "%.6e"), formatNull(g.Convergence, "%.3e"), humanize.Comma(int64(g.Evaluations)))
	}
	return w.Flush()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

// formatNullable renders a missing objective as "-".
func formatNullable(v *float64, verb string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(verb, *v)
}

func formatNull(v sql.NullFloat64, verb string) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf(verb, v.Float64)
}
