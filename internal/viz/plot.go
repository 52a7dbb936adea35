package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/microkin/internal/steady"
)

// PlotSweep draws one adsorbate coverage, or log10|j| when species is
// empty, against the sweep index.
func PlotSweep(res *steady.Result, species string, width, height int) (string, error) {
	if res.Len() < 2 {
		return "", fmt.Errorf("need at least two points, have %d", res.Len())
	}

	var data []float64
	var caption string
	if species == "" {
		for _, j := range res.J {
			if j != 0 {
				data = append(data, math.Log10(math.Abs(j)))
			}
		}
		caption = "log10 |j| (A/cm2)"
	} else {
		col := -1
		for i, a := range res.Adsorbed {
			if a == species {
				col = i
			}
		}
		if col < 0 {
			return "", fmt.Errorf("no adsorbed species %q (have %s)", species, strings.Join(res.Adsorbed, ", "))
		}
		for _, row := range res.Theta {
			data = append(data, row[col])
		}
		caption = "θ(" + species + ")"
	}
	if len(data) < 2 {
		return "", fmt.Errorf("nothing to plot")
	}

	caption += fmt.Sprintf("  %.3g → %.3g V", res.Potential[0], res.Potential[res.Len()-1])
	chart := asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(chart), nil
}

// Summary renders the key figures of a sweep.
func Summary(name string, res *steady.Result) string {
	var s strings.Builder
	s.WriteString(Title.Render(name) + "\n")
	s.WriteString(Metric("Points", fmt.Sprintf("%d", res.Len())) + "\n")
	if res.Len() > 0 {
		last := res.Len() - 1
		s.WriteString(Metric("Potential", fmt.Sprintf("%.3g → %.3g V", res.Potential[0], res.Potential[last])) + "\n")
		s.WriteString(Metric("j (last)", fmt.Sprintf("%.4e A/cm2", res.J[last])) + "\n")
		for k, a := range res.Adsorbed {
			s.WriteString(Metric("θ("+a+")", fmt.Sprintf("%.4f → %.4f", res.Theta[0][k], res.Theta[last][k])) + "\n")
		}
	}
	s.WriteString(Metric("Evaluations", fmt.Sprintf("%d", res.TotalEvaluations())) + "\n")
	if res.NegativeCoverage {
		s.WriteString(StatusWarn.Render("negative coverage in solution") + "\n")
	} else {
		s.WriteString(StatusOK.Render("coverages valid") + "\n")
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}
