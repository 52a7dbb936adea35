package export

import (
	"errors"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNothingToPlot = errors.New("export: fewer than two finite points")

// CurveToSVG draws y against the potential x. With logScale the curve
// shows |y| on a logarithmic axis and zero values are skipped.
func CurveToSVG(w io.Writer, x, y []float64, width, height int, label string, logScale bool) error {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		v := y[i]
		if logScale {
			v = math.Abs(v)
			if v == 0 {
				continue
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: v})
	}
	if len(pts) < 2 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.X.Label.Text = "Potential (V)"
	p.Y.Label.Text = label
	if logScale {
		p.Y.Label.Text = "|" + label + "|"
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1.5)
	p.Add(plotter.NewGrid(), line)

	wt, err := p.WriterTo(vg.Points(float64(width)), vg.Points(float64(height)), "svg")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
