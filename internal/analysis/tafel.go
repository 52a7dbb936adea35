package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/microkin/internal/constants"
)

var (
	ErrTooFewPoints = errors.New("analysis: fewer than two usable points")
	ErrNoOnset      = errors.New("analysis: current never reaches threshold")
)

// Tafel is a straight-line fit of η against log10|j|.
type Tafel struct {
	// Slope is in V per decade of current.
	Slope     float64
	Intercept float64
	// ExchangeCurrent is |j| extrapolated to η = 0.
	ExchangeCurrent float64
	RSquared        float64
	Points          int
	Lo, Hi          float64
}

// Fit regresses η on log10|j| for lo ≤ |η| ≤ hi. lo = hi = 0 uses every
// point. Zero and non-finite currents are skipped.
func Fit(potential, j []float64, lo, hi float64) (*Tafel, error) {
	if len(potential) != len(j) {
		return nil, fmt.Errorf("analysis: %d potentials and %d currents", len(potential), len(j))
	}
	all := lo == 0 && hi == 0

	var x, y []float64
	for i, eta := range potential {
		a := math.Abs(eta)
		if !all && (a < lo || a > hi) {
			continue
		}
		mag := math.Abs(j[i])
		if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
			continue
		}
		x = append(x, math.Log10(mag))
		y = append(y, a)
	}
	if len(x) < 2 {
		return nil, ErrTooFewPoints
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	t := &Tafel{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  stat.RSquared(x, y, nil, intercept, slope),
		Points:    len(x),
		Lo:        lo,
		Hi:        hi,
	}
	if slope != 0 {
		t.ExchangeCurrent = math.Pow(10, -intercept/slope)
	}
	return t, nil
}

// Onset returns the first potential at which |j| ≥ threshold.
func Onset(potential, j []float64, threshold float64) (float64, error) {
	for i, v := range j {
		if math.Abs(v) >= threshold {
			return potential[i], nil
		}
	}
	return 0, fmt.Errorf("%w %g", ErrNoOnset, threshold)
}

// TransferCoefficient converts a Tafel slope to the apparent transfer
// coefficient kB·T·ln10 / b at temperature t in kelvin.
func TransferCoefficient(slope, t float64) float64 {
	if slope == 0 {
		return math.Inf(1)
	}
	return constants.Boltzmann * t * math.Ln10 / math.Abs(slope)
}
