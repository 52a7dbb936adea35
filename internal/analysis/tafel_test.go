package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/microkin/internal/constants"
)

func TestFitRecoversSyntheticLine(t *testing.T) {
	const (
		b  = 0.118
		j0 = 1e-3
	)
	var eta, j []float64
	for i := 0; i <= 20; i++ {
		e := 0.05 + 0.01*float64(i)
		eta = append(eta, e)
		j = append(j, -j0*math.Pow(10, e/b))
	}

	tf, err := Fit(eta, j, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(tf.Slope-b) > 1e-9 {
		t.Errorf("slope = %g, want %g", tf.Slope, b)
	}
	if math.Abs(tf.ExchangeCurrent-j0)/j0 > 1e-6 {
		t.Errorf("j0 = %g, want %g", tf.ExchangeCurrent, j0)
	}
	if tf.RSquared < 1-1e-12 {
		t.Errorf("R² = %g", tf.RSquared)
	}
	if tf.Points != 21 {
		t.Errorf("points = %d", tf.Points)
	}
}

func TestFitWindow(t *testing.T) {
	// Two regimes; the window selects the steeper one.
	eta := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	j := []float64{1, 10, 100, 10000, 1000000}

	tf, err := Fit(eta, j, 0.35, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if tf.Points != 2 || math.Abs(tf.Slope-0.05) > 1e-12 {
		t.Errorf("got %d points, slope %g", tf.Points, tf.Slope)
	}
}

func TestFitSkipsZeroCurrent(t *testing.T) {
	if _, err := Fit([]float64{0, 0.1}, []float64{0, 1}, 0, 0); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("error = %v, want ErrTooFewPoints", err)
	}
	if _, err := Fit([]float64{0}, []float64{1, 2}, 0, 0); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestOnset(t *testing.T) {
	eta := []float64{0, 0.1, 0.2, 0.3}
	j := []float64{-1e-6, -1e-4, -1e-2, -1}
	got, err := Onset(eta, j, 1e-3)
	if err != nil || got != 0.2 {
		t.Errorf("onset = %g, %v", got, err)
	}
	if _, err := Onset(eta, j, 10); !errors.Is(err, ErrNoOnset) {
		t.Errorf("error = %v, want ErrNoOnset", err)
	}
}

func TestTransferCoefficient(t *testing.T) {
	T := 298.15
	b := constants.Boltzmann * T * math.Ln10 / 0.5
	if a := TransferCoefficient(b, T); math.Abs(a-0.5) > 1e-12 {
		t.Errorf("α = %g, want 0.5", a)
	}
	if !math.IsInf(TransferCoefficient(0, T), 1) {
		t.Error("zero slope should give +Inf")
	}
}
