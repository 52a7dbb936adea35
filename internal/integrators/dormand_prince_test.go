package integrators

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestDormandPrince_ExponentialDecay(t *testing.T) {
	dp := NewDormandPrince(1e-8)
	decay := func(_ float64, x []float64) []float64 { return []float64{-x[0]} }

	res, err := dp.Integrate(context.Background(), decay, []float64{1}, 0, 10000,
		func(t float64, _, _ []float64) bool { return t >= 1 })
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stopped {
		t.Fatalf("stopped after %d steps without reaching t=1", res.Steps)
	}
	want := math.Exp(-res.T)
	if rel := math.Abs(res.X[0]-want) / want; rel > 1e-6 {
		t.Errorf("x(%g) = %g, want %g (rel error %e)", res.T, res.X[0], want, rel)
	}
}

func TestDormandPrince_EnergyConservation(t *testing.T) {
	dp := NewDormandPrince(1e-9)
	oscillator := func(_ float64, x []float64) []float64 { return []float64{x[1], -x[0]} }

	res, err := dp.Integrate(context.Background(), oscillator, []float64{1, 0}, 0, 100000,
		func(t float64, _, _ []float64) bool { return t >= 20 })
	if err != nil {
		t.Fatal(err)
	}
	energy := 0.5 * (res.X[0]*res.X[0] + res.X[1]*res.X[1])
	if drift := math.Abs(energy-0.5) / 0.5; drift > 1e-6 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestDormandPrince_RelaxesToEquilibrium(t *testing.T) {
	dp := NewDormandPrince(1e-8)
	relax := func(_ float64, x []float64) []float64 { return []float64{2 - x[0]} }

	res, err := dp.Integrate(context.Background(), relax, []float64{0}, 0, 10000,
		func(_ float64, _, dxdt []float64) bool { return math.Abs(dxdt[0]) <= 2e-6 })
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stopped || math.Abs(res.X[0]-2) > 1e-5 {
		t.Errorf("x = %g after %d steps, want 2", res.X[0], res.Steps)
	}
	if res.Evaluations < 7*res.Steps {
		t.Errorf("%d evaluations for %d steps", res.Evaluations, res.Steps)
	}
}

func TestDormandPrince_StepRejectsStiffStep(t *testing.T) {
	dp := NewDormandPrince(1e-6)
	stiff := func(_ float64, x []float64) []float64 { return []float64{-100 * x[0]} }

	_, ratio, next := dp.Step(stiff, 0, []float64{1}, 10)
	if ratio <= 1 {
		t.Errorf("error ratio %g, want rejection", ratio)
	}
	if next >= 10 {
		t.Errorf("next step %g, want smaller than 10", next)
	}
}

func TestDormandPrince_NonFinite(t *testing.T) {
	dp := NewDormandPrince(1e-6)
	bad := func(_ float64, x []float64) []float64 { return []float64{math.NaN()} }

	_, err := dp.Integrate(context.Background(), bad, []float64{1}, 0, 10,
		func(float64, []float64, []float64) bool { return false })
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("error = %v, want ErrNonFinite", err)
	}
}

func TestDormandPrince_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dp := NewDormandPrince(1e-6)
	decay := func(_ float64, x []float64) []float64 { return []float64{-x[0]} }
	res, err := dp.Integrate(ctx, decay, []float64{1}, 0, 10,
		func(float64, []float64, []float64) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if res.Steps != 0 {
		t.Errorf("took %d steps after cancellation", res.Steps)
	}
}
