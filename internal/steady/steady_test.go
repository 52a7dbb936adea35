package steady

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem/chemtest"
	"github.com/san-kum/microkin/internal/kinetics"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHydrogenSweep(t *testing.T) {
	res, err := Calculate(context.Background(), chemtest.Hydrogen(), DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if res.Len() != 51 {
		t.Fatalf("expected 51 points, got %d", res.Len())
	}
	if res.NegativeCoverage {
		t.Error("unexpected negative coverage")
	}

	theta := func(i int) float64 { return res.Theta[i][0] }
	if theta(0) < 0.9 {
		t.Errorf("θ(0) = %.4f, want > 0.9", theta(0))
	}
	if math.Abs(theta(25)-0.5) > 0.01 {
		t.Errorf("θ(0.25) = %.4f, want ~0.5", theta(25))
	}
	if theta(50) > 0.05 {
		t.Errorf("θ(0.5) = %.4f, want < 0.05", theta(50))
	}
	for i := 3; i < res.Len(); i++ {
		if theta(i) > theta(i-1) {
			t.Errorf("θ rises between %g and %g V", res.Potential[i-1], res.Potential[i])
		}
	}

	for i, j := range res.J {
		if j >= 0 {
			t.Fatalf("j[%d] = %g, want cathodic", i, j)
		}
		if i > 0 && math.Abs(j) <= math.Abs(res.J[i-1]) {
			t.Errorf("|j| not increasing at %g V", res.Potential[i])
		}
	}

	for i, row := range res.CReactants {
		if row[0] != 1 || res.CProducts[i][0] != 0 {
			t.Fatalf("static mode changed bulk concentrations at step %d", i)
		}
	}
}

func TestResidualAtSolution(t *testing.T) {
	kin, err := kinetics.New(chemtest.Hydrogen(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := New(kin, DefaultConfig(), quietLogger())
	res, err := s.Sweep(context.Background(), []float64{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	for i, eta := range res.Potential {
		f := s.Residual(res.Theta[i], eta)
		v := kin.Rates(eta, []float64{1}, []float64{0}, res.Theta[i])
		scale := math.Abs(v[0]) + math.Abs(v[1])
		if math.Abs(f[0]) > 1e-8*scale {
			t.Errorf("residual %g at %g V (rate scale %g)", f[0], eta, scale)
		}
	}
}

func TestFlowConservesHydrogen(t *testing.T) {
	res, err := Calculate(context.Background(), chemtest.HydrogenFlow(), DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if res.Len() != 11 {
		t.Fatalf("expected 11 points, got %d", res.Len())
	}
	for i := range res.Potential {
		total := res.CReactants[i][0] + 2*res.CProducts[i][0]
		if math.Abs(total-1) > 1e-8 {
			t.Errorf("step %d: cH+ + 2cH2 = %.10f, want 1", i, total)
		}
		if res.CProducts[i][0] < 0 {
			t.Errorf("step %d: negative product concentration %g", i, res.CProducts[i][0])
		}
	}
}

func TestNegativeCoverageIsFlagged(t *testing.T) {
	res, err := Calculate(context.Background(), chemtest.NegativeCoverage(), DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("negative coverage must not fail the sweep: %v", err)
	}
	if !res.NegativeCoverage {
		t.Error("expected NegativeCoverage to be set")
	}
	if math.Abs(res.Theta[0][0]+0.125) > 1e-8 {
		t.Errorf("θ(0) = %g, want -0.125", res.Theta[0][0])
	}

	var covErr *CoverageError
	if err := res.CheckCoverage(); !errors.As(err, &covErr) {
		t.Fatalf("CheckCoverage = %v", err)
	}
	if covErr.Step != 0 || covErr.Species != "H*" {
		t.Errorf("unexpected coverage error %+v", covErr)
	}
	if !errors.Is(covErr, ErrNegativeCoverage) {
		t.Error("coverage error should wrap ErrNegativeCoverage")
	}
}

func TestWarmStartSavesEvaluations(t *testing.T) {
	warm, err := Calculate(context.Background(), chemtest.Hydrogen(), DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.ColdStart = true
	cold, err := Calculate(context.Background(), chemtest.Hydrogen(), cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if warm.TotalEvaluations() > cold.TotalEvaluations() {
		t.Errorf("warm start used %d evaluations, cold start %d", warm.TotalEvaluations(), cold.TotalEvaluations())
	}
	for i := range warm.Theta {
		if math.Abs(warm.Theta[i][0]-cold.Theta[i][0]) > 1e-6 {
			t.Errorf("step %d: warm %g cold %g", i, warm.Theta[i][0], cold.Theta[i][0])
		}
	}
}

func TestConvergenceError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root.MaxEvaluations = 1
	res, err := Calculate(context.Background(), chemtest.Hydrogen(), cfg, quietLogger())
	if err == nil {
		t.Fatal("expected a convergence failure")
	}
	if res != nil {
		t.Error("failed sweep should not return partial results")
	}
	if !errors.Is(err, ErrNotConverged) || !errors.Is(err, ErrMaxEvaluations) {
		t.Errorf("error %v should match ErrNotConverged and ErrMaxEvaluations", err)
	}
	var convErr *ConvergenceError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConvergenceError, got %T", err)
	}
	if convErr.Step != 0 || convErr.Potential != 0 {
		t.Errorf("failure reported at step %d potential %g", convErr.Step, convErr.Potential)
	}
}

func TestSweepValidation(t *testing.T) {
	kin, err := kinetics.New(chemtest.Hydrogen(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := New(kin, DefaultConfig(), quietLogger())

	tests := []struct {
		name       string
		potentials []float64
	}{
		{"empty", nil},
		{"nan", []float64{0, math.NaN()}},
		{"inf", []float64{math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Sweep(context.Background(), tt.potentials); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := s.Sweep(context.Background(), nil); !errors.Is(err, ErrEmptySweep) {
		t.Errorf("error = %v, want ErrEmptySweep", err)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Calculate(ctx, chemtest.Hydrogen(), DefaultConfig(), quietLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil || res.Len() != 0 {
		t.Error("cancelled sweep should return the empty partial result")
	}
}

func TestObserver(t *testing.T) {
	kin, err := kinetics.New(chemtest.Hydrogen(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := New(kin, DefaultConfig(), quietLogger())
	var steps []int
	s.AddObserver(ObserverFunc(func(step int, _ float64, _ []float64, _ float64) {
		steps = append(steps, step)
	}))
	if _, err := s.Sweep(context.Background(), []float64{0, 0.1, 0.2}); err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 || steps[2] != 2 {
		t.Errorf("observer saw steps %v", steps)
	}
}

func TestEnsembleTemperatures(t *testing.T) {
	e := NewEnsemble(chemtest.Hydrogen(), DefaultConfig(), quietLogger())
	results, err := e.Run(context.Background(), TemperatureVariants(290, 310))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Len() != 51 {
			t.Errorf("variant %d: %d points", i, r.Len())
		}
	}
	// Hotter catalyst, faster kinetics at the same overpotential.
	if math.Abs(results[1].J[10]) <= math.Abs(results[0].J[10]) {
		t.Errorf("|j| at 310 K (%g) not above 290 K (%g)", results[1].J[10], results[0].J[10])
	}
}

func TestRelaxHydrogen(t *testing.T) {
	kin, err := kinetics.New(chemtest.Hydrogen(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := New(kin, DefaultConfig(), quietLogger())

	relaxed, err := s.Relax(context.Background(), []float64{0}, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if !relaxed.Stopped {
		t.Fatalf("relaxation did not settle in %d steps", relaxed.Steps)
	}
	if math.Abs(relaxed.X[0]-0.5) > 1e-3 {
		t.Errorf("relaxed θ = %.6f, want ~0.5", relaxed.X[0])
	}

	res, err := s.Sweep(context.Background(), []float64{0.25})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(relaxed.X[0]-res.Theta[0][0]) > 1e-4 {
		t.Errorf("relaxed θ = %.6f, root finder θ = %.6f", relaxed.X[0], res.Theta[0][0])
	}
}
