package optim

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func shiftedSphere(x []float64) float64 {
	s := 1.0
	for i, v := range x {
		d := v - 0.3*float64(i+1)
		s += d * d
	}
	return s
}

func rosenbrock(x []float64) float64 {
	a, b := 1-x[0], x[1]-x[0]*x[0]
	return 1 + a*a + 100*b*b
}

func TestDifferentialEvolutionSphere(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Seed = 1
	de, err := NewDifferentialEvolution([]Bound{{-2, 2}, {-2, 2}, {-2, 2}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), shiftedSphere)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Errorf("not converged after %d generations: %s", res.Generations, res.Message)
	}
	for i, v := range res.X {
		if math.Abs(v-0.3*float64(i+1)) > 1e-2 {
			t.Errorf("x[%d] = %g, want %g", i, v, 0.3*float64(i+1))
		}
	}
	if res.F > 1+1e-4 {
		t.Errorf("f = %g", res.F)
	}
}

func TestDifferentialEvolutionRosenbrock(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Seed = 7
	de, err := NewDifferentialEvolution([]Bound{{-2, 2}, {-2, 2}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), rosenbrock)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-1) > 1e-2 || math.Abs(res.X[1]-1) > 2e-2 {
		t.Errorf("x = %v, want [1 1]", res.X)
	}
}

func TestDifferentialEvolutionDeferredParallel(t *testing.T) {
	var calls atomic.Int64
	f := func(x []float64) float64 {
		calls.Add(1)
		return shiftedSphere(x)
	}
	cfg := DefaultSettings()
	cfg.Seed = 3
	cfg.Updating = Deferred
	cfg.Workers = 4
	cfg.Init = Random
	de, err := NewDifferentialEvolution([]Bound{{-2, 2}, {-2, 2}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if res.F > 1+1e-4 {
		t.Errorf("f = %g", res.F)
	}
	if int(calls.Load()) != res.Evaluations {
		t.Errorf("reported %d evaluations, objective saw %d", res.Evaluations, calls.Load())
	}
}

func TestDifferentialEvolutionRespectsBounds(t *testing.T) {
	bounds := []Bound{{0.5, 1}, {-3, -2}}
	f := func(x []float64) float64 {
		for j, b := range bounds {
			if x[j] < b.Lo || x[j] > b.Hi {
				t.Fatalf("x[%d] = %g outside [%g, %g]", j, x[j], b.Lo, b.Hi)
			}
		}
		// Unconstrained minimum at the origin.
		return x[0]*x[0] + x[1]*x[1]
	}
	cfg := DefaultSettings()
	cfg.Seed = 11
	de, err := NewDifferentialEvolution(bounds, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-0.5) > 1e-2 || math.Abs(res.X[1]+2) > 1e-2 {
		t.Errorf("x = %v, want the corner [0.5 -2]", res.X)
	}
}

func TestDifferentialEvolutionReproducible(t *testing.T) {
	run := func() *Result {
		cfg := DefaultSettings()
		cfg.Seed = 42
		cfg.MaxGenerations = 20
		cfg.Polish = false
		de, err := NewDifferentialEvolution([]Bound{{-2, 2}, {-2, 2}}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := de.Minimize(context.Background(), rosenbrock)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(), run()
	if a.F != b.F || a.X[0] != b.X[0] || a.X[1] != b.X[1] {
		t.Errorf("same seed gave %v/%g and %v/%g", a.X, a.F, b.X, b.F)
	}
}

func TestDifferentialEvolutionCallback(t *testing.T) {
	var seen []int
	cfg := DefaultSettings()
	cfg.Polish = false
	cfg.Callback = func(p Progress) bool {
		seen = append(seen, p.Generation)
		if p.Evaluations <= 0 || len(p.X) != 2 {
			t.Errorf("bad progress %+v", p)
		}
		return p.Generation >= 3
	}
	de, err := NewDifferentialEvolution([]Bound{{-2, 2}, {-2, 2}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), rosenbrock)
	if err != nil {
		t.Fatal(err)
	}
	if res.Generations != 3 || len(seen) != 3 {
		t.Errorf("generations = %d, callbacks = %v", res.Generations, seen)
	}
	if res.Message != "stopped by callback" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestDifferentialEvolutionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	de, err := NewDifferentialEvolution([]Bound{{-1, 1}}, DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(ctx, shiftedSphere)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
	if res == nil || len(res.X) != 1 {
		t.Error("cancelled search should report the initial best point")
	}
}

func TestDifferentialEvolutionBadBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds []Bound
	}{
		{"empty", nil},
		{"reversed", []Bound{{1, 0}}},
		{"infinite", []Bound{{0, math.Inf(1)}}},
		{"nan", []Bound{{math.NaN(), 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDifferentialEvolution(tt.bounds, DefaultSettings()); !errors.Is(err, ErrBadBounds) {
				t.Errorf("error = %v, want ErrBadBounds", err)
			}
		})
	}
}

func TestDifferentialEvolutionInfiniteObjective(t *testing.T) {
	// Half the box is infeasible.
	f := func(x []float64) float64 {
		if x[0] < 0 {
			return math.Inf(1)
		}
		return 1 + (x[0]-0.5)*(x[0]-0.5)
	}
	cfg := DefaultSettings()
	cfg.Seed = 5
	de, err := NewDifferentialEvolution([]Bound{{-1, 1}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Minimize(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-0.5) > 1e-2 {
		t.Errorf("x = %v, want 0.5", res.X)
	}
}

func TestGridSearch(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{
		Linspace(-1, 1, 5),
		Linspace(0, 2, 3),
	})
	if g.Size() != 15 {
		t.Errorf("size = %d, want 15", g.Size())
	}
	calls := 0
	best, val, err := g.Search(context.Background(), func(p map[string]float64) (float64, error) {
		calls++
		if p["a"] == 1 {
			return 0, errors.New("skip")
		}
		return (p["a"]-0.5)*(p["a"]-0.5) + (p["b"]-1)*(p["b"]-1), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 15 {
		t.Errorf("objective called %d times", calls)
	}
	if best["a"] != 0.5 || best["b"] != 1 || val != 0 {
		t.Errorf("best = %v (%g)", best, val)
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"a"}, [][]float64{{1, 2}})
	_, _, err := g.Search(ctx, func(map[string]float64) (float64, error) { return 0, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v", err)
	}
}

func TestLinspace(t *testing.T) {
	v := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(v[i]-want[i]) > 1e-15 {
			t.Errorf("v[%d] = %g, want %g", i, v[i], want[i])
		}
	}
	if got := Linspace(3, 4, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single point = %v", got)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		hits := make([]int32, n)
		ParallelFor(n, 3, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}
