package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Objective is minimized by the optimizers. It must be safe for
// concurrent use when Deferred updating runs more than one worker.
type Objective func(x []float64) float64

// Bound is a closed interval for one parameter.
type Bound struct {
	Lo, Hi float64
}

type Init int

const (
	LatinHypercube Init = iota
	Random
)

type Updating int

const (
	// Immediate replaces population members as soon as a better trial is
	// found within a generation.
	Immediate Updating = iota
	// Deferred evaluates a whole trial generation before selection, which
	// lets the evaluations run in parallel.
	Deferred
)

// Progress is reported once per generation.
type Progress struct {
	Generation  int
	Best        float64
	X           []float64
	Convergence float64
	Evaluations int
}

// Settings configure DifferentialEvolution. Zero fields take the values of
// DefaultSettings.
type Settings struct {
	PopSize        int
	MaxGenerations int
	Tol            float64
	Atol           float64
	// MutationLo and MutationHi bound the per-generation dithered
	// differential weight.
	MutationLo    float64
	MutationHi    float64
	Recombination float64
	Init          Init
	Updating      Updating
	Workers       int
	Seed          int64
	Polish        bool
	// Callback returning true stops the search after the current generation.
	Callback func(Progress) bool
}

func DefaultSettings() Settings {
	return Settings{
		PopSize:        15,
		MaxGenerations: 1000,
		Tol:            1e-3,
		MutationLo:     0.5,
		MutationHi:     1,
		Recombination:  0.7,
		Init:           LatinHypercube,
		Updating:       Immediate,
		Polish:         true,
	}
}

// Result of a minimization.
type Result struct {
	X           []float64
	F           float64
	Generations int
	Evaluations int
	Converged   bool
	Message     string
}

var ErrBadBounds = errors.New("optim: invalid bounds")

// DifferentialEvolution minimizes an objective over a box with the
// best1bin strategy. The population lives in the unit hypercube and is
// scaled to the bounds on evaluation.
type DifferentialEvolution struct {
	bounds []Bound
	cfg    Settings
	rng    *rand.Rand
	evals  atomic.Int64
}

func NewDifferentialEvolution(bounds []Bound, cfg Settings) (*DifferentialEvolution, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: no parameters", ErrBadBounds)
	}
	for i, b := range bounds {
		if !(b.Lo <= b.Hi) || math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) {
			return nil, fmt.Errorf("%w: parameter %d has [%g, %g]", ErrBadBounds, i, b.Lo, b.Hi)
		}
	}
	def := DefaultSettings()
	if cfg.PopSize <= 0 {
		cfg.PopSize = def.PopSize
	}
	if cfg.MaxGenerations <= 0 {
		cfg.MaxGenerations = def.MaxGenerations
	}
	if cfg.Tol <= 0 && cfg.Atol <= 0 {
		cfg.Tol = def.Tol
	}
	if cfg.MutationHi <= 0 {
		cfg.MutationLo, cfg.MutationHi = def.MutationLo, def.MutationHi
	}
	if cfg.Recombination <= 0 {
		cfg.Recombination = def.Recombination
	}
	return &DifferentialEvolution{
		bounds: append([]Bound(nil), bounds...),
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Minimize runs until the population energies converge, MaxGenerations
// is reached, the callback asks to stop, or ctx is done. On cancellation
// the best point so far is returned with ctx.Err().
func (de *DifferentialEvolution) Minimize(ctx context.Context, f Objective) (*Result, error) {
	dim := len(de.bounds)
	size := de.cfg.PopSize * dim
	if size < 5 {
		size = 5
	}
	de.evals.Store(0)

	pop := de.initialize(size, dim)
	energies := make([]float64, size)
	de.evaluateAll(f, pop, energies)
	promoteBest(pop, energies)

	res := &Result{}
	for gen := 1; gen <= de.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			de.fill(res, pop, energies, gen-1)
			res.Message = "cancelled"
			return res, err
		}

		mutation := de.cfg.MutationLo + de.rng.Float64()*(de.cfg.MutationHi-de.cfg.MutationLo)

		if de.cfg.Updating == Deferred {
			trials := make([][]float64, size)
			for i := range trials {
				trials[i] = de.trial(pop, i, mutation)
			}
			trialEnergies := make([]float64, size)
			de.evaluateAll(f, trials, trialEnergies)
			for i := range trials {
				if trialEnergies[i] <= energies[i] {
					pop[i], energies[i] = trials[i], trialEnergies[i]
				}
			}
			promoteBest(pop, energies)
		} else {
			for i := 0; i < size; i++ {
				t := de.trial(pop, i, mutation)
				e := de.evaluate(f, t)
				if e <= energies[i] {
					pop[i], energies[i] = t, e
					if e < energies[0] {
						pop[0], pop[i] = pop[i], pop[0]
						energies[0], energies[i] = energies[i], energies[0]
					}
				}
			}
		}

		conv := convergence(energies)
		de.fill(res, pop, energies, gen)
		stop := false
		if de.cfg.Callback != nil {
			stop = de.cfg.Callback(Progress{
				Generation:  gen,
				Best:        energies[0],
				X:           append([]float64(nil), res.X...),
				Convergence: conv,
				Evaluations: res.Evaluations,
			})
		}
		if de.converged(energies) {
			res.Converged = true
			res.Message = "population converged"
			break
		}
		if stop {
			res.Message = "stopped by callback"
			break
		}
	}
	if res.Message == "" {
		res.Message = "maximum number of generations reached"
	}

	if de.cfg.Polish {
		de.polish(ctx, f, res)
	}
	return res, nil
}

func (de *DifferentialEvolution) fill(res *Result, pop [][]float64, energies []float64, gen int) {
	res.X = de.scale(pop[0])
	res.F = energies[0]
	res.Generations = gen
	res.Evaluations = int(de.evals.Load())
}

func (de *DifferentialEvolution) initialize(size, dim int) [][]float64 {
	pop := make([][]float64, size)
	for i := range pop {
		pop[i] = make([]float64, dim)
	}
	if de.cfg.Init == Random {
		for i := range pop {
			for j := range pop[i] {
				pop[i][j] = de.rng.Float64()
			}
		}
		return pop
	}

	// One sample per stratum in every dimension, strata shuffled per column.
	seg := 1 / float64(size)
	for j := 0; j < dim; j++ {
		perm := de.rng.Perm(size)
		for i := range pop {
			pop[perm[i]][j] = seg*de.rng.Float64() + float64(i)*seg
		}
	}
	return pop
}

// trial builds the best1bin candidate for member i.
func (de *DifferentialEvolution) trial(pop [][]float64, i int, mutation float64) []float64 {
	size, dim := len(pop), len(pop[0])
	r0, r1 := de.pick(size, i)

	t := append([]float64(nil), pop[i]...)
	fill := de.rng.Intn(dim)
	for j := 0; j < dim; j++ {
		if j == fill || de.rng.Float64() < de.cfg.Recombination {
			t[j] = pop[0][j] + mutation*(pop[r0][j]-pop[r1][j])
		}
	}
	for j, v := range t {
		if v < 0 || v > 1 {
			t[j] = de.rng.Float64()
		}
	}
	return t
}

func (de *DifferentialEvolution) pick(size, exclude int) (int, int) {
	r0 := de.rng.Intn(size - 1)
	if r0 >= exclude {
		r0++
	}
	for {
		r1 := de.rng.Intn(size - 1)
		if r1 >= exclude {
			r1++
		}
		if r1 != r0 {
			return r0, r1
		}
	}
}

func (de *DifferentialEvolution) scale(u []float64) []float64 {
	x := make([]float64, len(u))
	for j, b := range de.bounds {
		x[j] = b.Lo + u[j]*(b.Hi-b.Lo)
	}
	return x
}

func (de *DifferentialEvolution) evaluate(f Objective, u []float64) float64 {
	de.evals.Add(1)
	e := f(de.scale(u))
	if math.IsNaN(e) {
		return math.Inf(1)
	}
	return e
}

func (de *DifferentialEvolution) evaluateAll(f Objective, pop [][]float64, out []float64) {
	if de.cfg.Updating != Deferred || de.cfg.Workers == 1 {
		for i := range pop {
			out[i] = de.evaluate(f, pop[i])
		}
		return
	}
	ParallelFor(len(pop), 1, de.cfg.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = de.evaluate(f, pop[i])
		}
	})
}

func (de *DifferentialEvolution) converged(energies []float64) bool {
	if !floatsFinite(energies) {
		return false
	}
	mean, std := stat.MeanStdDev(energies, nil)
	return std <= de.cfg.Atol+de.cfg.Tol*math.Abs(mean)
}

// polish refines the best member with Nelder-Mead inside the bounds and
// keeps the result only if it improves.
func (de *DifferentialEvolution) polish(ctx context.Context, f Objective, res *Result) {
	if math.IsInf(res.F, 0) || ctx.Err() != nil {
		return
	}
	unit := make([]float64, len(res.X))
	for j, b := range de.bounds {
		if b.Hi > b.Lo {
			unit[j] = (res.X[j] - b.Lo) / (b.Hi - b.Lo)
		}
	}
	clamp := func(u []float64) []float64 {
		c := append([]float64(nil), u...)
		for j := range c {
			c[j] = math.Min(1, math.Max(0, c[j]))
		}
		return c
	}
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			if ctx.Err() != nil {
				return math.Inf(1)
			}
			return de.evaluate(f, clamp(u))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: 200 * len(unit),
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-9,
			Iterations: 20,
		},
	}
	out, err := optimize.Minimize(problem, unit, settings, &optimize.NelderMead{})
	res.Evaluations = int(de.evals.Load())
	if err != nil || out == nil || !(out.F < res.F) {
		return
	}
	res.X = de.scale(clamp(out.X))
	res.F = out.F
}

func promoteBest(pop [][]float64, energies []float64) {
	best := floats.MinIdx(energies)
	pop[0], pop[best] = pop[best], pop[0]
	energies[0], energies[best] = energies[best], energies[0]
}

// convergence is std/|mean| of the population energies.
func convergence(energies []float64) float64 {
	if !floatsFinite(energies) {
		return math.Inf(1)
	}
	mean, std := stat.MeanStdDev(energies, nil)
	return std / (math.Abs(mean) + 1e-300)
}

func floatsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
