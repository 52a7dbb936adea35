// Package nlsolve finds roots of systems of nonlinear equations without
// analytic derivatives.
//
// [LevenbergMarquardt] minimizes ‖f(x)‖² with a forward-difference Jacobian
// and Marquardt's diagonal scaling. It stops when the proposed step is
// below XTol relative to ‖x‖, when ‖f‖∞ reaches FTol, or when the
// evaluation budget is spent. Stalls (damping blown up, or many accepted
// steps that barely reduce the residual) are reported, not hidden.
package nlsolve

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Func evaluates the residual at x. The returned slice must not alias x.
type Func func(x []float64) []float64

// Status describes how a solve ended.
type Status int

const (
	Converged Status = iota
	MaxEvaluations
	Stalled
	InvalidInput
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxEvaluations:
		return "number of calls to function has reached maxfev"
	case Stalled:
		return "the iteration is not making good progress"
	case InvalidInput:
		return "residual is not finite at the initial guess"
	}
	return "unknown"
}

// Config tunes the solver.
type Config struct {
	XTol           float64
	FTol           float64
	MaxEvaluations int
	InitialDamping float64
	MaxDamping     float64
	// SlowIterations is the number of consecutive accepted steps reducing
	// ‖f‖ by less than 1% after which the solve is reported as stalled.
	SlowIterations int
}

// DefaultConfig mirrors the usual hybrid-solver settings: relative step
// tolerance 1e-12 and 2000 residual evaluations.
func DefaultConfig() Config {
	return Config{
		XTol:           1e-12,
		FTol:           0,
		MaxEvaluations: 2000,
		InitialDamping: 1e-3,
		MaxDamping:     1e16,
		SlowIterations: 10,
	}
}

// Result is the outcome of a solve.
type Result struct {
	X           []float64
	F           []float64
	Norm        float64
	Iterations  int
	Evaluations int
	Status      Status
}

type LevenbergMarquardt struct {
	cfg Config
}

func NewLevenbergMarquardt(cfg Config) *LevenbergMarquardt {
	def := DefaultConfig()
	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = def.MaxEvaluations
	}
	if cfg.InitialDamping <= 0 {
		cfg.InitialDamping = def.InitialDamping
	}
	if cfg.MaxDamping <= 0 {
		cfg.MaxDamping = def.MaxDamping
	}
	if cfg.SlowIterations <= 0 {
		cfg.SlowIterations = def.SlowIterations
	}
	return &LevenbergMarquardt{cfg: cfg}
}

func (lm *LevenbergMarquardt) Config() Config { return lm.cfg }

// Solve searches for x with f(x) = 0 starting from x0.
func (lm *LevenbergMarquardt) Solve(f Func, x0 []float64) Result {
	cfg := lm.cfg
	n := len(x0)
	res := Result{X: append([]float64(nil), x0...)}

	eval := func(x []float64) []float64 {
		res.Evaluations++
		return f(x)
	}

	fx := eval(res.X)
	res.F = fx
	if !finite(fx) {
		res.Norm = math.Inf(1)
		res.Status = InvalidInput
		return res
	}
	m := len(fx)
	norm := floats.Norm(fx, 2)
	res.Norm = norm

	if n == 0 || m == 0 {
		res.Status = Converged
		return res
	}

	lambda := cfg.InitialDamping
	slow := 0
	jac := mat.NewDense(m, n, nil)

	for {
		if floats.Norm(fx, math.Inf(1)) <= cfg.FTol {
			res.Status = Converged
			return res
		}
		if res.Evaluations+n > cfg.MaxEvaluations {
			res.Status = MaxEvaluations
			return res
		}

		lm.jacobian(jac, eval, res.X, fx)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		g := mat.NewVecDense(n, nil)
		g.MulVec(jac.T(), mat.NewVecDense(m, fx))

		accepted := false
		for !accepted {
			delta, ok := dampedStep(&jtj, g, lambda)
			if ok {
				step := floats.Norm(delta, 2)
				xnorm := floats.Norm(res.X, 2)
				small := step <= cfg.XTol*(xnorm+cfg.XTol) &&
					predicted(jac, delta, fx) <= 0.5*norm

				trial := make([]float64, n)
				floats.AddTo(trial, res.X, delta)
				ft := eval(trial)
				tnorm := floats.Norm(ft, 2)

				if finite(ft) && tnorm < norm {
					ratio := tnorm / norm
					res.X, fx, norm = trial, ft, tnorm
					res.F, res.Norm = fx, norm
					lambda = math.Max(lambda/3, 1e-15)
					accepted = true
					if ratio > 0.99 {
						slow++
					} else {
						slow = 0
					}
				}
				if small && lambda <= 1 {
					res.Iterations++
					res.Status = Converged
					return res
				}
			}
			if !accepted {
				lambda *= 2
				if lambda > cfg.MaxDamping {
					res.Status = Stalled
					return res
				}
			}
			if res.Evaluations >= cfg.MaxEvaluations {
				res.Status = MaxEvaluations
				return res
			}
		}
		res.Iterations++
		if slow >= cfg.SlowIterations {
			res.Status = Stalled
			return res
		}
	}
}

func (lm *LevenbergMarquardt) jacobian(dst *mat.Dense, eval Func, x, fx []float64) {
	h := math.Sqrt(2.220446049250313e-16) * math.Max(1, floats.Norm(x, math.Inf(1)))
	fd.Jacobian(dst, func(y, x []float64) {
		copy(y, eval(x))
	}, x, &fd.JacobianSettings{
		Formula:     fd.Forward,
		OriginValue: fx,
		Step:        h,
	})
}

// dampedStep solves (JᵀJ + λ·diag(JᵀJ)) δ = -Jᵀf.
func dampedStep(jtj *mat.Dense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	n, _ := jtj.Dims()
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a.SetSym(i, j, jtj.At(i, j))
		}
		d := jtj.At(i, i)
		if d < 1e-300 {
			d = 1
		}
		a.SetSym(i, i, jtj.At(i, i)+lambda*d)
	}

	rhs := mat.NewVecDense(n, nil)
	rhs.ScaleVec(-1, g)

	delta := mat.NewVecDense(n, nil)
	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(delta, rhs); err == nil && finite(delta.RawVector().Data) {
			return delta.RawVector().Data, true
		}
	}
	if err := delta.SolveVec(a, rhs); err != nil || !finite(delta.RawVector().Data) {
		return nil, false
	}
	return delta.RawVector().Data, true
}

// predicted is ‖f + J·δ‖, the residual the linear model expects after the
// step. It stays near ‖f‖ at stationary points that are not roots.
func predicted(jac *mat.Dense, delta, fx []float64) float64 {
	m, _ := jac.Dims()
	p := mat.NewVecDense(m, nil)
	p.MulVec(jac, mat.NewVecDense(len(delta), delta))
	p.AddVec(p, mat.NewVecDense(m, fx))
	return mat.Norm(p, 2)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
