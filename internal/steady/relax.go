package steady

import (
	"context"
	"errors"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/microkin/internal/integrators"
	"github.com/san-kum/microkin/internal/nlsolve"
)

// Relaxation configures the transient fallback. The residual of both
// reactor modes is the time derivative of the unknowns, so integrating it
// follows the physical approach to the steady state.
type Relaxation struct {
	Enabled bool
	// Tol is the residual reduction, relative to the starting point, at
	// which the integration hands over to the root finder.
	Tol float64
	// ErrorTol bounds the relative local error of a step.
	ErrorTol float64
	MaxSteps int
}

func DefaultRelaxation() Relaxation {
	return Relaxation{
		Tol:      1e-6,
		ErrorTol: 1e-6,
		MaxSteps: 10000,
	}
}

// Relax integrates dx/dt = Residual(x, eta) from x0 until the residual has
// fallen by the configured factor.
func (s *Solver) Relax(ctx context.Context, x0 []float64, eta float64) (integrators.Result, error) {
	cfg := s.cfg.Relax
	def := DefaultRelaxation()
	if cfg.Tol <= 0 {
		cfg.Tol = def.Tol
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}

	start := -1.0
	stop := func(_ float64, _, dxdt []float64) bool {
		norm := floats.Norm(dxdt, math.Inf(1))
		if start < 0 {
			start = norm
		}
		return norm <= cfg.Tol*start
	}
	dp := integrators.NewDormandPrince(cfg.ErrorTol)
	return dp.Integrate(ctx, func(_ float64, x []float64) []float64 {
		return s.Residual(x, eta)
	}, x0, 0, cfg.MaxSteps, stop)
}

// retryRelaxed relaxes from the failed guess and solves again. Only
// cancellation is returned as an error; any other failure returns the
// failed result for the caller to report.
func (s *Solver) retryRelaxed(ctx context.Context, step int, eta float64, guess []float64, failed nlsolve.Result) (nlsolve.Result, error) {
	log := s.log.WithFields(logrus.Fields{"potential": eta, "step": step})
	log.WithField("status", failed.Status.String()).Warn("root finder failed, relaxing in time")

	relaxed, err := s.Relax(ctx, guess, eta)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failed, err
	}
	if err != nil {
		log.WithError(err).Warn("relaxation failed")
		return failed, nil
	}

	sol := s.root.Solve(func(x []float64) []float64 {
		return s.Residual(x, eta)
	}, relaxed.X)
	sol.Evaluations += failed.Evaluations + relaxed.Evaluations
	log.WithFields(logrus.Fields{
		"steps":       relaxed.Steps,
		"time":        relaxed.T,
		"converged":   sol.Status == nlsolve.Converged,
		"evaluations": sol.Evaluations,
	}).Info("relaxed")
	return sol, nil
}
