package steady

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/kinetics"
	"github.com/san-kum/microkin/internal/nlsolve"
)

// Config tunes a sweep.
type Config struct {
	Root nlsolve.Config
	// ColdStart restarts every potential from the built-in guess instead
	// of the previous solution.
	ColdStart bool
	// Relax integrates the rate equations in time when the root finder
	// fails and retries from the relaxed state.
	Relax Relaxation
}

func DefaultConfig() Config {
	return Config{Root: nlsolve.DefaultConfig(), Relax: DefaultRelaxation()}
}

// Observer is notified after every converged potential.
type Observer interface {
	OnStep(step int, potential float64, x []float64, j float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, potential float64, x []float64, j float64)

func (f ObserverFunc) OnStep(step int, potential float64, x []float64, j float64) {
	f(step, potential, x, j)
}

type Solver struct {
	kin       *kinetics.Kinetics
	strategy  Strategy
	root      *nlsolve.LevenbergMarquardt
	cfg       Config
	log       logrus.FieldLogger
	observers []Observer
}

func New(kin *kinetics.Kinetics, cfg Config, log logrus.FieldLogger) *Solver {
	return &Solver{
		kin:       kin,
		strategy:  NewStrategy(kin.Dataset()),
		root:      nlsolve.NewLevenbergMarquardt(cfg.Root),
		cfg:       cfg,
		log:       log,
		observers: make([]Observer, 0),
	}
}

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Strategy() Strategy { return s.strategy }

// Residual is v·nux - rhs at unknowns x and overpotential eta.
func (s *Solver) Residual(x []float64, eta float64) []float64 {
	cR, cP, theta := s.strategy.Unzip(x)
	rhs := s.strategy.RightHandSide(cR, cP, theta)
	v := s.kin.Rates(eta, cR, cP, theta)
	out := s.kin.Dcdt(v)
	for i := range out {
		out[i] -= rhs[i]
	}
	return out
}

// Sweep solves every potential in order, seeding each solve with the
// previous solution.
func (s *Solver) Sweep(ctx context.Context, potentials []float64) (*Result, error) {
	if err := validateSweep(potentials); err != nil {
		return nil, err
	}

	res := newResult(s.kin.Dataset().Species, len(potentials))
	guess := s.strategy.Initialize()

	for i, eta := range potentials {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if s.cfg.ColdStart {
			guess = s.strategy.Initialize()
		}
		residual := func(x []float64) []float64 {
			return s.Residual(x, eta)
		}
		sol := s.root.Solve(residual, guess)

		if sol.Status != nlsolve.Converged && s.cfg.Relax.Enabled {
			retry, err := s.retryRelaxed(ctx, i, eta, guess, sol)
			if err != nil {
				return res, err
			}
			sol = retry
		}

		if sol.Status != nlsolve.Converged {
			err := &ConvergenceError{
				Step:        i,
				Potential:   eta,
				State:       sol.X,
				Iterations:  sol.Iterations,
				Evaluations: sol.Evaluations,
				Wrapped:     statusError(sol.Status),
			}
			s.log.WithFields(logrus.Fields{
				"potential": eta,
				"step":      i,
				"status":    sol.Status.String(),
			}).Error("steady state not found")
			return nil, err
		}

		cR, cP, theta := s.strategy.Unzip(sol.X)
		v := s.kin.Rates(eta, cR, cP, theta)
		j := s.kin.Current(v)

		rows := cloneAll(cR, cP, theta)
		res.Potential = append(res.Potential, eta)
		res.CReactants = append(res.CReactants, rows[0])
		res.CProducts = append(res.CProducts, rows[1])
		res.Theta = append(res.Theta, rows[2])
		res.Fval = append(res.Fval, s.Residual(sol.X, eta))
		res.J = append(res.J, j)
		res.Iterations = append(res.Iterations, sol.Iterations)
		res.Evaluations = append(res.Evaluations, sol.Evaluations)

		s.log.WithFields(logrus.Fields{
			"potential":   eta,
			"step":        i,
			"j":           j,
			"evaluations": sol.Evaluations,
		}).Debug("steady state found")

		for _, o := range s.observers {
			o.OnStep(i, eta, sol.X, j)
		}
		guess = sol.X
	}
	return res, nil
}

func validateSweep(potentials []float64) error {
	if len(potentials) == 0 {
		return ErrEmptySweep
	}
	for i, p := range potentials {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("potential %d is not finite: %v", i, p)
		}
	}
	return nil
}
