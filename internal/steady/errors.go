package steady

import (
	"errors"
	"fmt"

	"github.com/san-kum/microkin/internal/nlsolve"
)

var (
	// ErrNotConverged matches every root-finding failure of a sweep.
	ErrNotConverged = errors.New("steady: root finder did not converge")

	// ErrStalled indicates the root finder stopped making progress.
	ErrStalled = errors.New("steady: iteration is not making good progress")

	// ErrMaxEvaluations indicates the residual evaluation budget was spent.
	ErrMaxEvaluations = errors.New("steady: residual evaluation budget exhausted")

	// ErrInvalidState indicates a non-finite residual at the initial guess.
	ErrInvalidState = errors.New("steady: residual is NaN or Inf at the initial guess")

	// ErrNegativeCoverage indicates a converged solution with θ < 0.
	ErrNegativeCoverage = errors.New("steady: negative coverage")

	// ErrEmptySweep indicates a sweep without potentials.
	ErrEmptySweep = errors.New("steady: empty potential sweep")
)

// ConvergenceError reports the sweep point at which the root finder failed.
type ConvergenceError struct {
	Step        int
	Potential   float64
	State       []float64
	Iterations  int
	Evaluations int
	Wrapped     error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("convergence failed at potential %g V (step %d, %d evaluations): %v",
		e.Potential, e.Step, e.Evaluations, e.Wrapped)
}

func (e *ConvergenceError) Unwrap() error {
	return e.Wrapped
}

func (e *ConvergenceError) Is(target error) bool {
	return target == ErrNotConverged
}

func statusError(s nlsolve.Status) error {
	switch s {
	case nlsolve.Stalled:
		return ErrStalled
	case nlsolve.MaxEvaluations:
		return ErrMaxEvaluations
	case nlsolve.InvalidInput:
		return ErrInvalidState
	}
	return ErrNotConverged
}

// CoverageError names the first negative coverage of a result.
type CoverageError struct {
	Step      int
	Potential float64
	Species   string
	Value     float64
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("negative coverage of %s (%g) at potential %g V", e.Species, e.Value, e.Potential)
}

func (e *CoverageError) Unwrap() error {
	return ErrNegativeCoverage
}
