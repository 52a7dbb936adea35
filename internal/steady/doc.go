// Package steady solves the steady-state balance of a reaction network over
// a potential sweep.
//
// The unknowns and the right-hand side depend on the reactor mode and are
// provided by a [Strategy]:
//
//   - static: coverages only, bulk concentrations fixed at c0, rhs = 0
//   - flow: [cR, cP, θ], rhs = (c - c0)·Fv/Ac for bulk species and 0 for θ
//
// # Continuation
//
// [Solver.Sweep] visits potentials strictly in order and seeds every solve
// with the previous solution. Coverage fronts make the equations stiff and a
// cold start often fails to converge, so the sweep is never parallelized.
// A failed point aborts the sweep with a [*ConvergenceError].
//
// # Relaxation
//
// With [Relaxation.Enabled] a failed point is first integrated in time from
// the previous solution ([Solver.Relax]) and solved again from the relaxed
// state. The residual of both modes is dx/dt, so the integration follows the
// physical transient.
//
// # Example
//
//	res, err := steady.Calculate(ctx, ds, steady.DefaultConfig(), log)
//	if err != nil {
//	    return err
//	}
//	if res.NegativeCoverage {
//	    // inspect res.Theta
//	}
//
// # Thread Safety
//
// A Solver is not safe for concurrent use. [Ensemble] runs independent
// sweeps, each on its own copy of the dataset.
package steady
