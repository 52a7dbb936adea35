package fit

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/kinetics"
	"github.com/san-kum/microkin/internal/optim"
)

// Fit is the outcome of Run.
type Fit struct {
	Names       []string
	Ga          []float64
	GFormation  []float64
	X           []float64
	Initial     []float64
	Objective   float64
	Generations int
	Evaluations int
	Converged   bool
	Message     string
	// History holds every objective value in evaluation order.
	History []float64
}

// Apply returns a copy of ds carrying the fitted energies. A tabulated
// DG_reaction is replaced by the one derived from the fitted formation
// energies, the model the fit was scored against.
func (fit *Fit) Apply(ds *chem.Dataset) (*chem.Dataset, error) {
	if len(fit.Ga) != ds.Reactions.Len() || len(fit.GFormation) != len(ds.Species.Adsorbed) {
		return nil, fmt.Errorf("%w: fit has %d activation and %d formation energies",
			chem.ErrDimensionMismatch, len(fit.Ga), len(fit.GFormation))
	}
	out := ds.Clone()
	out.Reactions.Ga = slices.Clone(fit.Ga)
	out.Species.GFormationAdsorbed = slices.Clone(fit.GFormation)
	if out.Parameters.DGReactionInput {
		out.Reactions.DGReaction = kinetics.ReactionFreeEnergy(out.Nua(), fit.GFormation)
	}
	return out, nil
}

// Run searches the bounded energy space. On cancellation the best point so
// far is returned together with ctx.Err().
func (f *Fitter) Run(ctx context.Context) (*Fit, error) {
	if f.opts.Progress != nil {
		defer close(f.opts.Progress)
	}

	var (
		res *optim.Result
		err error
	)
	switch f.opts.Method {
	case Grid:
		res, err = f.grid(ctx)
	default:
		res, err = f.evolve(ctx)
	}
	if res == nil {
		return nil, err
	}

	ga, gf := f.Unzip(res.X)
	fit := &Fit{
		Names:       f.Names(),
		Ga:          ga,
		GFormation:  gf,
		X:           slices.Clone(res.X),
		Initial:     f.Initial(),
		Objective:   res.F,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Converged:   res.Converged,
		Message:     res.Message,
		History:     f.History(),
	}
	f.log.WithFields(logrus.Fields{
		"objective":   fit.Objective,
		"generations": fit.Generations,
		"evaluations": fit.Evaluations,
		"converged":   fit.Converged,
	}).Info("fit finished")
	return fit, err
}

func (f *Fitter) evolve(ctx context.Context) (*optim.Result, error) {
	settings := f.opts.Optimizer
	user := settings.Callback
	settings.Callback = func(p optim.Progress) bool {
		f.log.WithFields(logrus.Fields{
			"generation":  p.Generation,
			"objective":   p.Best,
			"convergence": p.Convergence,
		}).Info("fit generation")
		f.publish(ctx, Progress{
			Generation:  p.Generation,
			Objective:   p.Best,
			Convergence: p.Convergence,
			Evaluations: p.Evaluations,
			X:           p.X,
		})
		if user != nil {
			return user(p)
		}
		return false
	}

	de, err := optim.NewDifferentialEvolution(f.bounds, settings)
	if err != nil {
		return nil, err
	}
	return de.Minimize(ctx, func(x []float64) float64 {
		return f.Objective(ctx, x)
	})
}

func (f *Fitter) grid(ctx context.Context) (*optim.Result, error) {
	names := f.Names()
	ranges := make([][]float64, len(f.bounds))
	for i, b := range f.bounds {
		ranges[i] = optim.Linspace(b.Lo, b.Hi, f.opts.GridPoints)
	}
	g := optim.NewGridSearch(names, ranges)

	evaluations := 0
	best, val, err := g.Search(ctx, func(params map[string]float64) (float64, error) {
		evaluations++
		x := make([]float64, len(names))
		for i, n := range names {
			x[i] = params[n]
		}
		return f.Objective(ctx, x), nil
	})
	if best == nil {
		if err == nil {
			err = fmt.Errorf("grid search over %d points found no finite objective", g.Size())
		}
		return nil, err
	}

	x := make([]float64, len(names))
	for i, n := range names {
		x[i] = best[n]
	}
	f.publish(ctx, Progress{Generation: 1, Objective: val, Evaluations: evaluations, X: x})
	return &optim.Result{
		X:           x,
		F:           val,
		Generations: 1,
		Evaluations: evaluations,
		Converged:   err == nil,
		Message:     fmt.Sprintf("exhaustive grid of %d points", g.Size()),
	}, err
}

// publish blocks until the update is taken or ctx is done.
func (f *Fitter) publish(ctx context.Context, p Progress) {
	if f.opts.Progress == nil {
		return
	}
	select {
	case f.opts.Progress <- p:
	case <-ctx.Done():
	}
}
