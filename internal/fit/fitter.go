package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/kinetics"
	"github.com/san-kum/microkin/internal/logging"
	"github.com/san-kum/microkin/internal/optim"
	"github.com/san-kum/microkin/internal/steady"
)

type Method int

const (
	DifferentialEvolution Method = iota
	Grid
)

func (m Method) String() string {
	if m == Grid {
		return "grid"
	}
	return "de"
}

// ParseMethod accepts "de" and "grid".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "de", "differential-evolution":
		return DifferentialEvolution, nil
	case "grid":
		return Grid, nil
	}
	return 0, fmt.Errorf("unknown fit method %q", s)
}

// Bounds scale around the starting energies.
const (
	LowerFactor = 0.8
	UpperFactor = 1.2
)

// Progress is published once per optimizer generation.
type Progress struct {
	Generation  int
	Objective   float64
	Convergence float64
	Evaluations int
	X           []float64
}

type Options struct {
	Method     Method
	Optimizer  optim.Settings
	Steady     steady.Config
	GridPoints int
	// Progress receives every per-generation update. Sends block until
	// the update is read or the fit is cancelled, so the receiver must
	// drain it. Run closes it on return.
	Progress chan<- Progress
}

func DefaultOptions() Options {
	return Options{
		Method:     DifferentialEvolution,
		Optimizer:  optim.DefaultSettings(),
		Steady:     steady.DefaultConfig(),
		GridPoints: 5,
	}
}

type Fitter struct {
	kin        *kinetics.Kinetics
	potentials []float64
	jExp       []float64
	g0         []float64
	bounds     []optim.Bound
	opts       Options
	log        logrus.FieldLogger

	// sweepLog silences the per-sweep messages of the inner loop.
	sweepLog logrus.FieldLogger

	zeroOnce sync.Once
	mu       sync.Mutex
	history  []float64
}

// New prepares a fit of ds against (potentials, jExp). The dataset sweep is
// replaced by the experimental potentials; ds itself is not modified.
func New(ds *chem.Dataset, potentials, jExp []float64, opts Options, log logrus.FieldLogger) (*Fitter, error) {
	if len(potentials) == 0 {
		return nil, steady.ErrEmptySweep
	}
	if len(potentials) != len(jExp) {
		return nil, fmt.Errorf("%w: %d potentials and %d currents", chem.ErrDimensionMismatch, len(potentials), len(jExp))
	}
	if !ds.Parameters.Chemical {
		return nil, kinetics.ErrNoThermochemistry
	}

	ds = ds.Clone()
	ds.Parameters.Potential = slices.Clone(potentials)
	kin, err := kinetics.New(ds, log)
	if err != nil {
		return nil, err
	}

	if ds.Parameters.DGReactionInput {
		log.Warn("tabulated DG_reaction is ignored while fitting; reaction energies follow the trial formation energies")
	}

	g0 := slices.Concat(ds.Reactions.Ga, ds.Species.GFormationAdsorbed)
	bounds := make([]optim.Bound, len(g0))
	for i, g := range g0 {
		lo, hi := g*LowerFactor, g*UpperFactor
		bounds[i] = optim.Bound{Lo: math.Min(lo, hi), Hi: math.Max(lo, hi)}
	}

	if opts.GridPoints <= 0 {
		opts.GridPoints = DefaultOptions().GridPoints
	}

	log.WithFields(logrus.Fields{
		"parameters": len(g0),
		"points":     len(potentials),
		"method":     opts.Method.String(),
	}).Info("fitter ready")

	return &Fitter{
		kin:        kin,
		potentials: slices.Clone(potentials),
		jExp:       slices.Clone(jExp),
		g0:         g0,
		bounds:     bounds,
		opts:       opts,
		log:        log,
		sweepLog:   logging.Discard(),
	}, nil
}

// Initial returns the starting energies concat(Ga, G_formation_ads).
func (f *Fitter) Initial() []float64 { return slices.Clone(f.g0) }

func (f *Fitter) Bounds() []optim.Bound { return slices.Clone(f.bounds) }

// Names labels the entries of the search vector.
func (f *Fitter) Names() []string {
	ds := f.kin.Dataset()
	names := make([]string, 0, len(f.g0))
	for _, id := range ds.Reactions.IDs {
		names = append(names, "Ga("+id+")")
	}
	for _, s := range ds.Species.Adsorbed {
		names = append(names, "G("+s+")")
	}
	return names
}

// Unzip splits a search vector into activation and formation energies.
func (f *Fitter) Unzip(x []float64) (ga, gf []float64) {
	n := f.kin.Dataset().Reactions.Len()
	return slices.Clone(x[:n]), slices.Clone(x[n:])
}

// History returns every objective value computed so far.
func (f *Fitter) History() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.history)
}

// Current runs a sweep with energies x and returns j at the experimental
// potentials.
func (f *Fitter) Current(ctx context.Context, x []float64) ([]float64, error) {
	ga, gf := f.Unzip(x)
	kin, err := f.kin.WithEnergies(ga, gf)
	if err != nil {
		return nil, err
	}
	res, err := steady.Run(ctx, kin, f.opts.Steady, f.sweepLog, f.potentials)
	if err != nil {
		return nil, err
	}
	return res.J, nil
}

// Objective scores energies x. It never fails: errors and zero measured
// currents return +Inf.
func (f *Fitter) Objective(ctx context.Context, x []float64) float64 {
	if slices.Contains(f.jExp, 0) {
		f.zeroOnce.Do(func() {
			f.log.Warn("experimental current contains zero; objective is undefined")
		})
		return math.Inf(1)
	}

	j, err := f.Current(ctx, x)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			f.log.WithError(err).WithField("x", x).Debug("objective evaluation failed")
		}
		return math.Inf(1)
	}

	var sum float64
	for i, je := range f.jExp {
		d := je - math.Abs(j[i])
		sum += d * d / je
	}
	f.mu.Lock()
	f.history = append(f.history, sum)
	f.mu.Unlock()
	return sum
}
