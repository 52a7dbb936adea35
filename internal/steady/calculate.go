package steady

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/kinetics"
)

// Calculate sweeps the dataset's own potential grid on an owned copy of ds
// and flags negative coverages without discarding the result.
func Calculate(ctx context.Context, ds *chem.Dataset, cfg Config, log logrus.FieldLogger) (*Result, error) {
	kin, err := kinetics.New(ds, log)
	if err != nil {
		return nil, err
	}
	return Run(ctx, kin, cfg, log, ds.Parameters.Potential)
}

// Run sweeps potentials with an existing kinetics model.
func Run(ctx context.Context, kin *kinetics.Kinetics, cfg Config, log logrus.FieldLogger, potentials []float64) (*Result, error) {
	s := New(kin, cfg, log)
	log.WithFields(logrus.Fields{
		"mode":   s.strategy.Mode(),
		"points": len(potentials),
	}).Info("steady-state sweep")

	res, err := s.Sweep(ctx, potentials)
	if err != nil {
		return res, err
	}

	var covErr *CoverageError
	if err := res.CheckCoverage(); errors.As(err, &covErr) {
		res.NegativeCoverage = true
		log.WithFields(logrus.Fields{
			"potential": covErr.Potential,
			"species":   covErr.Species,
			"theta":     covErr.Value,
		}).Warn("negative coverage in converged solution")
	}
	return res, nil
}
