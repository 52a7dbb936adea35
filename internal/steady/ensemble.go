package steady

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem"
)

// Variant modifies a private copy of a dataset before it is solved.
type Variant struct {
	Name  string
	Apply func(ds *chem.Dataset)
}

// TemperatureVariants returns one variant per temperature in kelvin.
func TemperatureVariants(temperatures ...float64) []Variant {
	out := make([]Variant, len(temperatures))
	for i, t := range temperatures {
		t := t
		out[i] = Variant{
			Name:  fmt.Sprintf("T=%gK", t),
			Apply: func(ds *chem.Dataset) { ds.Parameters.Temperature = t },
		}
	}
	return out
}

// Ensemble solves variants of one dataset concurrently.
type Ensemble struct {
	base *chem.Dataset
	cfg  Config
	log  logrus.FieldLogger
}

func NewEnsemble(ds *chem.Dataset, cfg Config, log logrus.FieldLogger) *Ensemble {
	return &Ensemble{base: ds, cfg: cfg, log: log}
}

// Run returns results in variant order. The first failure is returned
// after all variants finish.
func (e *Ensemble) Run(ctx context.Context, variants []Variant) ([]*Result, error) {
	results := make([]*Result, len(variants))
	errs := make([]error, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(idx int, v Variant) {
			defer wg.Done()

			ds := e.base.Clone()
			if v.Apply != nil {
				v.Apply(ds)
			}
			log := e.log.WithField("variant", v.Name)
			results[idx], errs[idx] = Calculate(ctx, ds, e.cfg, log)
		}(i, v)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", variants[i].Name, err)
		}
	}
	return results, nil
}
