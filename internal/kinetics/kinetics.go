package kinetics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/constants"
)

// ErrNoThermochemistry indicates energies were supplied to a network that
// does not use thermochemical barriers.
var ErrNoThermochemistry = errors.New("kinetics: thermochemistry disabled")

// Kinetics evaluates rates for one owned copy of a dataset.
type Kinetics struct {
	ds  *chem.Dataset
	log logrus.FieldLogger

	electrode     float64
	preExp        float64
	experimental  Pair
	thermodynamic Pair
}

// New clones ds and prepares the rate-constant contributions it enables.
func New(ds *chem.Dataset, log logrus.FieldLogger) (*Kinetics, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	k := &Kinetics{ds: ds.Clone(), log: log}
	p := k.ds.Parameters

	k.electrode = p.Electrode()
	k.preExp = PreExponential(p)
	if p.Experimental {
		k.experimental = Experimental(k.ds.Reactions.KF, k.ds.Reactions.KB)
	}
	if p.Chemical {
		k.thermodynamic = k.thermochemistry()
	}
	return k, nil
}

func (k *Kinetics) thermochemistry() Pair {
	r := k.ds.Reactions
	if k.ds.Parameters.DGReactionInput {
		k.log.Warn("using tabulated DG_reaction; this path is not covered by reference calculations")
		return Thermodynamic(r.Ga, r.DGReaction)
	}
	dg := ReactionFreeEnergy(k.ds.Nua(), k.ds.Species.GFormationAdsorbed)
	return Thermodynamic(r.Ga, dg)
}

// WithEnergies returns a copy of k with substituted activation and
// adsorbate formation energies. k itself is not modified. The reaction
// free energies of the copy always follow from gf, also when the dataset
// tabulates DG_reaction directly.
func (k *Kinetics) WithEnergies(ga, gf []float64) (*Kinetics, error) {
	if !k.ds.Parameters.Chemical {
		return nil, ErrNoThermochemistry
	}
	if len(ga) != k.ds.Reactions.Len() || len(gf) != len(k.ds.Species.Adsorbed) {
		return nil, fmt.Errorf("%w: got %d activation and %d formation energies, want %d and %d",
			chem.ErrDimensionMismatch, len(ga), len(gf), k.ds.Reactions.Len(), len(k.ds.Species.Adsorbed))
	}
	c := *k
	c.ds = k.ds.Clone()
	c.ds.Reactions.Ga = slices.Clone(ga)
	c.ds.Species.GFormationAdsorbed = slices.Clone(gf)
	c.ds.Parameters.DGReactionInput = false
	c.ds.Reactions.DGReaction = ReactionFreeEnergy(c.ds.Nua(), gf)
	c.thermodynamic = c.thermochemistry()
	return &c, nil
}

// Dataset returns the owned dataset. Callers must not modify it.
func (k *Kinetics) Dataset() *chem.Dataset { return k.ds }

// PreExponential returns the selected frequency factor.
func (k *Kinetics) PreExponential() float64 { return k.preExp }

// Thermodynamic returns the chemical barriers, zero when disabled.
func (k *Kinetics) Thermodynamic() Pair { return k.thermodynamic }

// Electronic returns the electrical barrier contribution at eta.
func (k *Kinetics) Electronic(eta float64) Pair {
	r := k.ds.Reactions
	return Electronic(eta, r.Ne, r.Beta, k.electrode)
}

// RateConstants returns forward and backward constants at eta.
func (k *Kinetics) RateConstants(eta float64) Pair {
	return Compose(k.ds.Reactions.Len(), k.preExp, k.experimental, k.thermodynamic,
		k.Electronic(eta), k.ds.Parameters.Temperature)
}

// Argument returns the total barrier in eV at eta.
func (k *Kinetics) Argument(eta float64) Pair {
	return Argument(k.ds.Reactions.Len(), k.thermodynamic, k.Electronic(eta))
}

// Rates returns the net rate of every reaction at eta for the given bulk
// concentrations and coverages.
func (k *Kinetics) Rates(eta float64, cR, cP, theta []float64) []float64 {
	empty := EmptySites(k.ds.Species.Occupancy, theta)
	c := Concentrate(cR, cP, theta, empty)
	return Rate(k.RateConstants(eta), c, k.ds.Reactions.Nu)
}

// Current returns the current density F·Σ ne·v.
func (k *Kinetics) Current(v []float64) float64 {
	return floats.Dot(k.ds.Reactions.Ne, v) * constants.Faraday
}

// Dcdt returns v·nux, the net production of every balanced species.
func (k *Kinetics) Dcdt(v []float64) []float64 {
	return Dcdt(v, k.ds.Nux())
}
