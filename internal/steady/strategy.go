package steady

import (
	"slices"

	"github.com/san-kum/microkin/internal/chem"
)

// Strategy defines the unknowns and the right-hand side of one reactor mode.
type Strategy interface {
	Mode() chem.Mode
	// Initialize returns the cold-start guess.
	Initialize() []float64
	// Unzip splits an unknown vector into bulk concentrations and coverages.
	Unzip(x []float64) (cR, cP, theta []float64)
	RightHandSide(cR, cP, theta []float64) []float64
}

// NewStrategy selects the strategy of the dataset's reactor mode.
func NewStrategy(ds *chem.Dataset) Strategy {
	if ds.Parameters.Mode == chem.Flow {
		return &flow{
			species:  ds.Species,
			exchange: ds.Parameters.VolumetricFlow / ds.Parameters.CatalystArea,
		}
	}
	return &static{species: ds.Species}
}

type static struct {
	species *chem.Species
}

func (s *static) Mode() chem.Mode { return chem.Static }

func (s *static) Initialize() []float64 {
	return make([]float64, len(s.species.Adsorbed))
}

func (s *static) Unzip(x []float64) (cR, cP, theta []float64) {
	return s.species.C0Reactants, s.species.C0Products, x
}

func (s *static) RightHandSide(_, _, theta []float64) []float64 {
	return make([]float64, len(theta))
}

type flow struct {
	species *chem.Species
	// exchange is Fv/Ac.
	exchange float64
}

func (f *flow) Mode() chem.Mode { return chem.Flow }

func (f *flow) Initialize() []float64 {
	nR, nP, nA := len(f.species.Reactants), len(f.species.Products), len(f.species.Adsorbed)
	x := make([]float64, nR+nP+nA)
	for i := 0; i < nR; i++ {
		x[i] = 1
	}
	return x
}

func (f *flow) Unzip(x []float64) (cR, cP, theta []float64) {
	nR, nP := len(f.species.Reactants), len(f.species.Products)
	return x[:nR], x[nR : nR+nP], x[nR+nP:]
}

func (f *flow) RightHandSide(cR, cP, theta []float64) []float64 {
	rhs := make([]float64, 0, len(cR)+len(cP)+len(theta))
	for i, c := range cR {
		rhs = append(rhs, (c-f.species.C0Reactants[i])*f.exchange)
	}
	for i, c := range cP {
		rhs = append(rhs, (c-f.species.C0Products[i])*f.exchange)
	}
	return append(rhs, make([]float64, len(theta))...)
}

func cloneAll(vs ...[]float64) [][]float64 {
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = slices.Clone(v)
	}
	return out
}
