package chem

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Reactions holds the elementary steps of the network.
type Reactions struct {
	IDs       []string
	Equations []string
	Beta      []float64

	// Nu is reactions × species without the electron column.
	Nu *mat.Dense
	// Ne is the electron column of the stoichiometric matrix.
	Ne []float64

	// Optional per-reaction inputs, nil when the matching toggle is off.
	KF         []float64
	KB         []float64
	Ga         []float64
	DGReaction []float64
}

// Len is the number of reactions.
func (r *Reactions) Len() int { return len(r.IDs) }

// BuildReactions parses equations against the species catalog and fills the
// stoichiometric matrix. Left-hand terms count negative, right-hand terms
// positive; a species repeated in one equation accumulates.
func BuildReactions(ids, equations []string, beta []float64, species *Species) (*Reactions, error) {
	if len(ids) != len(equations) || len(ids) != len(beta) {
		return nil, fmt.Errorf("%w: %d ids, %d equations, %d beta values",
			ErrDimensionMismatch, len(ids), len(equations), len(beta))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no reactions", ErrDimensionMismatch)
	}

	catalog := species.List()
	nSpecies := len(catalog) - 1
	nu := mat.NewDense(len(ids), nSpecies, nil)
	ne := make([]float64, len(ids))

	add := func(row int, t Term, sign float64) {
		col := slices.Index(catalog, t.Species)
		if col == nSpecies {
			ne[row] += sign * t.Coeff
			return
		}
		nu.Set(row, col, nu.At(row, col)+sign*t.Coeff)
	}

	for i, eq := range equations {
		left, right, err := ParseEquation(eq, catalog)
		if err != nil {
			return nil, fmt.Errorf("reaction %s: %w", ids[i], err)
		}
		for _, t := range left {
			add(i, t, -1)
		}
		for _, t := range right {
			add(i, t, 1)
		}
	}

	return &Reactions{
		IDs:       slices.Clone(ids),
		Equations: slices.Clone(equations),
		Beta:      slices.Clone(beta),
		Nu:        nu,
		Ne:        ne,
	}, nil
}

// Row returns reaction i over the full catalog, electron last.
func (r *Reactions) Row(i int) []float64 {
	row := mat.Row(nil, i, r.Nu)
	return append(row, r.Ne[i])
}

// Equation reconstructs reaction i from the stoichiometric matrix.
func (r *Reactions) Equation(i int, catalog []string) string {
	return FormatEquation(r.Row(i), catalog)
}

// Clone returns a deep copy.
func (r *Reactions) Clone() *Reactions {
	if r == nil {
		return nil
	}
	c := &Reactions{
		IDs:        slices.Clone(r.IDs),
		Equations:  slices.Clone(r.Equations),
		Beta:       slices.Clone(r.Beta),
		Ne:         slices.Clone(r.Ne),
		KF:         slices.Clone(r.KF),
		KB:         slices.Clone(r.KB),
		Ga:         slices.Clone(r.Ga),
		DGReaction: slices.Clone(r.DGReaction),
	}
	if r.Nu != nil {
		c.Nu = mat.DenseCopyOf(r.Nu)
	}
	return c
}
