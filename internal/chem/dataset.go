package chem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dataset is the complete input of a run.
type Dataset struct {
	Directory  string
	Parameters *Parameters
	Species    *Species
	Reactions  *Reactions
}

// Clone returns a deep copy that shares nothing with d.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Directory:  d.Directory,
		Parameters: d.Parameters.Clone(),
		Species:    d.Species.Clone(),
		Reactions:  d.Reactions.Clone(),
	}
}

// Nuc is Nu without the catalyst columns.
func (d *Dataset) Nuc() *mat.Dense {
	r := d.Reactions.Len()
	cols := d.Species.Bulk() + len(d.Species.Adsorbed)
	return d.Reactions.Nu.Slice(0, r, 0, cols).(*mat.Dense)
}

// Nua is the adsorbed-species block of Nuc.
func (d *Dataset) Nua() *mat.Dense {
	r := d.Reactions.Len()
	lo := d.Species.Bulk()
	return d.Reactions.Nu.Slice(0, r, lo, lo+len(d.Species.Adsorbed)).(*mat.Dense)
}

// Nux is the balance matrix of the active reactor mode.
func (d *Dataset) Nux() *mat.Dense {
	if d.Parameters.Mode == Flow {
		return d.Nuc()
	}
	return d.Nua()
}

// Validate checks that every vector and matrix agrees with the catalog.
func (d *Dataset) Validate() error {
	if d.Parameters == nil || d.Species == nil || d.Reactions == nil {
		return fmt.Errorf("%w: incomplete dataset", ErrDimensionMismatch)
	}
	s, r, p := d.Species, d.Reactions, d.Parameters

	if len(s.Adsorbed) == 0 || len(s.Catalyst) == 0 {
		return fmt.Errorf("%w: need at least one adsorbed species and one catalyst site", ErrDimensionMismatch)
	}
	if len(s.C0Reactants) != len(s.Reactants) || len(s.C0Products) != len(s.Products) {
		return fmt.Errorf("%w: initial concentrations", ErrDimensionMismatch)
	}
	if s.Occupancy == nil {
		return fmt.Errorf("%w: missing occupancy matrix", ErrDimensionMismatch)
	}
	if rows, cols := s.Occupancy.Dims(); rows != len(s.Catalyst) || cols != len(s.Adsorbed) {
		return fmt.Errorf("%w: occupancy is %dx%d, want %dx%d",
			ErrDimensionMismatch, rows, cols, len(s.Catalyst), len(s.Adsorbed))
	}

	n := r.Len()
	if rows, cols := r.Nu.Dims(); rows != n || cols != s.Len() {
		return fmt.Errorf("%w: nu is %dx%d, want %dx%d", ErrDimensionMismatch, rows, cols, n, s.Len())
	}
	if len(r.Beta) != n || len(r.Ne) != n {
		return fmt.Errorf("%w: beta/ne length", ErrDimensionMismatch)
	}
	if p.Experimental && (len(r.KF) != n || len(r.KB) != n) {
		return fmt.Errorf("%w: experimental rate constants", ErrDimensionMismatch)
	}
	if p.Chemical {
		if len(r.Ga) != n {
			return fmt.Errorf("%w: activation energies", ErrDimensionMismatch)
		}
		if p.DGReactionInput {
			if len(r.DGReaction) != n {
				return fmt.Errorf("%w: reaction free energies", ErrDimensionMismatch)
			}
		} else if len(s.GFormationAdsorbed) != len(s.Adsorbed) {
			return fmt.Errorf("%w: formation energies", ErrDimensionMismatch)
		}
	}
	if len(p.Potential) == 0 {
		return fmt.Errorf("%w: empty potential sweep", ErrBadSweep)
	}
	if p.Mode == Flow && p.CatalystArea == 0 {
		return fmt.Errorf("%w: catalyst area must be non-zero in flow mode", ErrDimensionMismatch)
	}
	return nil
}
