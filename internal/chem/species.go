package chem

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Electron is the catalog name of the transferred electron.
const Electron = "e-"

// Role classifies a species in the catalog.
type Role int

const (
	Reactant Role = iota
	Product
	Adsorbed
	Catalyst
)

// ParseRole maps an RPACe code to a Role.
func ParseRole(code string) (Role, error) {
	switch code {
	case "R":
		return Reactant, nil
	case "P":
		return Product, nil
	case "A":
		return Adsorbed, nil
	case "C":
		return Catalyst, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, code)
}

func (r Role) String() string {
	switch r {
	case Reactant:
		return "R"
	case Product:
		return "P"
	case Adsorbed:
		return "A"
	case Catalyst:
		return "C"
	}
	return "?"
}

// Species is the catalog of a reaction network.
type Species struct {
	Reactants []string
	Products  []string
	Adsorbed  []string
	Catalyst  []string

	C0Reactants []float64
	C0Products  []float64

	// Occupancy counts the sites each adsorbed species takes on each
	// catalyst type (catalyst × adsorbed).
	Occupancy *mat.Dense

	GFormationReactants []float64
	GFormationProducts  []float64
	GFormationAdsorbed  []float64
}

// List returns the catalog in matrix column order, electron last.
func (s *Species) List() []string {
	out := make([]string, 0, s.Len()+1)
	out = append(out, s.Reactants...)
	out = append(out, s.Products...)
	out = append(out, s.Adsorbed...)
	out = append(out, s.Catalyst...)
	return append(out, Electron)
}

// Len is the number of catalog species, electron excluded.
func (s *Species) Len() int {
	return len(s.Reactants) + len(s.Products) + len(s.Adsorbed) + len(s.Catalyst)
}

// Bulk is the number of reactants plus products.
func (s *Species) Bulk() int { return len(s.Reactants) + len(s.Products) }

// Index returns the catalog column of name, or -1.
func (s *Species) Index(name string) int {
	return slices.Index(s.List(), name)
}

// Clone returns a deep copy.
func (s *Species) Clone() *Species {
	if s == nil {
		return nil
	}
	c := &Species{
		Reactants:           slices.Clone(s.Reactants),
		Products:            slices.Clone(s.Products),
		Adsorbed:            slices.Clone(s.Adsorbed),
		Catalyst:            slices.Clone(s.Catalyst),
		C0Reactants:         slices.Clone(s.C0Reactants),
		C0Products:          slices.Clone(s.C0Products),
		GFormationReactants: slices.Clone(s.GFormationReactants),
		GFormationProducts:  slices.Clone(s.GFormationProducts),
		GFormationAdsorbed:  slices.Clone(s.GFormationAdsorbed),
	}
	if s.Occupancy != nil {
		c.Occupancy = mat.DenseCopyOf(s.Occupancy)
	}
	return c
}
