// Package chemtest builds small reaction networks for tests.
package chemtest

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/microkin/internal/chem"
)

// Hydrogen returns the two-step hydrogen evolution network
//
//	V: H+ + e- + * <-> H*
//	H: H* + H+ + e- <-> H2 + *
//
// on a cathode at 298.15 K with transition-state pre-exponentials and
// formation-energy thermochemistry, swept from 0 to 0.5 V in 10 mV steps.
func Hydrogen() *chem.Dataset {
	species := &chem.Species{
		Reactants:           []string{"H+"},
		Products:            []string{"H2"},
		Adsorbed:            []string{"H*"},
		Catalyst:            []string{"*"},
		C0Reactants:         []float64{1},
		C0Products:          []float64{0},
		Occupancy:           mat.NewDense(1, 1, []float64{1}),
		GFormationReactants: []float64{0},
		GFormationProducts:  []float64{0},
		GFormationAdsorbed:  []float64{-0.1},
	}
	reactions, err := chem.BuildReactions(
		[]string{"V", "H"},
		[]string{"H+ + e- + * <-> H*", "H* + H+ + e- <-> H2 + *"},
		[]float64{0.3, 0.7},
		species,
	)
	if err != nil {
		panic(err)
	}
	reactions.Ga = []float64{0.2, 0.3}

	potential, err := chem.SweepPotential(0, 0.5, 0.01)
	if err != nil {
		panic(err)
	}
	params := &chem.Parameters{
		Temperature:      298.15,
		InitialPotential: 0,
		FinalPotential:   0.5,
		StepPotential:    0.01,
		Potential:        potential,
		PreExponential:   1,
		TransitionState:  true,
		Kappa:            1,
		M:                1,
		Chemical:         true,
		GFormationInput:  true,
	}
	return &chem.Dataset{Parameters: params, Species: species, Reactions: reactions}
}

// Bare strips every optional rate contribution from ds: pre-exponential 1,
// no experimental constants, no thermochemistry.
func Bare(ds *chem.Dataset) *chem.Dataset {
	ds = ds.Clone()
	p := ds.Parameters
	p.PreExponential = 1
	p.TransitionState = false
	p.FluxBased = false
	p.Chemical = false
	p.Experimental = false
	return ds
}

// HydrogenFlow is [Hydrogen] run as a stirred-tank reactor with unit
// pre-exponential and Fv/Ac = 1, swept from 0 to 0.1 V.
func HydrogenFlow() *chem.Dataset {
	ds := Bare(Hydrogen())
	p := ds.Parameters
	p.Mode = chem.Flow
	p.VolumetricFlow = 1
	p.CatalystArea = 1
	p.FinalPotential = 0.1
	p.Potential, _ = chem.SweepPotential(0, 0.1, 0.01)
	return ds
}

// NegativeCoverage is a static hydrogen network with a negative forward
// constant on the Heyrovsky step. Its steady state has θ(H*) < 0.
func NegativeCoverage() *chem.Dataset {
	ds := Bare(Hydrogen())
	p := ds.Parameters
	p.Experimental = true
	p.FinalPotential = 0.02
	p.Potential, _ = chem.SweepPotential(0, 0.02, 0.01)
	ds.Reactions.KF = []float64{1, -10}
	ds.Reactions.KB = []float64{1, 1}
	return ds
}
