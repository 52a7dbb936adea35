package chem

import (
	"fmt"
	"math"
	"slices"
)

// Mode selects the reactor model.
type Mode int

const (
	// Static keeps bulk concentrations at c0 and solves coverages only.
	Static Mode = iota
	// Flow is the continuous stirred-tank reactor: bulk concentrations are
	// solved together with coverages against a convective term.
	Flow
)

func (m Mode) String() string {
	if m == Flow {
		return "cstr"
	}
	return "static"
}

// RateSource selects where the pre-exponential factor comes from.
type RateSource int

const (
	Fixed RateSource = iota
	FluxBased
	TransitionState
)

func (s RateSource) String() string {
	switch s {
	case FluxBased:
		return "j*"
	case TransitionState:
		return "tst"
	}
	return "fixed"
}

// Parameters are the operating conditions of a run.
type Parameters struct {
	// Temperature in kelvin.
	Temperature float64

	InitialPotential float64
	FinalPotential   float64
	StepPotential    float64
	Potential        []float64

	Anode bool
	Mode  Mode

	VolumetricFlow float64
	CatalystArea   float64

	PreExponential  float64
	FluxBased       bool
	JStar           float64
	TransitionState bool
	Kappa           float64
	M               float64

	Experimental    bool
	Chemical        bool
	DGReactionInput bool
	GFormationInput bool
}

// Source reports the active pre-exponential model. Transition state theory
// takes precedence over j*, which takes precedence over the fixed value.
func (p *Parameters) Source() RateSource {
	switch {
	case p.TransitionState:
		return TransitionState
	case p.FluxBased:
		return FluxBased
	}
	return Fixed
}

// Electrode is +1 for an anode and -1 for a cathode.
func (p *Parameters) Electrode() float64 {
	if p.Anode {
		return 1
	}
	return -1
}

// Clone returns a deep copy.
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	c := *p
	c.Potential = slices.Clone(p.Potential)
	return &c
}

// SweepPotential returns initial, initial+step, ... up to and including
// final. Floating point drift up to 1e-9 steps is absorbed so the final
// value is not lost or duplicated.
func SweepPotential(initial, final, step float64) ([]float64, error) {
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step %g", ErrBadSweep, step)
	}
	span := (final - initial) / step
	if span < -1e-9 {
		return nil, fmt.Errorf("%w: step %g does not reach %g from %g", ErrBadSweep, step, final, initial)
	}
	n := int(math.Floor(span+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = initial + float64(i)*step
	}
	return out, nil
}
