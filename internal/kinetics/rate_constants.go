package kinetics

import (
	"math"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/constants"
)

// Pair holds a forward and a backward value per reaction.
type Pair struct {
	Forward  []float64
	Backward []float64
}

// IsZero reports whether the pair is disabled.
func (p Pair) IsZero() bool { return p.Forward == nil && p.Backward == nil }

func (p Pair) at(backward bool, i int, fallback float64) float64 {
	if p.IsZero() {
		return fallback
	}
	if backward {
		return p.Backward[i]
	}
	return p.Forward[i]
}

func newPair(n int) Pair {
	return Pair{Forward: make([]float64, n), Backward: make([]float64, n)}
}

// Experimental wraps tabulated forward and backward constants.
func Experimental(kf, kb []float64) Pair {
	return Pair{Forward: kf, Backward: kb}
}

// Thermodynamic returns the chemical barriers [Ga, Ga+ΔG].
func Thermodynamic(ga, dg []float64) Pair {
	p := newPair(len(ga))
	for i := range ga {
		p.Forward[i] = ga[i]
		p.Backward[i] = ga[i] + dg[i]
	}
	return p
}

// Electronic returns the electrical contribution to the barriers at
// overpotential eta: sign·[-ne·β·η, ne·(1-β)·η], sign being +1 for an
// anode and -1 for a cathode.
func Electronic(eta float64, ne, beta []float64, sign float64) Pair {
	p := newPair(len(ne))
	for i := range ne {
		p.Forward[i] = sign * (-ne[i] * beta[i] * eta)
		p.Backward[i] = sign * (ne[i] * (1 - beta[i]) * eta)
	}
	return p
}

// PreExponential returns the frequency factor selected by params.
func PreExponential(params *chem.Parameters) float64 {
	switch params.Source() {
	case chem.TransitionState:
		return params.Kappa * constants.Boltzmann * math.Pow(params.Temperature, params.M) / constants.Planck
	case chem.FluxBased:
		return params.JStar / constants.Faraday
	}
	return params.PreExponential
}

// Argument returns the summed exponent ΔG_chem + ΔG_elec in eV.
func Argument(n int, chemical, electronic Pair) Pair {
	p := newPair(n)
	for i := 0; i < n; i++ {
		p.Forward[i] = chemical.at(false, i, 0) + electronic.at(false, i, 0)
		p.Backward[i] = chemical.at(true, i, 0) + electronic.at(true, i, 0)
	}
	return p
}

// Compose returns k = A · k_exp · exp(-(ΔG_chem + ΔG_elec)/(k_B·T)) for n
// reactions. Disabled pairs count as k_exp = 1 and ΔG = 0.
func Compose(n int, a float64, experimental, chemical, electronic Pair, temperature float64) Pair {
	arg := Argument(n, chemical, electronic)
	kT := constants.Boltzmann * temperature
	k := newPair(n)
	for i := 0; i < n; i++ {
		k.Forward[i] = a * experimental.at(false, i, 1) * math.Exp(-arg.Forward[i]/kT)
		k.Backward[i] = a * experimental.at(true, i, 1) * math.Exp(-arg.Backward[i]/kT)
	}
	return k
}
