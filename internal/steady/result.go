package steady

import (
	"github.com/san-kum/microkin/internal/chem"
)

// Result holds a sweep. Every slice is indexed like Potential.
type Result struct {
	Reactants []string
	Products  []string
	Adsorbed  []string

	Potential  []float64
	CReactants [][]float64
	CProducts  [][]float64
	Theta      [][]float64
	// Fval is the residual at the accepted solution.
	Fval [][]float64
	J    []float64

	Iterations  []int
	Evaluations []int

	NegativeCoverage bool
}

func newResult(species *chem.Species, n int) *Result {
	return &Result{
		Reactants:   append([]string(nil), species.Reactants...),
		Products:    append([]string(nil), species.Products...),
		Adsorbed:    append([]string(nil), species.Adsorbed...),
		Potential:   make([]float64, 0, n),
		CReactants:  make([][]float64, 0, n),
		CProducts:   make([][]float64, 0, n),
		Theta:       make([][]float64, 0, n),
		Fval:        make([][]float64, 0, n),
		J:           make([]float64, 0, n),
		Iterations:  make([]int, 0, n),
		Evaluations: make([]int, 0, n),
	}
}

// Len is the number of solved potentials.
func (r *Result) Len() int { return len(r.Potential) }

// TotalEvaluations sums residual evaluations over the sweep.
func (r *Result) TotalEvaluations() int {
	total := 0
	for _, e := range r.Evaluations {
		total += e
	}
	return total
}

// TotalIterations sums root-finder iterations over the sweep.
func (r *Result) TotalIterations() int {
	total := 0
	for _, it := range r.Iterations {
		total += it
	}
	return total
}

// CheckCoverage returns a *CoverageError for the first negative coverage.
func (r *Result) CheckCoverage() error {
	for i, row := range r.Theta {
		for k, th := range row {
			if th < 0 {
				return &CoverageError{Step: i, Potential: r.Potential[i], Species: r.Adsorbed[k], Value: th}
			}
		}
	}
	return nil
}
