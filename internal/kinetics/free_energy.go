package kinetics

import (
	"gonum.org/v1/gonum/mat"
)

// ReactionFreeEnergy returns -(nua · g) for the adsorbate block of the
// stoichiometric matrix and the adsorbate formation energies.
func ReactionFreeEnergy(nua mat.Matrix, g []float64) []float64 {
	r, _ := nua.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(nua, mat.NewVecDense(len(g), append([]float64(nil), g...)))
	dg := make([]float64, r)
	for i := range dg {
		dg[i] = -out.AtVec(i)
	}
	return dg
}
