package kinetics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EmptySites returns 1 - occupancy·θ, one fraction per catalyst type.
func EmptySites(occupancy mat.Matrix, theta []float64) []float64 {
	rows, _ := occupancy.Dims()
	occupied := mat.NewVecDense(rows, nil)
	occupied.MulVec(occupancy, mat.NewVecDense(len(theta), append([]float64(nil), theta...)))
	out := make([]float64, rows)
	for i := range out {
		out[i] = 1 - occupied.AtVec(i)
	}
	return out
}

// Concentrate lays the state out in catalog order.
func Concentrate(cR, cP, theta, empty []float64) []float64 {
	c := make([]float64, 0, len(cR)+len(cP)+len(theta)+len(empty))
	c = append(c, cR...)
	c = append(c, cP...)
	c = append(c, theta...)
	return append(c, empty...)
}

// PowerLaw returns the mass-action terms of every reaction: the product of
// consumed concentrations raised to their coefficients forward, and minus
// the product of produced concentrations backward.
func PowerLaw(c []float64, nu mat.Matrix) Pair {
	rows, cols := nu.Dims()
	p := newPair(rows)
	for r := 0; r < rows; r++ {
		fwd, bwd := 1.0, 1.0
		for s := 0; s < cols; s++ {
			switch v := nu.At(r, s); {
			case v < 0:
				fwd *= math.Pow(c[s], -v)
			case v > 0:
				bwd *= math.Pow(c[s], v)
			}
		}
		p.Forward[r] = fwd
		p.Backward[r] = -bwd
	}
	return p
}

// Rate returns the net rate of every reaction.
func Rate(k Pair, c []float64, nu mat.Matrix) []float64 {
	law := PowerLaw(c, nu)
	v := make([]float64, len(law.Forward))
	for i := range v {
		v[i] = k.Forward[i]*law.Forward[i] + k.Backward[i]*law.Backward[i]
	}
	return v
}

// Dcdt projects reaction rates onto species: v·nu.
func Dcdt(v []float64, nu mat.Matrix) []float64 {
	_, cols := nu.Dims()
	out := mat.NewVecDense(cols, nil)
	out.MulVec(nu.T(), mat.NewVecDense(len(v), append([]float64(nil), v...)))
	return out.RawVector().Data
}
