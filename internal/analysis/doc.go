// Package analysis extracts electrochemical descriptors from polarization
// curves.
//
//   - [Fit]: Tafel slope, exchange current density and fit quality over a
//     potential window
//   - [Onset]: first potential at which |j| reaches a threshold
//   - [TransferCoefficient]: apparent α from a Tafel slope
//
// # Tafel Analysis
//
// In the kinetically limited region η = a + b·log10|j|. The slope b is
// reported in V per decade and the exchange current is |j| at η = 0:
//
//	t, err := analysis.Fit(res.Potential, res.J, 0.2, 0.5)
//	fmt.Printf("%.1f mV/dec\n", t.Slope*1000)
package analysis
