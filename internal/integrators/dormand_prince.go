// Package integrators advances systems of ordinary differential equations
// dx/dt = f(t, x) with an embedded Runge–Kutta pair and step-size control.
package integrators

import (
	"context"
	"errors"
	"math"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// ErrNonFinite is returned when the state or its derivative leaves the reals.
var ErrNonFinite = errors.New("integrators: state is NaN or Inf")

// Func returns dx/dt. The returned slice must not alias x.
type Func func(t float64, x []float64) []float64

// StopFunc ends an integration after an accepted step.
type StopFunc func(t float64, x, dxdt []float64) bool

type DormandPrince struct {
	tol      float64
	safety   float64
	minScale float64
	maxScale float64
}

// NewDormandPrince returns an integrator keeping the estimated local error
// below tol relative to the state.
func NewDormandPrince(tol float64) *DormandPrince {
	if tol <= 0 {
		tol = 1e-6
	}
	return &DormandPrince{
		tol:      tol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step advances x by dt. It returns the new state, the error ratio (the
// step is acceptable when it is at most 1) and the suggested next step.
func (dp *DormandPrince) Step(f Func, t float64, x []float64, dt float64) ([]float64, float64, float64) {
	n := len(x)

	k1 := f(t, x)

	x2 := make([]float64, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := f(t+a2*dt, x2)

	x3 := make([]float64, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := f(t+a3*dt, x3)

	x4 := make([]float64, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := f(t+a4*dt, x4)

	x5 := make([]float64, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := f(t+a5*dt, x5)

	x6 := make([]float64, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := f(t+dt, x6)

	xNew := make([]float64, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := f(t+dt, xNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	if !finite(xNew) || math.IsNaN(errMax) {
		return xNew, math.Inf(1), dt * dp.minScale
	}

	errRatio := errMax / dp.tol

	var dtNew float64
	if errRatio > 1 {
		scale := math.Max(dp.minScale, dp.safety*math.Pow(errRatio, -0.25))
		dtNew = dt * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(dp.maxScale, dp.safety*math.Pow(errRatio, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * dp.maxScale
		}
	}

	return xNew, errRatio, dtNew
}

// Result is the end of an integration.
type Result struct {
	X           []float64
	T           float64
	Steps       int
	Rejected    int
	Evaluations int
	// Stopped is true when the stop condition ended the integration.
	Stopped bool
}

// Integrate advances x0 from t = 0 with adaptive steps until stop reports
// true or maxSteps steps have been accepted. dt0 <= 0 picks a first step
// from the initial derivative.
func (dp *DormandPrince) Integrate(ctx context.Context, f Func, x0 []float64, dt0 float64, maxSteps int, stop StopFunc) (Result, error) {
	res := Result{X: append([]float64(nil), x0...)}
	eval := func(t float64, x []float64) []float64 {
		res.Evaluations++
		return f(t, x)
	}

	dxdt := eval(0, res.X)
	if !finite(dxdt) || !finite(res.X) {
		return res, ErrNonFinite
	}
	if stop(0, res.X, dxdt) {
		res.Stopped = true
		return res, nil
	}

	dt := dt0
	if dt <= 0 {
		dt = initialStep(res.X, dxdt)
	}

	for res.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		xNew, ratio, dtNew := dp.Step(eval, res.T, res.X, dt)
		if ratio > 1 {
			res.Rejected++
			if dtNew == 0 || res.Rejected > 10*maxSteps+100 {
				return res, ErrNonFinite
			}
			dt = dtNew
			continue
		}

		res.T += dt
		res.X = xNew
		res.Steps++
		dt = dtNew

		dxdt = eval(res.T, res.X)
		if !finite(dxdt) {
			return res, ErrNonFinite
		}
		if stop(res.T, res.X, dxdt) {
			res.Stopped = true
			return res, nil
		}
	}
	return res, nil
}

// initialStep moves the largest component by about 1% of its scale.
func initialStep(x, dxdt []float64) float64 {
	scale, rate := 1e-3, 0.0
	for i := range x {
		scale = math.Max(scale, math.Abs(x[i]))
		rate = math.Max(rate, math.Abs(dxdt[i]))
	}
	if rate == 0 {
		return 1
	}
	return 1e-2 * scale / rate
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
