package forecast

import (
	"math"

	"campuspulse/pkg/contracts/domain"
)

// SingularEpsilon is the determinant magnitude below which the quadratic normal
// equations are treated as singular.
const SingularEpsilon = 1e-10

const (
	minLinearPoints     = 3
	minPolynomialPoints = 4
)

// LinearRegression fits value against index 0..n-1 by ordinary least squares and
// predicts indices n..n+horizon-1. Predictions are clamped at 0 and rounded.
func LinearRegression(ts domain.TimeSeries, field domain.Field, horizon int) Forecast {
	return linearRegression(PrepareSeries(ts, field), horizon)
}

func linearRegression(ys []float64, horizon int) Forecast {
	n := len(ys)
	if n < minLinearPoints {
		return unavailable(MethodLinear, StatusInsufficientData)
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if math.Abs(denom) < SingularEpsilon {
		return unavailable(MethodLinear, StatusDegenerate)
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf

	out := make([]float64, max(horizon, 0))
	for k := range out {
		out[k] = clampRound(intercept + slope*float64(n+k))
	}
	return Forecast{Method: MethodLinear, Status: StatusOK, Values: out}
}

// PolynomialRegression fits a degree-2 curve against index 0..n-1 via the normal
// equations and predicts the next horizon indices, clamped at 0 and rounded.
func PolynomialRegression(ts domain.TimeSeries, field domain.Field, horizon int) Forecast {
	return polynomialRegression(PrepareSeries(ts, field), horizon)
}

func polynomialRegression(ys []float64, horizon int) Forecast {
	if len(ys) < minPolynomialPoints {
		return unavailable(MethodPolynomial, StatusInsufficientData)
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}

	coef, ok := fitQuadratic(xs, ys)
	if !ok {
		return unavailable(MethodPolynomial, StatusDegenerate)
	}

	n := len(ys)
	out := make([]float64, max(horizon, 0))
	for k := range out {
		x := float64(n + k)
		out[k] = clampRound(coef[0] + coef[1]*x + coef[2]*x*x)
	}
	return Forecast{Method: MethodPolynomial, Status: StatusOK, Values: out}
}

// fitQuadratic solves for y = a + b*x + c*x^2 with Cramer's rule. ok is false when
// the system is near-singular, which happens when the xs are not distinct enough.
func fitQuadratic(xs, ys []float64) (coef [3]float64, ok bool) {
	var s0, s1, s2, s3, s4, t0, t1, t2 float64
	for i, x := range xs {
		y := ys[i]
		x2 := x * x
		s0++
		s1 += x
		s2 += x2
		s3 += x2 * x
		s4 += x2 * x2
		t0 += y
		t1 += x * y
		t2 += x2 * y
	}

	m := [3][3]float64{
		{s0, s1, s2},
		{s1, s2, s3},
		{s2, s3, s4},
	}
	det := det3(m)
	if math.Abs(det) < SingularEpsilon || math.IsNaN(det) {
		return coef, false
	}

	rhs := [3]float64{t0, t1, t2}
	for col := 0; col < 3; col++ {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = rhs[row]
		}
		coef[col] = det3(mc) / det
		if math.IsNaN(coef[col]) || math.IsInf(coef[col], 0) {
			return [3]float64{}, false
		}
	}
	return coef, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// clampRound floors negative predictions at zero and rounds to the nearest integer.
func clampRound(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return math.Round(v)
}
