package forecast

import "campuspulse/pkg/contracts/domain"

// Ensemble is the combined forecast together with the submodel results it was
// averaged from.
type Ensemble struct {
	Forecast
	Models []Forecast `json:"models"`
}

// Contributors returns how many submodels produced a value for a step.
func (e Ensemble) Contributors(step int) int {
	n := 0
	for _, m := range e.Models {
		if _, ok := m.At(step); ok {
			n++
		}
	}
	return n
}

// Options tunes the parameterized methods. The zero value means the defaults.
type Options struct {
	Alpha float64 // smoothing factor in (0, 1]
}

func (o Options) alpha() float64 {
	if o.Alpha > 0 && o.Alpha <= 1 {
		return o.Alpha
	}
	return DefaultAlpha
}

// EnsemblePrediction averages the linear, polynomial and exponential forecasts
// step by step over whichever of them produced a value. A step no model covers
// is 0. The ensemble itself always has StatusOK.
func EnsemblePrediction(ts domain.TimeSeries, field domain.Field, horizon int, opts Options) Ensemble {
	ys := PrepareSeries(ts, field)
	models := []Forecast{
		linearRegression(ys, horizon),
		polynomialRegression(ys, horizon),
		exponentialSmoothing(ys, opts.alpha(), horizon),
	}
	return combine(models, horizon)
}

func combine(models []Forecast, horizon int) Ensemble {
	out := make([]float64, max(horizon, 0))
	for k := range out {
		var sum float64
		var n int
		for _, m := range models {
			if v, ok := m.At(k); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[k] = clampRound(sum / float64(n))
		}
	}
	return Ensemble{
		Forecast: Forecast{Method: MethodEnsemble, Status: StatusOK, Values: out},
		Models:   models,
	}
}

// Predict dispatches to one method. Unknown methods get the ensemble.
func Predict(ts domain.TimeSeries, field domain.Field, method Method, horizon int, opts Options) Forecast {
	switch method {
	case MethodLinear:
		return LinearRegression(ts, field, horizon)
	case MethodPolynomial:
		return PolynomialRegression(ts, field, horizon)
	case MethodExponential:
		return ExponentialSmoothing(ts, field, opts.alpha(), horizon)
	default:
		return EnsemblePrediction(ts, field, horizon, opts).Forecast
	}
}
