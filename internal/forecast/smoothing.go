package forecast

import (
	"gonum.org/v1/gonum/floats"

	"campuspulse/pkg/contracts/domain"
)

// DefaultAlpha is the default exponential smoothing factor.
const DefaultAlpha = 0.3

// DefaultWindow is the default moving average window.
const DefaultWindow = 3

// ExponentialSmoothing computes s[i] = alpha*v[i] + (1-alpha)*s[i-1] with s[0] = v[0]
// and extrapolates the final smoothed value flat across the horizon. Alpha outside
// (0, 1] is degenerate.
func ExponentialSmoothing(ts domain.TimeSeries, field domain.Field, alpha float64, horizon int) Forecast {
	return exponentialSmoothing(PrepareSeries(ts, field), alpha, horizon)
}

func exponentialSmoothing(ys []float64, alpha float64, horizon int) Forecast {
	if len(ys) < 2 {
		return unavailable(MethodExponential, StatusInsufficientData)
	}
	if alpha <= 0 || alpha > 1 {
		return unavailable(MethodExponential, StatusDegenerate)
	}

	s := ys[0]
	for _, v := range ys[1:] {
		s = alpha*v + (1-alpha)*s
	}

	out := make([]float64, max(horizon, 0))
	for k := range out {
		out[k] = s
	}
	return Forecast{Method: MethodExponential, Status: StatusOK, Values: out}
}

// MovingAverageResult holds one trailing mean per index from Window-1 to n-1.
type MovingAverageResult struct {
	Status Status    `json:"status"`
	Window int       `json:"window"`
	Keys   []string  `json:"keys,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// MovingAverage computes the trailing arithmetic mean over a sliding window.
func MovingAverage(ts domain.TimeSeries, field domain.Field, window int) MovingAverageResult {
	res := MovingAverageResult{Window: window}
	if window < 1 {
		res.Status = StatusDegenerate
		return res
	}

	ys := PrepareSeries(ts, field)
	if len(ys) < window {
		res.Status = StatusInsufficientData
		return res
	}

	keys := ts.Keys()
	res.Status = StatusOK
	for i := window - 1; i < len(ys); i++ {
		res.Values = append(res.Values, floats.Sum(ys[i-window+1:i+1])/float64(window))
		res.Keys = append(res.Keys, keys[i])
	}
	return res
}
