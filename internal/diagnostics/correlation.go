package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

// Correlation is the Pearson coefficient between two fields.
type Correlation struct {
	Status    forecast.Status `json:"status"`
	A         domain.Field    `json:"a"`
	B         domain.Field    `json:"b"`
	R         float64         `json:"r"`
	Strength  string          `json:"strength,omitempty"`
	Direction string          `json:"direction,omitempty"`
}

// FieldCorrelation correlates two fields of the same series.
func FieldCorrelation(ts domain.TimeSeries, a, b domain.Field) Correlation {
	c := Pearson(forecast.PrepareSeries(ts, a), forecast.PrepareSeries(ts, b))
	c.A, c.B = a, b
	return c
}

// Pearson computes the correlation coefficient of two equal-length series. A
// series with zero variance yields r = 0 with StatusDegenerate.
func Pearson(xs, ys []float64) Correlation {
	if len(xs) != len(ys) || len(xs) < 2 {
		return Correlation{Status: forecast.StatusInsufficientData}
	}
	if _, sx := stat.PopMeanStdDev(xs, nil); sx == 0 {
		return Correlation{Status: forecast.StatusDegenerate}
	}
	if _, sy := stat.PopMeanStdDev(ys, nil); sy == 0 {
		return Correlation{Status: forecast.StatusDegenerate}
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return Correlation{Status: forecast.StatusDegenerate}
	}
	r = math.Max(-1, math.Min(1, r))
	return Correlation{
		Status:    forecast.StatusOK,
		R:         r,
		Strength:  CorrelationStrength(r),
		Direction: direction(r),
	}
}

// CorrelationStrength labels the magnitude of r.
func CorrelationStrength(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.7:
		return "Strong"
	case a >= 0.4:
		return "Moderate"
	case a >= 0.2:
		return "Weak"
	default:
		return "Negligible"
	}
}

func direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}
