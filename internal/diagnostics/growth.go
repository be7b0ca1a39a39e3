package diagnostics

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

// Trend labels for average period growth.
const (
	TrendStrongGrowth   = "Strong Growth"
	TrendModerateGrowth = "Moderate Growth"
	TrendDeclining      = "Declining"
	TrendSharpDecline   = "Sharp Decline"
)

// GrowthStep is one period-over-period transition that entered the statistics.
type GrowthStep struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// Growth summarizes percentage change between consecutive records.
type Growth struct {
	Status  forecast.Status `json:"status"`
	Steps   []GrowthStep    `json:"steps,omitempty"`
	Average float64         `json:"average"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
	Trend   string          `json:"trend,omitempty"`
}

// GrowthAnalysis computes (v[i]-v[i-1])/v[i-1]*100 for each transition whose
// previous value is nonzero. Transitions from zero are left out entirely.
func GrowthAnalysis(ts domain.TimeSeries, field domain.Field) Growth {
	ys := forecast.PrepareSeries(ts, field)
	if len(ys) < 2 {
		return Growth{Status: forecast.StatusInsufficientData}
	}

	keys := ts.Keys()
	var steps []GrowthStep
	for i := 1; i < len(ys); i++ {
		prev := ys[i-1]
		if prev == 0 {
			continue
		}
		steps = append(steps, GrowthStep{
			From: keys[i-1],
			To:   keys[i],
			Rate: (ys[i] - prev) / prev * 100,
		})
	}
	if len(steps) == 0 {
		return Growth{Status: forecast.StatusInsufficientData}
	}

	rates := make([]float64, len(steps))
	for i, s := range steps {
		rates[i] = s.Rate
	}
	avg := stat.Mean(rates, nil)
	return Growth{
		Status:  forecast.StatusOK,
		Steps:   steps,
		Average: avg,
		Min:     slices.Min(rates),
		Max:     slices.Max(rates),
		Trend:   TrendLabel(avg),
	}
}

// TrendLabel classifies an average growth percentage.
func TrendLabel(avg float64) string {
	switch {
	case avg > 5:
		return TrendStrongGrowth
	case avg >= 0:
		return TrendModerateGrowth
	case avg >= -5:
		return TrendDeclining
	default:
		return TrendSharpDecline
	}
}
