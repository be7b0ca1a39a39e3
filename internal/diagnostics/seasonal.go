package diagnostics

import (
	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

const minSeasonalPoints = 12

// MonthMean is the average of a field for one calendar month across all years.
type MonthMean struct {
	Month string  `json:"month"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Seasonal holds one entry per month, Jan through Dec.
type Seasonal struct {
	Status forecast.Status `json:"status"`
	Months []MonthMean     `json:"months,omitempty"`
}

// SeasonalPattern groups the field by canonical month regardless of year. Months
// without observations report a mean of 0.
func SeasonalPattern(ts domain.TimeSeries, field domain.Field) Seasonal {
	if len(ts) < minSeasonalPoints {
		return Seasonal{Status: forecast.StatusInsufficientData}
	}

	var sums [12]float64
	var counts [12]int
	for _, r := range ts {
		idx := r.MonthIndex()
		if idx < 0 {
			continue
		}
		sums[idx] += r.Value(field)
		counts[idx]++
	}

	out := Seasonal{Status: forecast.StatusOK, Months: make([]MonthMean, 12)}
	for i, m := range domain.Months {
		mm := MonthMean{Month: m, Count: counts[i]}
		if counts[i] > 0 {
			mm.Mean = sums[i] / float64(counts[i])
		}
		out.Months[i] = mm
	}
	return out
}

// PeakMonth returns the observed month with the highest mean.
func (s Seasonal) PeakMonth() (MonthMean, bool) {
	return s.pick(func(a, b float64) bool { return a > b })
}

// LowMonth returns the observed month with the lowest mean.
func (s Seasonal) LowMonth() (MonthMean, bool) {
	return s.pick(func(a, b float64) bool { return a < b })
}

func (s Seasonal) pick(better func(a, b float64) bool) (MonthMean, bool) {
	var best MonthMean
	found := false
	for _, m := range s.Months {
		if m.Count == 0 {
			continue
		}
		if !found || better(m.Mean, best.Mean) {
			best = m
			found = true
		}
	}
	return best, found
}
