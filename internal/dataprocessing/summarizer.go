package dataprocessing

import (
	"sort"

	"campuspulse/pkg/contracts/domain"
)

// Summary holds the headline figures for a series.
type Summary struct {
	Records          int     `json:"records"`
	FirstMonth       string  `json:"first_month,omitempty"`
	LastMonth        string  `json:"last_month,omitempty"`
	Years            int     `json:"years"`
	TotalStudents    int     `json:"total_students"`
	TotalOffered     int     `json:"total_offered"`
	TotalDropped     int     `json:"total_dropped"`
	TotalPaid        float64 `json:"total_paid"`
	TotalPending     float64 `json:"total_pending"`
	OfferRate        float64 `json:"offer_rate"`
	DropRate         float64 `json:"drop_rate"`
	AvgMonthlyIntake float64 `json:"avg_monthly_intake"`
}

// YearTotal is the sum of one field over a calendar year.
type YearTotal struct {
	Year   string  `json:"year"`
	Total  float64 `json:"total"`
	Months int     `json:"months"`
}

// MonthRow is one row of the year-by-month grid: a month and its value per year.
type MonthRow struct {
	Month  string             `json:"month"`
	ByYear map[string]float64 `json:"by_year"`
}

// Summarize computes the headline figures. Rates are percentages of total students
// and are 0 for an empty series.
func Summarize(ts domain.TimeSeries) Summary {
	s := Summary{Records: len(ts)}
	if len(ts) == 0 {
		return s
	}

	s.FirstMonth = ts[0].YearMonth()
	s.LastMonth = ts[len(ts)-1].YearMonth()

	years := make(map[string]struct{})
	for _, r := range ts {
		years[r.Year] = struct{}{}
		s.TotalStudents += r.TotalStudents
		s.TotalOffered += r.Offered
		s.TotalDropped += r.Dropped
		s.TotalPaid += r.TotalPaid
		s.TotalPending += r.TotalPending
	}
	s.Years = len(years)

	if s.TotalStudents > 0 {
		s.OfferRate = float64(s.TotalOffered) / float64(s.TotalStudents) * 100
		s.DropRate = float64(s.TotalDropped) / float64(s.TotalStudents) * 100
	}
	s.AvgMonthlyIntake = float64(s.TotalStudents) / float64(len(ts))

	return s
}

// YearTotals sums a field per year, ascending by year. Duplicate months in the
// series are counted twice.
func YearTotals(ts domain.TimeSeries, field domain.Field) []YearTotal {
	idx := make(map[string]int)
	var out []YearTotal
	for _, r := range ts {
		i, ok := idx[r.Year]
		if !ok {
			i = len(out)
			idx[r.Year] = i
			out = append(out, YearTotal{Year: r.Year})
		}
		out[i].Total += r.Value(field)
		out[i].Months++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Year < out[b].Year })
	return out
}

// YearMonthMatrix builds the Jan..Dec grid with one column per year present in the
// series. Missing (year, month) cells are 0.
func YearMonthMatrix(ts domain.TimeSeries, field domain.Field) []MonthRow {
	var years []string
	seen := make(map[string]bool)
	for _, r := range ts {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}

	rows := make([]MonthRow, len(domain.Months))
	for i, m := range domain.Months {
		rows[i] = MonthRow{Month: m, ByYear: make(map[string]float64, len(years))}
		for _, y := range years {
			rows[i].ByYear[y] = 0
		}
	}
	for _, r := range ts {
		if mi := r.MonthIndex(); mi >= 0 {
			rows[mi].ByYear[r.Year] += r.Value(field)
		}
	}
	return rows
}
