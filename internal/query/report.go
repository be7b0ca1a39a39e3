package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"campuspulse/internal/dataprocessing"
	"campuspulse/internal/diagnostics"
	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

const capabilities = `I can answer questions about the uploaded monthly records:
- Predictions: "predict students for the next 6 months", revenue, placements, Java or Python enrolment
- Growth and trends: "show the student growth trend"
- Anomalies: "any unusual spikes in revenue?"
- Seasonality: "which is the peak month for admissions?"
- Correlation: "correlation between students and revenue"
- Summary: "give me an overview"`

func insufficient(what string, field domain.Field) string {
	return fmt.Sprintf("Not enough data for %s of %s.", what, field.Label())
}

func predictionReport(ts domain.TimeSeries, field domain.Field, horizon int, opts forecast.Options) string {
	e := forecast.EnsemblePrediction(ts, field, horizon, opts)
	if e.Contributors(0) == 0 {
		return insufficient("a forecast", field)
	}

	var b strings.Builder
	last, _ := ts.Last()
	fmt.Fprintf(&b, "Forecast of %s for the next %d month(s) after %s:\n", field.Label(), horizon, last.YearMonth())
	labels := followingMonths(last, horizon)
	for k, v := range e.Values {
		fmt.Fprintf(&b, "  %s: %s", labels[k], formatValue(field, v))
		var parts []string
		for _, m := range e.Models {
			if mv, ok := m.At(k); ok {
				parts = append(parts, fmt.Sprintf("%s %s", m.Method, formatValue(field, mv)))
			}
		}
		fmt.Fprintf(&b, " (%s)\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Ensemble of %d of %d models.", e.Contributors(0), len(e.Models))
	return b.String()
}

func growthReport(ts domain.TimeSeries, field domain.Field) string {
	g := diagnostics.GrowthAnalysis(ts, field)
	if g.Status != forecast.StatusOK {
		return insufficient("growth analysis", field)
	}
	msg := fmt.Sprintf("Growth of %s over %d month-to-month change(s): average %.2f%%, min %.2f%%, max %.2f%%. Trend: %s.",
		field.Label(), len(g.Steps), g.Average, g.Min, g.Max, g.Trend)
	if skipped := len(ts) - 1 - len(g.Steps); skipped > 0 {
		msg += fmt.Sprintf(" %d change(s) from a zero month were left out.", skipped)
	}
	return msg
}

func anomalyReport(ts domain.TimeSeries, field domain.Field, z float64) string {
	a := diagnostics.DetectAnomalies(ts, field, z)
	switch a.Status {
	case forecast.StatusInsufficientData:
		return insufficient("anomaly detection", field)
	case forecast.StatusDegenerate:
		return fmt.Sprintf("%s is constant at %s; nothing stands out.", field.Label(), formatValue(field, a.Mean))
	}
	if len(a.Items) == 0 {
		return fmt.Sprintf("No anomalies in %s (z > %.1f, mean %.1f, std dev %.1f).",
			field.Label(), a.Threshold, a.Mean, a.StdDev)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Anomalies in %s (z > %.1f, mean %.1f, std dev %.1f):",
		field.Label(), a.Threshold, a.Mean, a.StdDev)
	for _, it := range a.Items {
		fmt.Fprintf(&b, "\n  %s: %s (z=%.2f, %+.1f%% vs mean)", it.Key, formatValue(field, it.Value), it.ZScore, it.PercentDeviation)
	}
	return b.String()
}

func seasonalReport(ts domain.TimeSeries, field domain.Field) string {
	s := diagnostics.SeasonalPattern(ts, field)
	if s.Status != forecast.StatusOK {
		return fmt.Sprintf("Seasonal patterns need at least 12 months of %s.", field.Label())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Average %s by month:", field.Label())
	for _, m := range s.Months {
		fmt.Fprintf(&b, "\n  %s: %.1f", m.Month, m.Mean)
	}
	if peak, ok := s.PeakMonth(); ok {
		low, _ := s.LowMonth()
		fmt.Fprintf(&b, "\nPeak month: %s (%.1f). Lowest month: %s (%.1f).", peak.Month, peak.Mean, low.Month, low.Mean)
	}
	return b.String()
}

func correlationReport(ts domain.TimeSeries, pair []domain.Field) string {
	c := diagnostics.FieldCorrelation(ts, pair[0], pair[1])
	switch c.Status {
	case forecast.StatusInsufficientData:
		return fmt.Sprintf("Not enough data to correlate %s and %s.", pair[0].Label(), pair[1].Label())
	case forecast.StatusDegenerate:
		return fmt.Sprintf("Correlation between %s and %s: r = 0 (one of them does not vary).", pair[0].Label(), pair[1].Label())
	}
	return fmt.Sprintf("Correlation between %s and %s: r = %.2f (%s %s).",
		pair[0].Label(), pair[1].Label(), c.R, c.Strength, c.Direction)
}

func summaryReport(ts domain.TimeSeries, window int) string {
	s := dataprocessing.Summarize(ts)
	if s.Records == 0 {
		return "No records loaded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overview: %d record(s) from %s to %s across %d year(s).\n", s.Records, s.FirstMonth, s.LastMonth, s.Years)
	fmt.Fprintf(&b, "Total students: %d (average %.1f per month)\n", s.TotalStudents, s.AvgMonthlyIntake)
	fmt.Fprintf(&b, "Offered: %d (%.1f%% offer rate)\n", s.TotalOffered, s.OfferRate)
	fmt.Fprintf(&b, "Dropped: %d (%.1f%% drop rate)\n", s.TotalDropped, s.DropRate)
	fmt.Fprintf(&b, "Total paid: %s, pending: %s", formatValue(domain.FieldTotalPaid, s.TotalPaid), formatValue(domain.FieldTotalPending, s.TotalPending))

	if ma := forecast.MovingAverage(ts, domain.FieldTotalStudents, window); ma.Status == forecast.StatusOK {
		fmt.Fprintf(&b, "\nLatest %d-month moving average of students: %.1f", ma.Window, ma.Values[len(ma.Values)-1])
	}
	return b.String()
}

func formatValue(field domain.Field, v float64) string {
	switch {
	case field.IsMonetary():
		return fmt.Sprintf("₹%.2f", v)
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
}

// followingMonths labels the n months after last, falling back to +k when the
// record's year is not numeric.
func followingMonths(last domain.MonthlyRecord, n int) []string {
	out := make([]string, n)
	year, err := strconv.Atoi(last.Year)
	idx := last.MonthIndex()
	for k := range out {
		if err != nil || idx < 0 {
			out[k] = fmt.Sprintf("+%d", k+1)
			continue
		}
		m := idx + k + 1
		out[k] = fmt.Sprintf("%d-%s", year+m/12, domain.Months[m%12])
	}
	return out
}
