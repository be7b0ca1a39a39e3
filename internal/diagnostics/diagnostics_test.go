package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

func seriesOf(values ...int) domain.TimeSeries {
	ts := make(domain.TimeSeries, len(values))
	for i, v := range values {
		ts[i] = domain.MonthlyRecord{
			Year:          []string{"2023", "2024", "2025"}[i/12],
			Month:         domain.Months[i%12],
			TotalStudents: v,
			Offered:       v / 2,
		}
	}
	return ts
}

func TestGrowthAnalysis_SkipsTransitionsFromZero(t *testing.T) {
	g := GrowthAnalysis(seriesOf(100, 110, 0, 130), domain.FieldTotalStudents)

	require.Equal(t, forecast.StatusOK, g.Status)
	require.Len(t, g.Steps, 2)
	assert.Equal(t, GrowthStep{From: "2023-Jan", To: "2023-Feb", Rate: 10}, g.Steps[0])
	assert.Equal(t, "2023-Mar", g.Steps[1].To)
	assert.InDelta(t, -100.0, g.Steps[1].Rate, 1e-9)
	assert.InDelta(t, -45.0, g.Average, 1e-9)
	assert.InDelta(t, -100.0, g.Min, 1e-9)
	assert.InDelta(t, 10.0, g.Max, 1e-9)
	assert.Equal(t, TrendSharpDecline, g.Trend)
}

func TestGrowthAnalysis_Insufficient(t *testing.T) {
	assert.Equal(t, forecast.StatusInsufficientData, GrowthAnalysis(seriesOf(10), domain.FieldTotalStudents).Status)
	assert.Equal(t, forecast.StatusInsufficientData, GrowthAnalysis(seriesOf(0, 0, 5), domain.FieldJavaFS).Status,
		"all-zero previous values leave no rates")
}

func TestTrendLabel(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{12, TrendStrongGrowth},
		{5.01, TrendStrongGrowth},
		{5, TrendModerateGrowth},
		{0, TrendModerateGrowth},
		{-0.1, TrendDeclining},
		{-5, TrendDeclining},
		{-5.5, TrendSharpDecline},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrendLabel(tt.avg), "avg %v", tt.avg)
	}
}

func TestSeasonalPattern(t *testing.T) {
	assert.Equal(t, forecast.StatusInsufficientData, SeasonalPattern(seriesOf(1, 2, 3), domain.FieldTotalStudents).Status)

	values := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 30, 40}
	s := SeasonalPattern(seriesOf(values...), domain.FieldTotalStudents)
	require.Equal(t, forecast.StatusOK, s.Status)
	require.Len(t, s.Months, 12)

	assert.Equal(t, MonthMean{Month: "Jan", Mean: 20, Count: 2}, s.Months[0])
	assert.Equal(t, MonthMean{Month: "Feb", Mean: 30, Count: 2}, s.Months[1])
	assert.Equal(t, MonthMean{Month: "Dec", Mean: 120, Count: 1}, s.Months[11])

	peak, ok := s.PeakMonth()
	require.True(t, ok)
	assert.Equal(t, "Dec", peak.Month)
	low, ok := s.LowMonth()
	require.True(t, ok)
	assert.Equal(t, "Jan", low.Month)
}

func TestSeasonalPattern_UnobservedMonthIsZero(t *testing.T) {
	ts := make(domain.TimeSeries, 0, 12)
	for i := 0; i < 12; i++ {
		ts = append(ts, domain.MonthlyRecord{Year: "2024", Month: "Mar", TotalStudents: 5})
	}
	s := SeasonalPattern(ts, domain.FieldTotalStudents)
	require.Equal(t, forecast.StatusOK, s.Status)
	assert.Equal(t, 0.0, s.Months[0].Mean)
	assert.Equal(t, 0, s.Months[0].Count)
	assert.Equal(t, 5.0, s.Months[2].Mean)

	peak, _ := s.PeakMonth()
	low, _ := s.LowMonth()
	assert.Equal(t, "Mar", peak.Month, "months without observations are not candidates")
	assert.Equal(t, "Mar", low.Month)
}

func TestPearson_SelfCorrelation(t *testing.T) {
	xs := []float64{3, 8, 1, 9, 4}
	c := Pearson(xs, xs)
	require.Equal(t, forecast.StatusOK, c.Status)
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.Equal(t, "Strong", c.Strength)
	assert.Equal(t, "positive", c.Direction)

	flat := []float64{7, 7, 7, 7}
	c = Pearson(flat, flat)
	assert.Equal(t, forecast.StatusDegenerate, c.Status)
	assert.Equal(t, 0.0, c.R)
	assert.False(t, math.IsNaN(c.R))
}

func TestPearson_Shapes(t *testing.T) {
	assert.Equal(t, forecast.StatusInsufficientData, Pearson([]float64{1, 2}, []float64{1}).Status)
	assert.Equal(t, forecast.StatusInsufficientData, Pearson([]float64{1}, []float64{1}).Status)

	c := Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	assert.InDelta(t, -1.0, c.R, 1e-12)
	assert.Equal(t, "negative", c.Direction)
}

func TestFieldCorrelation(t *testing.T) {
	c := FieldCorrelation(seriesOf(10, 20, 30, 40), domain.FieldTotalStudents, domain.FieldOffered)
	assert.Equal(t, domain.FieldTotalStudents, c.A)
	assert.Equal(t, domain.FieldOffered, c.B)
	assert.InDelta(t, 1.0, c.R, 1e-12)
}

func TestCorrelationStrength(t *testing.T) {
	assert.Equal(t, "Strong", CorrelationStrength(-0.7))
	assert.Equal(t, "Moderate", CorrelationStrength(0.45))
	assert.Equal(t, "Weak", CorrelationStrength(0.2))
	assert.Equal(t, "Negligible", CorrelationStrength(0.19))
}

func TestDetectAnomalies(t *testing.T) {
	a := DetectAnomalies(seriesOf(50, 52, 51, 49, 50, 51, 500), domain.FieldTotalStudents, DefaultZThreshold)

	require.Equal(t, forecast.StatusOK, a.Status)
	require.Len(t, a.Items, 1)
	got := a.Items[0]
	assert.Equal(t, "2023-Jul", got.Key)
	assert.Equal(t, 500.0, got.Value)
	assert.Greater(t, got.ZScore, DefaultZThreshold)
	assert.InDelta(t, (500-a.Mean)/a.Mean*100, got.PercentDeviation, 1e-9)
}

func TestDetectAnomalies_FivePointCeiling(t *testing.T) {
	// With n points the largest population z-score is sqrt(n-1), so a single
	// spike among five values sits just under 2.
	ts := seriesOf(50, 52, 51, 49, 500)

	a := DetectAnomalies(ts, domain.FieldTotalStudents, DefaultZThreshold)
	assert.Empty(t, a.Items)

	a = DetectAnomalies(ts, domain.FieldTotalStudents, 1.9)
	require.Len(t, a.Items, 1)
	assert.Equal(t, 500.0, a.Items[0].Value)
	assert.LessOrEqual(t, a.Items[0].ZScore, 2.0)
}

func TestDetectAnomalies_DegenerateInputs(t *testing.T) {
	a := DetectAnomalies(seriesOf(1, 2), domain.FieldTotalStudents, DefaultZThreshold)
	assert.Equal(t, forecast.StatusInsufficientData, a.Status)
	assert.NotNil(t, a.Items)
	assert.Empty(t, a.Items)

	a = DetectAnomalies(seriesOf(4, 4, 4, 4), domain.FieldTotalStudents, DefaultZThreshold)
	assert.Equal(t, forecast.StatusDegenerate, a.Status)
	assert.Empty(t, a.Items)
}
