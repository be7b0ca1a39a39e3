package forecast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspulse/pkg/contracts/domain"
)

func seriesOf(values ...int) domain.TimeSeries {
	ts := make(domain.TimeSeries, len(values))
	for i, v := range values {
		ts[i] = domain.MonthlyRecord{
			Year:          []string{"2023", "2024", "2025"}[i/12],
			Month:         domain.Months[i%12],
			TotalStudents: v,
		}
	}
	return ts
}

func TestLinearRegression(t *testing.T) {
	tests := []struct {
		name    string
		series  domain.TimeSeries
		horizon int
		status  Status
		want    []float64
	}{
		{"two points is not enough", seriesOf(10, 20), 3, StatusInsufficientData, nil},
		{"empty series", nil, 3, StatusInsufficientData, nil},
		{"rising line", seriesOf(10, 20, 30), 3, StatusOK, []float64{40, 50, 60}},
		{"falling line clamps at zero", seriesOf(30, 20, 10), 3, StatusOK, []float64{0, 0, 0}},
		{"rounds to nearest integer", seriesOf(10, 11, 13), 1, StatusOK, []float64{14}},
		{"zero horizon", seriesOf(10, 20, 30), 0, StatusOK, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := LinearRegression(tt.series, domain.FieldTotalStudents, tt.horizon)
			assert.Equal(t, tt.status, f.Status)
			assert.Equal(t, MethodLinear, f.Method)
			if tt.status != StatusOK {
				assert.Empty(t, f.Values)
				return
			}
			assert.Equal(t, tt.want, f.Values)
		})
	}
}

func TestLinearRegression_NonNegativeAndExactHorizon(t *testing.T) {
	ts := seriesOf(90, 70, 40, 45, 10, 5)
	for horizon := 1; horizon <= 12; horizon++ {
		f := LinearRegression(ts, domain.FieldTotalStudents, horizon)
		require.True(t, f.OK())
		require.Len(t, f.Values, horizon)
		for _, v := range f.Values {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestPolynomialRegression(t *testing.T) {
	t.Run("needs four points", func(t *testing.T) {
		f := PolynomialRegression(seriesOf(1, 4, 9), domain.FieldTotalStudents, 2)
		assert.Equal(t, StatusInsufficientData, f.Status)
	})

	t.Run("collinear values still forecast", func(t *testing.T) {
		f := PolynomialRegression(seriesOf(10, 20, 30, 40), domain.FieldTotalStudents, 2)
		require.Equal(t, StatusOK, f.Status)
		assert.Equal(t, []float64{50, 60}, f.Values)
	})

	t.Run("recovers a parabola", func(t *testing.T) {
		f := PolynomialRegression(seriesOf(1, 4, 9, 16, 25), domain.FieldTotalStudents, 2)
		require.Equal(t, StatusOK, f.Status)
		assert.Equal(t, []float64{36, 49}, f.Values)
	})
}

func TestFitQuadratic_NearSingular(t *testing.T) {
	_, ok := fitQuadratic([]float64{2, 2, 2, 2}, []float64{10, 11, 12, 13})
	assert.False(t, ok, "identical indices make the normal equations singular")

	_, ok = fitQuadratic([]float64{1, 1 + 1e-9, 1, 1}, []float64{10, 11, 12, 13})
	assert.False(t, ok)

	coef, ok := fitQuadratic([]float64{0, 1, 2, 3}, []float64{1, 2, 5, 10})
	require.True(t, ok)
	assert.InDelta(t, 1.0, coef[0], 1e-9)
	assert.InDelta(t, 0.0, coef[1], 1e-9)
	assert.InDelta(t, 1.0, coef[2], 1e-9)
}

func TestExponentialSmoothing(t *testing.T) {
	f := ExponentialSmoothing(seriesOf(10), domain.FieldTotalStudents, DefaultAlpha, 3)
	assert.Equal(t, StatusInsufficientData, f.Status)

	f = ExponentialSmoothing(seriesOf(10, 20), domain.FieldTotalStudents, DefaultAlpha, 3)
	require.True(t, f.OK())
	require.Len(t, f.Values, 3)
	for _, v := range f.Values {
		assert.InDelta(t, 13.0, v, 1e-9, "flat extrapolation of the last smoothed value")
	}

	f = ExponentialSmoothing(seriesOf(10, 20), domain.FieldTotalStudents, 0, 3)
	assert.Equal(t, StatusDegenerate, f.Status)
}

func TestMovingAverage(t *testing.T) {
	ts := seriesOf(10, 20, 30, 40)

	res := MovingAverage(ts, domain.FieldTotalStudents, DefaultWindow)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []float64{20, 30}, res.Values)
	assert.Equal(t, []string{"2023-Mar", "2023-Apr"}, res.Keys)

	res = MovingAverage(ts, domain.FieldTotalStudents, 5)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Empty(t, res.Values)

	res = MovingAverage(ts, domain.FieldTotalStudents, 0)
	assert.Equal(t, StatusDegenerate, res.Status)

	res = MovingAverage(ts, domain.FieldTotalStudents, 4)
	assert.Equal(t, []float64{25}, res.Values)
}

func TestEnsemblePrediction(t *testing.T) {
	t.Run("averages only the models that produced a value", func(t *testing.T) {
		// linear: 40, 50; polynomial: insufficient; exponential: 18.1 flat
		e := EnsemblePrediction(seriesOf(10, 20, 30), domain.FieldTotalStudents, 2, Options{})
		require.Equal(t, StatusOK, e.Status)
		assert.Equal(t, []float64{29, 34}, e.Values)
		assert.Equal(t, 2, e.Contributors(0))
		require.Len(t, e.Models, 3)
		assert.Equal(t, StatusInsufficientData, e.Models[1].Status)
	})

	t.Run("all three models", func(t *testing.T) {
		e := EnsemblePrediction(seriesOf(10, 20, 30, 40), domain.FieldTotalStudents, 1, Options{})
		assert.Equal(t, []float64{42}, e.Values)
		assert.Equal(t, 3, e.Contributors(0))
	})

	t.Run("no model yields zero", func(t *testing.T) {
		e := EnsemblePrediction(seriesOf(10), domain.FieldTotalStudents, 3, Options{})
		assert.Equal(t, StatusOK, e.Status)
		assert.Equal(t, []float64{0, 0, 0}, e.Values)
		assert.Equal(t, 0, e.Contributors(1))
	})
}

func TestEnsemblePrediction_Models(t *testing.T) {
	got := EnsemblePrediction(seriesOf(10, 20, 30), domain.FieldTotalStudents, 2, Options{})
	want := Ensemble{
		Forecast: Forecast{Method: MethodEnsemble, Status: StatusOK, Values: []float64{29, 34}},
		Models: []Forecast{
			{Method: MethodLinear, Status: StatusOK, Values: []float64{40, 50}},
			{Method: MethodPolynomial, Status: StatusInsufficientData},
			{Method: MethodExponential, Status: StatusOK, Values: []float64{18.1, 18.1}},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("EnsemblePrediction mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsemblePrediction_UsesConfiguredAlpha(t *testing.T) {
	ts := seriesOf(10, 100, 10, 100, 10, 100)
	want := ExponentialSmoothing(ts, domain.FieldTotalStudents, 0.9, 1)
	require.Equal(t, StatusOK, want.Status)
	assert.InDelta(t, 91.8181, want.Values[0], 1e-9)

	e := EnsemblePrediction(ts, domain.FieldTotalStudents, 1, Options{Alpha: 0.9})
	require.Len(t, e.Models, 3)
	assert.Equal(t, want.Values, e.Models[2].Values)
	assert.Equal(t, want.Values, Predict(ts, domain.FieldTotalStudents, MethodExponential, 1, Options{Alpha: 0.9}).Values)

	// out of range falls back to the default factor
	def := ExponentialSmoothing(ts, domain.FieldTotalStudents, DefaultAlpha, 1)
	assert.Equal(t, def.Values, EnsemblePrediction(ts, domain.FieldTotalStudents, 1, Options{Alpha: 1.5}).Models[2].Values)
	assert.NotEqual(t, def.Values, want.Values)
}

func TestCombine_MeanOfAvailableSteps(t *testing.T) {
	models := []Forecast{
		{Method: MethodLinear, Status: StatusOK, Values: []float64{10, 20}},
		{Method: MethodPolynomial, Status: StatusDegenerate},
		{Method: MethodExponential, Status: StatusOK, Values: []float64{13, 13}},
	}
	e := combine(models, 2)
	assert.Equal(t, []float64{12, 17}, e.Values)
}

func TestPredict_Dispatch(t *testing.T) {
	ts := seriesOf(10, 20, 30, 40)
	assert.Equal(t, MethodLinear, Predict(ts, domain.FieldTotalStudents, MethodLinear, 1, Options{}).Method)
	assert.Equal(t, MethodPolynomial, Predict(ts, domain.FieldTotalStudents, MethodPolynomial, 1, Options{}).Method)
	assert.Equal(t, MethodExponential, Predict(ts, domain.FieldTotalStudents, MethodExponential, 1, Options{}).Method)
	assert.Equal(t, MethodEnsemble, Predict(ts, domain.FieldTotalStudents, MethodEnsemble, 1, Options{}).Method)

	m, ok := ParseMethod("polynomial")
	assert.True(t, ok)
	assert.Equal(t, MethodPolynomial, m)
	_, ok = ParseMethod("arima")
	assert.False(t, ok)
}
