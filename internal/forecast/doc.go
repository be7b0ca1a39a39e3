// Package forecast projects a monthly field series forward.
//
// Every method takes the TimeSeries and a field selector and works on the
// field's values in stored, chronological order (see PrepareSeries). Nothing
// here keeps state between calls.
//
// Methods never fail. When a series is too short, or the inputs make the fit
// numerically unstable, the returned Forecast carries StatusInsufficientData or
// StatusDegenerate instead of values, so EnsemblePrediction can compose the
// submodels without error handling at each step.
//
//	f := forecast.LinearRegression(ts, domain.FieldTotalStudents, 3)
//	if f.OK() {
//	    fmt.Println(f.Values)
//	}
package forecast
