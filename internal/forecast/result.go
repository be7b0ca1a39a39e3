package forecast

// Status tells a caller whether a method produced values and, if not, why.
type Status string

const (
	// StatusOK means the method produced a result.
	StatusOK Status = "ok"
	// StatusInsufficientData means the series was shorter than the method requires.
	StatusInsufficientData Status = "insufficient_data"
	// StatusDegenerate means the inputs made the computation numerically unstable.
	StatusDegenerate Status = "degenerate"
)

// Method names a forecasting model.
type Method string

const (
	MethodLinear      Method = "linear"
	MethodPolynomial  Method = "polynomial"
	MethodExponential Method = "exponential"
	MethodEnsemble    Method = "ensemble"
)

// ParseMethod resolves a method name; unknown names report false.
func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodLinear, MethodPolynomial, MethodExponential, MethodEnsemble:
		return Method(s), true
	}
	return "", false
}

// Forecast is the optional result of one model: Values is populated only when
// Status is StatusOK, and then holds exactly horizon predictions.
type Forecast struct {
	Method Method    `json:"method"`
	Status Status    `json:"status"`
	Values []float64 `json:"values,omitempty"`
}

// OK reports whether the forecast carries values.
func (f Forecast) OK() bool {
	return f.Status == StatusOK
}

// At returns the prediction for a step, if present.
func (f Forecast) At(step int) (float64, bool) {
	if !f.OK() || step < 0 || step >= len(f.Values) {
		return 0, false
	}
	return f.Values[step], true
}

func unavailable(m Method, s Status) Forecast {
	return Forecast{Method: m, Status: s}
}
