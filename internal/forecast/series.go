package forecast

import "campuspulse/pkg/contracts/domain"

// PrepareSeries projects one field out of the series in stored order. Every
// forecasting and diagnostic method works on this ordering.
func PrepareSeries(ts domain.TimeSeries, field domain.Field) []float64 {
	return ts.Values(field)
}
