package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

// DefaultZThreshold is the default anomaly cutoff in population standard deviations.
const DefaultZThreshold = 2.0

const minAnomalyPoints = 3

// Anomaly is one record whose value lies beyond the z-score threshold.
type Anomaly struct {
	Key              string  `json:"key"`
	Value            float64 `json:"value"`
	ZScore           float64 `json:"z_score"`
	PercentDeviation float64 `json:"percent_deviation"`
}

// Anomalies lists flagged records along with the statistics used.
type Anomalies struct {
	Status    forecast.Status `json:"status"`
	Mean      float64         `json:"mean"`
	StdDev    float64         `json:"std_dev"`
	Threshold float64         `json:"threshold"`
	Items     []Anomaly       `json:"items"`
}

// DetectAnomalies flags every record with |value-mean|/stddev strictly above
// zThreshold, using the population mean and standard deviation of the whole
// field. Short or constant series give an empty list.
func DetectAnomalies(ts domain.TimeSeries, field domain.Field, zThreshold float64) Anomalies {
	out := Anomalies{Threshold: zThreshold, Items: []Anomaly{}}
	ys := forecast.PrepareSeries(ts, field)
	if len(ys) < minAnomalyPoints {
		out.Status = forecast.StatusInsufficientData
		return out
	}

	mean, std := stat.PopMeanStdDev(ys, nil)
	out.Mean, out.StdDev = mean, std
	if std == 0 || math.IsNaN(std) {
		out.Status = forecast.StatusDegenerate
		return out
	}

	out.Status = forecast.StatusOK
	keys := ts.Keys()
	for i, v := range ys {
		z := math.Abs(v-mean) / std
		if z <= zThreshold {
			continue
		}
		a := Anomaly{Key: keys[i], Value: v, ZScore: z}
		if mean != 0 {
			a.PercentDeviation = (v - mean) / mean * 100
		}
		out.Items = append(out.Items, a)
	}
	return out
}
