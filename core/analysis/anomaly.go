package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/table"
)

var (
	// ErrUnknownFeature is returned when the requested column does not exist.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrNoNumericData is returned when a column holds no numeric values.
	ErrNoNumericData = errors.New("feature has no numeric data")
)

// iqrFactor scales the interquartile range into the outlier fences.
const iqrFactor = 1.5

// AnomalyStatistics holds the quartiles and fences used for detection.
type AnomalyStatistics struct {
	Q1         float64 `json:"Q1"`
	Q3         float64 `json:"Q3"`
	IQR        float64 `json:"IQR"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// AnomalyReport lists the records whose value for Feature falls outside the
// IQR fences.
type AnomalyReport struct {
	Feature           string            `json:"feature_name"`
	AnomalyCount      int               `json:"anomaly_count"`
	TotalRecords      int               `json:"total_records"`
	AnomalyPercentage float64           `json:"anomaly_percentage"`
	Statistics        AnomalyStatistics `json:"statistics"`
	Anomalies         []table.Record    `json:"anomalies"`
}

// DetectAnomalies flags outliers of a numeric column with the interquartile
// range method. TotalRecords counts the records with a numeric value.
func DetectAnomalies(t *table.Table, feature string) (*AnomalyReport, error) {
	if !t.HasField(feature) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, feature)
	}
	values, _ := numericValues(t, feature)
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoNumericData, feature)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	stats := AnomalyStatistics{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - iqrFactor*iqr,
		UpperBound: q3 + iqrFactor*iqr,
	}

	anomalies := []table.Record{}
	for _, rec := range t.Records {
		if rec.IsMissing(feature) {
			continue
		}
		v, ok := query.ToFloat64(rec[feature])
		if !ok {
			continue
		}
		if v < stats.LowerBound || v > stats.UpperBound {
			anomalies = append(anomalies, rec)
		}
	}

	return &AnomalyReport{
		Feature:           feature,
		AnomalyCount:      len(anomalies),
		TotalRecords:      len(values),
		AnomalyPercentage: float64(len(anomalies)) / float64(len(values)) * 100,
		Statistics:        stats,
		Anomalies:         anomalies,
	}, nil
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks. It returns NaN for empty input.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
