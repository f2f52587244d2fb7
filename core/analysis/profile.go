package analysis

import (
	"slices"

	"github.com/asaidimu/go-tabula/core/table"
)

// Column data types reported by Profile.
const (
	DTypeNumber = "number"
	DTypeText   = "text"
)

// ColumnProfile summarises one column.
type ColumnProfile struct {
	Name         string   `json:"name"`
	DType        string   `json:"dtype"`
	NonNullCount int      `json:"non_null_count"`
	NullCount    int      `json:"null_count"`
	UniqueValues int      `json:"unique_values"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Mean         *float64 `json:"mean,omitempty"`
}

// Profile summarises every column of t in header order.
func Profile(t *table.Table) []ColumnProfile {
	out := make([]ColumnProfile, 0, t.Width())
	for _, field := range t.Header {
		present := len(presentValues(t, field))
		p := ColumnProfile{
			Name:         field,
			DType:        DTypeText,
			NonNullCount: present,
			NullCount:    t.Len() - present,
			UniqueValues: distinctCount(t, field),
		}
		if values, all := numericValues(t, field); all && len(values) > 0 {
			p.DType = DTypeNumber
			lo, hi := slices.Min(values), slices.Max(values)
			sum := 0.0
			for _, v := range values {
				sum += v
			}
			mean := sum / float64(len(values))
			p.Min, p.Max, p.Mean = &lo, &hi, &mean
		}
		out = append(out, p)
	}
	return out
}

// Summary is the dataset overview served by the analysis endpoint.
type Summary struct {
	TotalRecords        int      `json:"total_companies"`
	TotalFeatures       int      `json:"total_features"`
	OverallCompleteness float64  `json:"overall_completeness"`
	NumericFeatures     []string `json:"numeric_features"`
	CategoricalFeatures []string `json:"categorical_features"`
	BinaryFeatures      []string `json:"binary_features"`
	NonBinaryFeatures   []string `json:"non_binary_features"`
	Groups              []Group  `json:"data_groups"`
}

// Summarize computes the dataset overview.
func Summarize(t *table.Table) *Summary {
	report := Completeness(t)
	return &Summary{
		TotalRecords:        t.Len(),
		TotalFeatures:       t.Width(),
		OverallCompleteness: report.Overall,
		NumericFeatures:     NumericFeatures(t),
		CategoricalFeatures: CategoricalFeatures(t),
		BinaryFeatures:      BinaryFeatures(t),
		NonBinaryFeatures:   NonBinaryNumericFeatures(t),
		Groups:              report.Groups,
	}
}
