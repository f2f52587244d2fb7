package analysis

import (
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/table"
)

// presentValues returns the non-missing values of field in record order.
func presentValues(t *table.Table, field string) []any {
	var out []any
	for _, rec := range t.Records {
		if !rec.IsMissing(field) {
			out = append(out, rec[field])
		}
	}
	return out
}

// numericValues returns the non-missing values of field that parse as numbers,
// and whether every non-missing value did.
func numericValues(t *table.Table, field string) ([]float64, bool) {
	var out []float64
	all := true
	for _, v := range presentValues(t, field) {
		f, ok := query.ToFloat64(v)
		if !ok {
			all = false
			continue
		}
		out = append(out, f)
	}
	return out, all
}

// distinctCount counts distinct non-missing values of field, comparing values
// by their text so "1" and 1 count once.
func distinctCount(t *table.Table, field string) int {
	records := make([]table.Record, 0, t.Len())
	for _, rec := range t.Records {
		if !rec.IsMissing(field) {
			records = append(records, table.Record{field: rec.String(field)})
		}
	}
	return len(query.Unique(records, field))
}

// IsNumeric reports whether field has at least one value and every
// non-missing value parses as a number.
func IsNumeric(t *table.Table, field string) bool {
	values, all := numericValues(t, field)
	return all && len(values) > 0
}

// NumericFeatures returns the numeric columns in header order.
func NumericFeatures(t *table.Table) []string {
	out := []string{}
	for _, field := range t.Header {
		if IsNumeric(t, field) {
			out = append(out, field)
		}
	}
	return out
}

// CategoricalFeatures returns the non-numeric columns in header order.
func CategoricalFeatures(t *table.Table) []string {
	out := []string{}
	for _, field := range t.Header {
		if !IsNumeric(t, field) {
			out = append(out, field)
		}
	}
	return out
}

// BinaryFeatures returns the columns holding at most two distinct
// non-missing values, in header order.
func BinaryFeatures(t *table.Table) []string {
	out := []string{}
	for _, field := range t.Header {
		if distinctCount(t, field) <= 2 {
			out = append(out, field)
		}
	}
	return out
}

// NonBinaryNumericFeatures returns numeric columns that are not binary. These
// are the columns suited to outlier detection.
func NonBinaryNumericFeatures(t *table.Table) []string {
	binary := make(map[string]struct{})
	for _, f := range BinaryFeatures(t) {
		binary[f] = struct{}{}
	}
	out := []string{}
	for _, f := range NumericFeatures(t) {
		if _, ok := binary[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
