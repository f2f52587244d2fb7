package query

import (
	"reflect"
	"slices"
	"strings"

	"github.com/asaidimu/go-tabula/core/table"
)

type uniqueOptions struct {
	includeMissing bool
}

// UniqueOption configures Unique.
type UniqueOption func(*uniqueOptions)

// IncludeMissing makes Unique report records lacking the field (or holding
// nil) as a single nil entry at its first-occurrence position. By default such
// records are skipped.
func IncludeMissing() UniqueOption {
	return func(o *uniqueOptions) { o.includeMissing = true }
}

// Unique returns the distinct values of field across records in
// first-occurrence order.
func Unique(records []table.Record, field string, opts ...UniqueOption) []any {
	var o uniqueOptions
	for _, opt := range opts {
		opt(&o)
	}

	out := []any{}
	seen := make(map[any]struct{})
	var opaque []any // values whose type cannot be a map key
	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil {
			if !o.includeMissing {
				continue
			}
			v = nil
		}

		if v != nil && !reflect.TypeOf(v).Comparable() {
			if slices.ContainsFunc(opaque, func(x any) bool { return reflect.DeepEqual(x, v) }) {
				continue
			}
			opaque = append(opaque, v)
			out = append(out, v)
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter returns the records satisfying every active entry of filters, in
// their original order. The input slice is not modified.
func Filter(records []table.Record, filters FieldFilter) []table.Record {
	out := make([]table.Record, 0, len(records))
	for _, rec := range records {
		if Matches(rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether a single record satisfies filters.
func Matches(rec table.Record, filters FieldFilter) bool {
	for field, want := range filters {
		got, present := rec[field]
		if !matchValue(want, got, present) {
			return false
		}
	}
	return true
}

func matchValue(want, got any, present bool) bool {
	if isInactive(want) {
		return true
	}
	if isSequence(want) {
		for _, member := range sequence(want) {
			if strictEqual(member, got) {
				return true
			}
		}
		return false
	}
	if isNumber(want) {
		return strictEqual(want, got)
	}
	if s, ok := want.(string); ok {
		if !present || got == nil {
			return false
		}
		return strings.Contains(strings.ToLower(stringify(got)), strings.ToLower(s))
	}
	return strictEqual(want, got)
}

// isInactive reports whether a filter value leaves its field unconstrained.
func isInactive(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if isSequence(v) {
		return reflect.ValueOf(v).Len() == 0
	}
	return false
}

// Sort returns a new slice holding records ordered by keys. For each key in
// turn, equal values defer to the next key; otherwise numeric values come
// before text, numbers compare numerically and text lexically, reversed for
// descending keys. Absent and nil values compare as the empty string. The sort is stable and
// the input slice is left untouched.
func Sort(records []table.Record, keys []SortKey) []table.Record {
	out := slices.Clone(records)
	if out == nil {
		out = []table.Record{}
	}
	if len(keys) == 0 {
		return out
	}
	slices.SortStableFunc(out, func(a, b table.Record) int {
		return compareRecords(a, b, keys)
	})
	return out
}

func compareRecords(a, b table.Record, keys []SortKey) int {
	for _, key := range keys {
		c := compareValues(a[key.Field], b[key.Field])
		if c == 0 {
			continue
		}
		if key.Direction == SortDirectionDesc {
			return -c
		}
		return c
	}
	return 0
}
