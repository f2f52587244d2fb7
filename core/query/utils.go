package query

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToFloat64 converts a value of any numeric kind, or a string holding a finite
// number, to a float64. It reports whether the conversion succeeded.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if isNumber(v) {
		return reflect.ValueOf(v).Convert(reflect.TypeOf(float64(0))).Float(), true
	}
	return 0, false
}

// isNumber reports whether v's dynamic type is a Go integer or float kind.
func isNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isSequence reports whether v is a slice or array other than a string.
func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// sequence returns the elements of a slice or array value.
func sequence(v any) []any {
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// strictEqual compares two values with identical type and value semantics.
// Non-comparable values fall back to deep equality instead of panicking.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// stringify renders a value as text; nil becomes "".
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// isNumeric reports whether v is a number or text holding one.
func isNumeric(v any) bool {
	_, ok := ToFloat64(v)
	return ok
}

// compareValues is a total order over record values. Numeric values sort
// before text and compare numerically among themselves; text compares
// lexically. nil compares as "".
func compareValues(a, b any) int {
	if strictEqual(a, b) {
		return 0
	}
	af, aok := ToFloat64(a)
	bf, bok := ToFloat64(b)
	switch {
	case aok && bok:
		return cmp.Compare(af, bf)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(stringify(a), stringify(b))
}
