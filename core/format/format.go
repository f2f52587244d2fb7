// Package format renders numbers for display: thousands separators,
// fixed-precision percentages and currency amounts. Nil values render as
// NotAvailable.
package format

import (
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for nil values.
const NotAvailable = "N/A"

// DefaultCurrencySymbol is used by Currency when no symbol is given.
const DefaultCurrencySymbol = "€"

// Number formats v with comma thousands separators on the integer part.
// Strings that are not numbers are returned unchanged.
func Number(v any) string {
	if v == nil {
		return NotAvailable
	}
	d, ok := toDecimal(v)
	if !ok {
		if s, isString := v.(string); isString {
			return s
		}
		return NotAvailable
	}
	return group(d.String())
}

// Percentage formats v with two decimals followed by a percent sign.
func Percentage(v any) string {
	if v == nil {
		return NotAvailable
	}
	d, ok := toDecimal(v)
	if !ok {
		return NotAvailable
	}
	return d.StringFixed(2) + "%"
}

// Currency formats v as "<symbol> <amount>" with two decimals and thousands
// separators. An empty symbol selects DefaultCurrencySymbol.
func Currency(v any, symbol string) string {
	if v == nil {
		return NotAvailable
	}
	d, ok := toDecimal(v)
	if !ok {
		return NotAvailable
	}
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return symbol + " " + group(d.StringFixed(2))
}

// group inserts commas every three digits of the integer part of a plain
// decimal string such as "-1234567.89".
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead == 0 && len(intPart) > 0 {
		lead = 3
	}
	sb.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(intPart[i : i+3])
	}
	return sign + sb.String() + frac
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Decimal{}, false
		}
		return *val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		if f := float64(val); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(val), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		return d, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	}
	return decimal.Decimal{}, false
}
