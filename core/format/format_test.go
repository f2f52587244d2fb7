package format

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, NotAvailable},
		{"small int", 999, "999"},
		{"thousands", 1234, "1,234"},
		{"millions", int64(1234567), "1,234,567"},
		{"negative", -1234567, "-1,234,567"},
		{"uint", uint32(1000), "1,000"},
		{"float", 1234.5, "1,234.5"},
		{"fraction digits untouched", 1234.5678, "1,234.5678"},
		{"numeric string", "9876543", "9,876,543"},
		{"text string", "n/a", "n/a"},
		{"decimal", decimal.RequireFromString("1000000.25"), "1,000,000.25"},
		{"nan", math.NaN(), NotAvailable},
		{"unsupported", struct{}{}, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Number(tt.input))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, NotAvailable, Percentage(nil))
	assert.Equal(t, "75.00%", Percentage(75))
	assert.Equal(t, "33.33%", Percentage(100.0/3))
	assert.Equal(t, "12.50%", Percentage("12.5"))
	assert.Equal(t, NotAvailable, Percentage("abc"))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, NotAvailable, Currency(nil, ""))
	assert.Equal(t, "€ 1,234.50", Currency(1234.5, ""))
	assert.Equal(t, "$ 1,000,000.00", Currency(1000000, "$"))
	assert.Equal(t, "€ 0.00", Currency("0", ""))
	assert.Equal(t, "€ -12.30", Currency(-12.3, ""))
	assert.Equal(t, NotAvailable, Currency("abc", "$"))
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "0", group("0"))
	assert.Equal(t, "100", group("100"))
	assert.Equal(t, "1,000", group("1000"))
	assert.Equal(t, "100,000.5", group("100000.5"))
	assert.Equal(t, "-1,000.00", group("-1000.00"))
}
