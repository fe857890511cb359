package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Round up at midpoint", "1.235", "1.24"},
		{"Round down below midpoint", "1.234", "1.23"},
		{"No rounding needed", "1.23", "1.23"},
		{"Large number", "12345.678", "12345.68"},
		{"Zero", "0", "0"},
		{"Sub-cent value", "0.004", "0"},
		{"Half cent rounds up", "0.005", "0.01"},
		{"Exactly one cent", "0.01", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(decimal.RequireFromString(tt.input))
			if !result.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Round(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundRatio(t *testing.T) {
	result := RoundRatio(decimal.RequireFromString("0.89642857"))
	if !result.Equal(decimal.RequireFromString("0.8964")) {
		t.Errorf("RoundRatio = %s, expected 0.8964", result)
	}
}

func TestRoundRate(t *testing.T) {
	result := RoundRate(decimal.RequireFromString("0.0351234567"))
	if !result.Equal(decimal.RequireFromString("0.035123")) {
		t.Errorf("RoundRate = %s, expected 0.035123", result)
	}
}

func TestMinMax(t *testing.T) {
	a := decimal.RequireFromString("2200")
	b := decimal.RequireFromString("2400")
	if !Min(a, b).Equal(a) {
		t.Errorf("Min(%s, %s) = %s", a, b, Min(a, b))
	}
	if !Max(a, b).Equal(b) {
		t.Errorf("Max(%s, %s) = %s", a, b, Max(a, b))
	}
	if !Min(a, a).Equal(a) {
		t.Errorf("Min of equal values should return the value")
	}
}
