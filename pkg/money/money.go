// Package money provides the exact-decimal rounding primitives shared by all
// monetary calculations. Every value that affects a monetary outcome goes
// through these helpers; float64 never does.
package money

import "github.com/shopspring/decimal"

// Zero is the shared decimal zero.
var Zero = decimal.Zero

// Round rounds a monetary value to two decimals, half away from zero, which
// is half-up for the non-negative amounts this domain deals in. This is the
// single rounding authority for currency amounts.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(2)
}

// RoundRatio rounds a dimensionless ratio (LTV, DTI) to four decimals.
func RoundRatio(val decimal.Decimal) decimal.Decimal {
	return val.Round(4)
}

// RoundRate rounds an annual rate to six decimals.
func RoundRate(val decimal.Decimal) decimal.Decimal {
	return val.Round(6)
}

// Min returns the smaller of two decimals.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Max returns the larger of two decimals.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}
