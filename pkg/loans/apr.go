package loans

import (
	"math"

	"github.com/shopspring/decimal"

	"credit-simulator/pkg/money"
)

const (
	aprMaxIterations = 100
	aprTolerance     = 1e-12
)

// ComputeAPR solves the present-value equation
//
//	sum_{t=1}^{n} C/(1+r)^t - P = 0
//
// for the monthly rate r via Newton-Raphson and returns the annualized rate
// (r * 12) rounded to six decimals.
//
// This is the one place float64 is allowed: the iteration runs entirely in
// floating point behind this function boundary, and the precision loss is
// bounded by the 6-decimal rounding of the result. A numeric failure
// (vanishing derivative, overflow) terminates the loop early and the last
// valid iterate is returned; APR is advisory, never load-bearing.
func ComputeAPR(principal, monthlyInstallment decimal.Decimal, durationMonths int) decimal.Decimal {
	if principal.LessThanOrEqual(money.Zero) || monthlyInstallment.LessThanOrEqual(money.Zero) {
		return money.Zero
	}

	c := monthlyInstallment.InexactFloat64()
	p := principal.InexactFloat64()
	n := float64(durationMonths)

	// Initial guess: nominal monthly rate.
	r := c / (p * n)

	for i := 0; i < aprMaxIterations; i++ {
		factor := math.Pow(1+r, n)
		if r == 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
			break
		}

		// f(r) = C * ((1+r)^n - 1) / (r * (1+r)^n) - P
		f := c*(factor-1)/(r*factor) - p

		powNMinus1 := math.Pow(1+r, n-1)
		denom := r * factor
		df := c * ((n*powNMinus1*denom - (factor-1)*(factor+r*n*powNMinus1)) / (denom * denom))
		if df == 0 || math.IsInf(df, 0) || math.IsNaN(df) {
			break
		}

		rNew := r - f/df
		if math.IsInf(rNew, 0) || math.IsNaN(rNew) {
			break
		}
		if math.Abs(rNew-r) < aprTolerance {
			r = rNew
			break
		}
		r = rNew
	}

	return money.RoundRate(decimal.NewFromFloat(r * 12))
}
