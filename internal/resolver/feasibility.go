package resolver

import (
	"fmt"

	"credit-simulator/pkg/loans"
	"credit-simulator/pkg/money"
)

// InfeasibleError means the mathematics prove no loan can satisfy the
// buyer's constraints. It is distinct from invalid input: the configuration
// is well-formed, the buyer just cannot afford it.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string { return e.Reason }

// CheckFeasibility rejects provably unaffordable configurations before any
// search runs. Three independent checks, each with its own message:
//
//  1. savings must cover the minimum down payment;
//  2. a pinned down payment must lie within [minimum, savings];
//  3. the cheapest possible arrangement (smallest principal, longest
//     duration, LTV-adjusted rate) must fit under the effective monthly cap.
//
// Check 3 is sufficient: a longer duration only lowers the payment, so if the
// floor payment breaches the cap, every arrangement does.
func CheckFeasibility(params ResolvedParams) error {
	if params.AvailableSavings.LessThan(params.MinDownPayment) {
		return &InfeasibleError{Reason: fmt.Sprintf(
			"insufficient savings: you need at least %s %s as a down payment (you have %s %s)",
			params.MinDownPayment.StringFixed(2), params.Currency,
			params.AvailableSavings.StringFixed(2), params.Currency,
		)}
	}

	if params.PreferredDownPayment != nil {
		preferred := *params.PreferredDownPayment
		if preferred.LessThan(params.MinDownPayment) {
			return &InfeasibleError{Reason: fmt.Sprintf(
				"preferred down payment %s %s is below the required minimum of %s %s",
				preferred.StringFixed(2), params.Currency,
				params.MinDownPayment.StringFixed(2), params.Currency,
			)}
		}
		if preferred.GreaterThan(params.AvailableSavings) {
			return &InfeasibleError{Reason: fmt.Sprintf(
				"preferred down payment %s %s exceeds available savings of %s %s",
				preferred.StringFixed(2), params.Currency,
				params.AvailableSavings.StringFixed(2), params.Currency,
			)}
		}
	}

	// Smallest possible principal: all savings committed as down payment.
	minPrincipal := params.TotalAcquisitionCost.Sub(params.AvailableSavings)
	if minPrincipal.LessThanOrEqual(money.Zero) {
		// The buyer can pay cash; trivially feasible.
		return nil
	}

	minLtv := minPrincipal.Div(params.PropertyPrice)
	emi, err := loans.ComputeEMI(minPrincipal, params.RateForLTV(minLtv), params.MaxLoanDurationMonths)
	if err != nil {
		return err
	}
	minPayment := emi.Add(loans.ComputeMonthlyInsurance(minPrincipal, params.InsuranceRate))

	effectiveCap := params.EffectiveMonthlyCap()
	if minPayment.GreaterThan(effectiveCap) {
		return &InfeasibleError{Reason: fmt.Sprintf(
			"monthly payment for the minimum loan (%s %s over %d months) would be %s %s, "+
				"exceeding the effective monthly cap of %s %s "+
				"(debt ratio limit: %s of income, absolute cap: %s %s)",
			minPrincipal.StringFixed(2), params.Currency, params.MaxLoanDurationMonths,
			minPayment.StringFixed(2), params.Currency,
			effectiveCap.StringFixed(2), params.Currency,
			params.MaxDebtRatio.String(), params.MaxMonthlyPayment.StringFixed(2), params.Currency,
		)}
	}

	return nil
}
