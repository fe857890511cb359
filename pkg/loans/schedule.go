package loans

import (
	"github.com/shopspring/decimal"

	"credit-simulator/pkg/money"
)

// AmortizationRow is one month of an amortization schedule.
type AmortizationRow struct {
	Period             int
	OpeningBalance     decimal.Decimal
	MonthlyInstallment decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	InsuranceComponent decimal.Decimal
	ClosingBalance     decimal.Decimal
}

// BuildAmortizationSchedule builds the month-by-month schedule for a loan.
// The final period pays off the exact remaining balance, so the last row's
// closing balance is always exactly zero regardless of accumulated rounding.
func BuildAmortizationSchedule(principal, annualInterestRate, annualInsuranceRate decimal.Decimal, durationMonths int) ([]AmortizationRow, error) {
	emi, err := ComputeEMI(principal, annualInterestRate, durationMonths)
	if err != nil {
		return nil, err
	}
	monthlyInsurance := ComputeMonthlyInsurance(principal, annualInsuranceRate)
	r := annualInterestRate.Div(twelve)

	rows := make([]AmortizationRow, 0, durationMonths)
	balance := principal

	for period := 1; period <= durationMonths; period++ {
		opening := balance
		interest := money.Round(opening.Mul(r))

		var principalComponent decimal.Decimal
		if period == durationMonths {
			principalComponent = opening
		} else {
			principalComponent = money.Round(emi.Sub(interest))
			// Rounding must not push the balance below zero.
			if principalComponent.GreaterThan(opening) {
				principalComponent = opening
			}
		}
		closing := money.Round(opening.Sub(principalComponent))

		rows = append(rows, AmortizationRow{
			Period:             period,
			OpeningBalance:     opening,
			MonthlyInstallment: money.Round(principalComponent.Add(interest).Add(monthlyInsurance)),
			PrincipalComponent: principalComponent,
			InterestComponent:  interest,
			InsuranceComponent: monthlyInsurance,
			ClosingBalance:     closing,
		})
		balance = closing
	}

	return rows, nil
}
