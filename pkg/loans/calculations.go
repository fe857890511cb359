// Package loans provides the amortization engine: EMI, fixed monthly
// insurance, full amortization schedules, loan plan summaries, and APR.
//
// All inputs and outputs are decimals; intermediate arithmetic stays at full
// precision and is rounded once at the end of each formula.
package loans

import (
	"fmt"

	"github.com/shopspring/decimal"

	"credit-simulator/pkg/money"
)

var (
	twelve = decimal.NewFromInt(12)
	one    = decimal.NewFromInt(1)
)

// LoanPlan is the immutable summary of a single loan configuration.
type LoanPlan struct {
	// Inputs echoed back.
	LoanPrincipal       decimal.Decimal
	AnnualInterestRate  decimal.Decimal
	AnnualInsuranceRate decimal.Decimal
	LoanDurationMonths  int
	// Outputs.
	MonthlyEMI           decimal.Decimal // principal + interest only
	MonthlyInsurance     decimal.Decimal // fixed for the life of the loan
	MonthlyInstallment   decimal.Decimal // EMI + insurance
	MonthlyInterestFirst decimal.Decimal
	TotalInterestPaid    decimal.Decimal
	TotalInsurancePaid   decimal.Decimal
	TotalCostOfCredit    decimal.Decimal
	TotalRepaid          decimal.Decimal
	EffectiveAnnualRate  decimal.Decimal // APR, advisory
}

// ComputeEMI returns the Equated Monthly Installment (principal + interest
// only) using the reducing-balance annuity formula
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with r the monthly rate. A zero annual rate degenerates to an equal
// principal split.
func ComputeEMI(principal, annualRate decimal.Decimal, durationMonths int) (decimal.Decimal, error) {
	if durationMonths <= 0 {
		return money.Zero, fmt.Errorf("duration months must be > 0, got %d", durationMonths)
	}
	if principal.IsNegative() {
		return money.Zero, fmt.Errorf("principal must be >= 0, got %s", principal)
	}

	n := decimal.NewFromInt(int64(durationMonths))
	if annualRate.IsZero() {
		return money.Round(principal.Div(n)), nil
	}

	r := annualRate.Div(twelve)
	factor := one.Add(r).Pow(n)
	emi := principal.Mul(r).Mul(factor).Div(factor.Sub(one))
	return money.Round(emi), nil
}

// ComputeMonthlyInsurance returns the fixed monthly insurance premium. It is
// always computed off the original principal, never the declining balance.
func ComputeMonthlyInsurance(originalPrincipal, annualInsuranceRate decimal.Decimal) decimal.Decimal {
	return money.Round(originalPrincipal.Mul(annualInsuranceRate).Div(twelve))
}

// ComputeLoanPlan computes the full plan summary for a loan. Total interest
// is summed from the amortization schedule rather than recomputed in closed
// form, so the totals match the schedule cent for cent.
func ComputeLoanPlan(principal, annualInterestRate, annualInsuranceRate decimal.Decimal, durationMonths int) (LoanPlan, error) {
	emi, err := ComputeEMI(principal, annualInterestRate, durationMonths)
	if err != nil {
		return LoanPlan{}, err
	}
	monthlyInsurance := ComputeMonthlyInsurance(principal, annualInsuranceRate)
	monthlyInstallment := money.Round(emi.Add(monthlyInsurance))

	r := annualInterestRate.Div(twelve)
	monthlyInterestFirst := money.Round(principal.Mul(r))

	schedule, err := BuildAmortizationSchedule(principal, annualInterestRate, annualInsuranceRate, durationMonths)
	if err != nil {
		return LoanPlan{}, err
	}
	totalInterest := money.Zero
	for _, row := range schedule {
		totalInterest = totalInterest.Add(row.InterestComponent)
	}

	n := decimal.NewFromInt(int64(durationMonths))
	totalInsurance := money.Round(monthlyInsurance.Mul(n))
	totalCost := money.Round(totalInterest.Add(totalInsurance))
	totalRepaid := money.Round(principal.Add(totalCost))

	return LoanPlan{
		LoanPrincipal:        principal,
		AnnualInterestRate:   annualInterestRate,
		AnnualInsuranceRate:  annualInsuranceRate,
		LoanDurationMonths:   durationMonths,
		MonthlyEMI:           emi,
		MonthlyInsurance:     monthlyInsurance,
		MonthlyInstallment:   monthlyInstallment,
		MonthlyInterestFirst: monthlyInterestFirst,
		TotalInterestPaid:    totalInterest,
		TotalInsurancePaid:   totalInsurance,
		TotalCostOfCredit:    totalCost,
		TotalRepaid:          totalRepaid,
		EffectiveAnnualRate:  ComputeAPR(principal, monthlyInstallment, durationMonths),
	}, nil
}
