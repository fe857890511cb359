// Package output provides utilities for formatting and displaying
// simulation results. Amounts are converted to float64 for display only;
// all arithmetic stays decimal upstream.
package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"credit-simulator/internal/optimizer"
	"credit-simulator/pkg/loans"
)

var hundred = decimal.NewFromInt(100)

// PrettyResult writes a human-readable summary of the optimized plan.
func PrettyResult(w io.Writer, result optimizer.OptimizedResult) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "--- Best plan (%s, %s profile, preference: %s) ---\n",
		result.Country, result.ProfileQuality, result.OptimizationPreference)
	_, _ = p.Fprintf(w, "Property price:         %.2f %s\n", f(result.PropertyPrice), result.Currency)
	_, _ = p.Fprintf(w, "Purchase taxes:         %.2f %s\n", f(result.PurchaseTaxes), result.Currency)
	_, _ = p.Fprintf(w, "Total acquisition cost: %.2f %s\n", f(result.TotalAcquisitionCost), result.Currency)
	_, _ = p.Fprintf(w, "Down payment:           %.2f %s\n", f(result.DownPayment), result.Currency)
	_, _ = p.Fprintf(w, "Loan principal:         %.2f %s (LTV %s%%)\n",
		f(result.LoanPrincipal), result.Currency, result.LtvRatio.Mul(hundred).StringFixed(2))
	fmt.Fprintf(w, "Duration:               %d months\n", result.LoanDurationMonths)

	plan := result.Plan
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Annual interest rate:   %s%%\n", plan.AnnualInterestRate.Mul(hundred).StringFixed(2))
	_, _ = p.Fprintf(w, "Monthly EMI:            %.2f %s\n", f(plan.MonthlyEMI), result.Currency)
	_, _ = p.Fprintf(w, "Monthly insurance:      %.2f %s\n", f(plan.MonthlyInsurance), result.Currency)
	_, _ = p.Fprintf(w, "Monthly installment:    %.2f %s\n", f(plan.MonthlyInstallment), result.Currency)
	_, _ = p.Fprintf(w, "Total interest:         %.2f %s\n", f(plan.TotalInterestPaid), result.Currency)
	_, _ = p.Fprintf(w, "Total insurance:        %.2f %s\n", f(plan.TotalInsurancePaid), result.Currency)
	_, _ = p.Fprintf(w, "Total cost of credit:   %.2f %s\n", f(plan.TotalCostOfCredit), result.Currency)
	_, _ = p.Fprintf(w, "Total repaid:           %.2f %s\n", f(plan.TotalRepaid), result.Currency)
	fmt.Fprintf(w, "APR (approx.):          %s%%\n", plan.EffectiveAnnualRate.Mul(hundred).StringFixed(2))
}

// PrettySchedule writes the first previewRows rows of an amortization
// schedule plus the final row.
func PrettySchedule(w io.Writer, schedule []loans.AmortizationRow, currency string, previewRows int) {
	if len(schedule) == 0 {
		return
	}
	shown := previewRows
	if len(schedule) < shown {
		shown = len(schedule)
	}
	fmt.Fprintf(w, "\n--- Amortization schedule (first %d of %d months, %s) ---\n", shown, len(schedule), currency)
	fmt.Fprintf(w, "Month | Opening      | Installment | Principal | Interest | Insurance | Closing\n")
	fmt.Fprintf(w, "_____ | ____________ | ___________ | _________ | ________ | _________ | _______\n")
	for i, row := range schedule {
		if i >= previewRows && i != len(schedule)-1 {
			if i == previewRows {
				fmt.Fprintf(w, "  ...\n")
			}
			continue
		}
		fmt.Fprintf(w, "%5d | %12s | %11s | %9s | %8s | %9s | %s\n",
			row.Period,
			row.OpeningBalance.StringFixed(2),
			row.MonthlyInstallment.StringFixed(2),
			row.PrincipalComponent.StringFixed(2),
			row.InterestComponent.StringFixed(2),
			row.InsuranceComponent.StringFixed(2),
			row.ClosingBalance.StringFixed(2),
		)
	}
}

// PrettySweetSpot writes the sweet-spot milestone table and rationale.
func PrettySweetSpot(w io.Writer, analysis optimizer.SweetSpotAnalysis, currency string) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "\n--- Down payment sweet spot (duration: %d months) ---\n", analysis.DurationMonths)
	fmt.Fprintf(w, "Label                     | Down payment | Principal    | Installment | LTV    | DTI    | Rate   | Savings left\n")
	fmt.Fprintf(w, "_________________________ | ____________ | ____________ | ___________ | ______ | ______ | ______ | ____________\n")
	for _, row := range analysis.Milestones {
		label := row.Label
		if row.IsSweetSpot {
			label = "* " + label
		}
		fmt.Fprintf(w, "%-25s | %12s | %12s | %11s | %5s%% | %5s%% | %5s%% | %s\n",
			label,
			row.DownPayment.StringFixed(2),
			row.LoanPrincipal.StringFixed(2),
			row.Plan.MonthlyInstallment.StringFixed(2),
			row.LtvRatio.Mul(hundred).StringFixed(1),
			row.DtiRatio.Mul(hundred).StringFixed(1),
			row.EffectiveAnnualRate.Mul(hundred).StringFixed(2),
			row.SavingsRemaining.StringFixed(2),
		)
	}
	_, _ = p.Fprintf(w, "\nMarginal saving per 1,000 extra: %.2f %s over the term\n",
		f(analysis.MarginalSavingPer1k), currency)
	fmt.Fprintf(w, "Effective annual yield: %s%% vs opportunity rate %s%%\n",
		analysis.EffectiveAnnualYield.Mul(hundred).StringFixed(2),
		analysis.OpportunityRate.Mul(hundred).StringFixed(2))
	fmt.Fprintf(w, "\n%s\n", analysis.SweetSpotReason)
	if analysis.ReserveWarning != "" {
		fmt.Fprintf(w, "\n%s\n", analysis.ReserveWarning)
	}
}

// f converts a decimal for display formatting only.
func f(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
