package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/optimizer"
	"credit-simulator/pkg/loans"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func samplePlan(t *testing.T) loans.LoanPlan {
	t.Helper()
	plan, err := loans.ComputeLoanPlan(d(t, "313750"), d(t, "0.032"), d(t, "0.0025"), 240)
	if err != nil {
		t.Fatalf("ComputeLoanPlan returned error: %v", err)
	}
	return plan
}

func TestPrettyResult(t *testing.T) {
	result := optimizer.OptimizedResult{
		DownPayment:            d(t, "80000"),
		LoanPrincipal:          d(t, "313750"),
		LoanDurationMonths:     240,
		Plan:                   samplePlan(t),
		LtvRatio:               d(t, "0.8964"),
		Country:                "BE",
		ProfileQuality:         "average",
		Currency:               "EUR",
		MonthlyNetIncome:       d(t, "5500"),
		PropertyPrice:          d(t, "350000"),
		PurchaseTaxes:          d(t, "43750"),
		TotalAcquisitionCost:   d(t, "393750"),
		OptimizationPreference: "balanced",
	}

	var buf bytes.Buffer
	PrettyResult(&buf, result)
	out := buf.String()

	for _, want := range []string{
		"Best plan (BE, average profile, preference: balanced)",
		"Down payment:",
		"LTV 89.64%",
		"Duration:               240 months",
		"Annual interest rate:   3.20%",
		"EUR",
		"APR (approx.):",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettySchedule(t *testing.T) {
	schedule, err := loans.BuildAmortizationSchedule(d(t, "100000"), d(t, "0.035"), d(t, "0.0025"), 24)
	if err != nil {
		t.Fatalf("BuildAmortizationSchedule returned error: %v", err)
	}

	t.Run("Preview plus final row", func(t *testing.T) {
		var buf bytes.Buffer
		PrettySchedule(&buf, schedule, "EUR", 12)
		out := buf.String()

		if !strings.Contains(out, "first 12 of 24 months") {
			t.Errorf("output missing the preview header:\n%s", out)
		}
		if !strings.Contains(out, "...") {
			t.Errorf("output missing the elision marker:\n%s", out)
		}
		if !strings.Contains(out, "   24 |") {
			t.Errorf("output missing the final row:\n%s", out)
		}
		if strings.Contains(out, "   13 |") {
			t.Errorf("output contains an elided row:\n%s", out)
		}
	})

	t.Run("Short schedule shown in full", func(t *testing.T) {
		short := schedule[:6]
		var buf bytes.Buffer
		PrettySchedule(&buf, short, "EUR", 12)
		out := buf.String()

		if strings.Contains(out, "...") {
			t.Errorf("short schedule should not be elided:\n%s", out)
		}
	})

	t.Run("Empty schedule writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		PrettySchedule(&buf, nil, "EUR", 12)
		if buf.Len() != 0 {
			t.Errorf("expected no output, got:\n%s", buf.String())
		}
	})
}

func TestPrettySweetSpot(t *testing.T) {
	analysis := optimizer.SweetSpotAnalysis{
		Milestones: []optimizer.SweetSpotMilestone{
			{
				Label:               "Sweet spot",
				DownPayment:         d(t, "78750"),
				LoanPrincipal:       d(t, "315000"),
				Plan:                samplePlan(t),
				LtvRatio:            d(t, "0.9000"),
				DtiRatio:            d(t, "0.2900"),
				SavingsRemaining:    d(t, "1250"),
				EffectiveAnnualRate: d(t, "0.0320"),
				IsSweetSpot:         true,
			},
			{
				Label:               "Maximum",
				DownPayment:         d(t, "80000"),
				LoanPrincipal:       d(t, "313750"),
				Plan:                samplePlan(t),
				LtvRatio:            d(t, "0.8964"),
				DtiRatio:            d(t, "0.2880"),
				SavingsRemaining:    d(t, "0"),
				EffectiveAnnualRate: d(t, "0.0320"),
			},
		},
		SweetSpotReason:      "The loan's effective annual rate beats the opportunity-cost rate.",
		ReserveWarning:       "Warning: the recommended down payment leaves less than a 6-month income reserve.",
		DurationMonths:       300,
		MarginalSavingPer1k:  d(t, "512.40"),
		EffectiveAnnualYield: d(t, "0.0365"),
		OpportunityRate:      d(t, "0.03"),
		PaydownOutperforms:   true,
	}

	var buf bytes.Buffer
	PrettySweetSpot(&buf, analysis, "EUR")
	out := buf.String()

	for _, want := range []string{
		"Down payment sweet spot (duration: 300 months)",
		"* Sweet spot",
		"Maximum",
		"Effective annual yield: 3.65% vs opportunity rate 3.00%",
		analysis.SweetSpotReason,
		analysis.ReserveWarning,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "* Maximum") {
		t.Errorf("non-sweet row marked with the sweet-spot prefix:\n%s", out)
	}
}
