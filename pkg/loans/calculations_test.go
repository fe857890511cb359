package loans

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func TestComputeEMI(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		expected  string
	}{
		{"Standard 20-year loan", "100000", "0.035", 240, "579.96"},
		{"Single month", "1000", "0.12", 1, "1010.00"},
		{"25-year loan", "200000", "0.032", 300, "969.36"},
		{"Large 30-year loan", "500000", "0.05", 360, "2684.11"},
		{"Zero interest splits principal evenly", "120000", "0", 120, "1000.00"},
		{"Zero principal", "0", "0.035", 240, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emi, err := ComputeEMI(d(t, tt.principal), d(t, tt.rate), tt.months)
			if err != nil {
				t.Fatalf("ComputeEMI returned error: %v", err)
			}
			if !emi.Equal(d(t, tt.expected)) {
				t.Errorf("ComputeEMI(%s, %s, %d) = %s, expected %s",
					tt.principal, tt.rate, tt.months, emi, tt.expected)
			}
		})
	}
}

func TestComputeEMIInvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		wantErr   string
	}{
		{"Zero duration", "100000", "0.035", 0, "duration months must be > 0"},
		{"Negative duration", "100000", "0.035", -12, "duration months must be > 0"},
		{"Negative principal", "-1", "0.035", 240, "principal must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeEMI(d(t, tt.principal), d(t, tt.rate), tt.months)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestComputeMonthlyInsurance(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		expected  string
	}{
		{"Typical premium", "200000", "0.0025", "41.67"},
		{"Zero rate", "200000", "0", "0.00"},
		{"Small principal", "1000", "0.0025", "0.21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMonthlyInsurance(d(t, tt.principal), d(t, tt.rate))
			if !got.Equal(d(t, tt.expected)) {
				t.Errorf("ComputeMonthlyInsurance(%s, %s) = %s, expected %s",
					tt.principal, tt.rate, got, tt.expected)
			}
		})
	}
}

func TestComputeLoanPlan(t *testing.T) {
	plan, err := ComputeLoanPlan(d(t, "100000"), d(t, "0.035"), d(t, "0.0025"), 240)
	if err != nil {
		t.Fatalf("ComputeLoanPlan returned error: %v", err)
	}

	if !plan.MonthlyEMI.Equal(d(t, "579.96")) {
		t.Errorf("MonthlyEMI = %s, expected 579.96", plan.MonthlyEMI)
	}
	if !plan.MonthlyInsurance.Equal(d(t, "20.83")) {
		t.Errorf("MonthlyInsurance = %s, expected 20.83", plan.MonthlyInsurance)
	}
	if !plan.MonthlyInstallment.Equal(plan.MonthlyEMI.Add(plan.MonthlyInsurance)) {
		t.Errorf("MonthlyInstallment = %s, expected EMI + insurance = %s",
			plan.MonthlyInstallment, plan.MonthlyEMI.Add(plan.MonthlyInsurance))
	}
	if !plan.MonthlyInterestFirst.Equal(d(t, "291.67")) {
		t.Errorf("MonthlyInterestFirst = %s, expected 291.67", plan.MonthlyInterestFirst)
	}

	expectedInsurance := plan.MonthlyInsurance.Mul(decimal.NewFromInt(240))
	if !plan.TotalInsurancePaid.Equal(expectedInsurance) {
		t.Errorf("TotalInsurancePaid = %s, expected %s", plan.TotalInsurancePaid, expectedInsurance)
	}
	if !plan.TotalCostOfCredit.Equal(plan.TotalInterestPaid.Add(plan.TotalInsurancePaid)) {
		t.Errorf("TotalCostOfCredit = %s, expected interest + insurance", plan.TotalCostOfCredit)
	}
	if !plan.TotalRepaid.Equal(plan.LoanPrincipal.Add(plan.TotalCostOfCredit)) {
		t.Errorf("TotalRepaid = %s, expected principal + total cost", plan.TotalRepaid)
	}
	if !plan.TotalInterestPaid.IsPositive() {
		t.Errorf("TotalInterestPaid = %s, expected > 0", plan.TotalInterestPaid)
	}

	// Total interest must match the schedule cent for cent.
	schedule, err := BuildAmortizationSchedule(d(t, "100000"), d(t, "0.035"), d(t, "0.0025"), 240)
	if err != nil {
		t.Fatalf("BuildAmortizationSchedule returned error: %v", err)
	}
	sum := decimal.Zero
	for _, row := range schedule {
		sum = sum.Add(row.InterestComponent)
	}
	if !plan.TotalInterestPaid.Equal(sum) {
		t.Errorf("TotalInterestPaid = %s, schedule sums to %s", plan.TotalInterestPaid, sum)
	}
}

func TestComputeLoanPlanZeroInterest(t *testing.T) {
	plan, err := ComputeLoanPlan(d(t, "120000"), d(t, "0"), d(t, "0"), 120)
	if err != nil {
		t.Fatalf("ComputeLoanPlan returned error: %v", err)
	}
	if !plan.MonthlyInstallment.Equal(d(t, "1000.00")) {
		t.Errorf("MonthlyInstallment = %s, expected 1000.00", plan.MonthlyInstallment)
	}
	if !plan.TotalInterestPaid.IsZero() {
		t.Errorf("TotalInterestPaid = %s, expected 0", plan.TotalInterestPaid)
	}
	if !plan.TotalRepaid.Equal(d(t, "120000")) {
		t.Errorf("TotalRepaid = %s, expected 120000", plan.TotalRepaid)
	}
}
