package optimizer

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/config"
	"credit-simulator/internal/profiles"
	"credit-simulator/internal/resolver"
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

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings, err := config.LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	return settings
}

func resolveParams(t *testing.T, inputs resolver.UserInputs) resolver.ResolvedParams {
	t.Helper()
	params, err := resolver.Resolve(inputs, profiles.NewStore(), testSettings(t))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	return params
}

func baseInputs(t *testing.T) resolver.UserInputs {
	t.Helper()
	return resolver.UserInputs{
		PropertyPrice:    d(t, "350000"),
		MonthlyNetIncome: d(t, "5500"),
		AvailableSavings: d(t, "80000"),
	}
}

func TestDownPaymentGrid(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))

	t.Run("Unaligned minimum kept as first candidate", func(t *testing.T) {
		params := resolveParams(t, baseInputs(t))
		grid := runner.downPaymentGrid(params)

		want := []string{"78750", "79000", "80000"}
		if len(grid) != len(want) {
			t.Fatalf("grid = %v, expected %v", grid, want)
		}
		for i, w := range want {
			if !grid[i].Equal(d(t, w)) {
				t.Errorf("grid[%d] = %s, expected %s", i, grid[i], w)
			}
		}
	})

	t.Run("Exact savings appended when unaligned", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.AvailableSavings = d(t, "80500")
		params := resolveParams(t, inputs)
		grid := runner.downPaymentGrid(params)

		last := grid[len(grid)-1]
		if !last.Equal(d(t, "80500")) {
			t.Errorf("last candidate = %s, expected the exact savings 80500", last)
		}
	})

	t.Run("Minimum equal to savings yields a single candidate", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.AvailableSavings = d(t, "78750")
		params := resolveParams(t, inputs)
		grid := runner.downPaymentGrid(params)

		if len(grid) != 1 || !grid[0].Equal(d(t, "78750")) {
			t.Errorf("grid = %v, expected exactly [78750]", grid)
		}
	})
}

func TestDurationGrid(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))

	t.Run("Multiples of the step up to the maximum", func(t *testing.T) {
		params := resolveParams(t, baseInputs(t))
		grid := runner.durationGrid(params)

		if len(grid) != 25 {
			t.Fatalf("got %d durations, expected 25", len(grid))
		}
		if grid[0] != 12 || grid[len(grid)-1] != 300 {
			t.Errorf("grid spans [%d, %d], expected [12, 300]", grid[0], grid[len(grid)-1])
		}
	})

	t.Run("Pinned duration collapses the grid", func(t *testing.T) {
		inputs := baseInputs(t)
		fixed := 180
		inputs.FixedLoanDurationMonths = &fixed
		params := resolveParams(t, inputs)
		grid := runner.durationGrid(params)

		if len(grid) != 1 || grid[0] != 180 {
			t.Errorf("grid = %v, expected exactly [180]", grid)
		}
	})

	t.Run("Maximum below the step still yields a candidate", func(t *testing.T) {
		inputs := baseInputs(t)
		maxDur := 10
		inputs.MaxLoanDurationMonths = &maxDur
		params := resolveParams(t, inputs)
		grid := runner.durationGrid(params)

		if len(grid) != 1 || grid[0] != 10 {
			t.Errorf("grid = %v, expected exactly [10]", grid)
		}
	})
}

func TestOptimizeBalanced(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))
	params := resolveParams(t, baseInputs(t))

	result, err := runner.Optimize(params)
	if err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}

	cap := params.EffectiveMonthlyCap()
	if result.Plan.MonthlyInstallment.GreaterThan(cap) {
		t.Errorf("installment %s exceeds the cap %s", result.Plan.MonthlyInstallment, cap)
	}
	if result.DownPayment.LessThan(params.MinDownPayment) || result.DownPayment.GreaterThan(params.AvailableSavings) {
		t.Errorf("down payment %s outside [%s, %s]", result.DownPayment, params.MinDownPayment, params.AvailableSavings)
	}
	if result.LoanDurationMonths%12 != 0 || result.LoanDurationMonths > 300 {
		t.Errorf("duration %d is not a feasible grid candidate", result.LoanDurationMonths)
	}
	if !result.LoanPrincipal.Equal(params.TotalAcquisitionCost.Sub(result.DownPayment)) {
		t.Errorf("principal %s does not equal total cost minus down payment", result.LoanPrincipal)
	}
	if result.Country != "BE" || result.Currency != "EUR" || result.OptimizationPreference != "balanced" {
		t.Errorf("echoed metadata = %s/%s/%s, expected BE/EUR/balanced",
			result.Country, result.Currency, result.OptimizationPreference)
	}
}

func TestOptimizePreferences(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))

	t.Run("minimize_down_payment picks the exact minimum", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.OptimizationPreference = "minimize_down_payment"
		result, err := runner.Optimize(resolveParams(t, inputs))
		if err != nil {
			t.Fatalf("Optimize returned error: %v", err)
		}
		if !result.DownPayment.Equal(d(t, "78750")) {
			t.Errorf("down payment = %s, expected the exact minimum 78750", result.DownPayment)
		}
	})

	t.Run("minimize_monthly_payment maxes out both levers", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.OptimizationPreference = "minimize_monthly_payment"
		result, err := runner.Optimize(resolveParams(t, inputs))
		if err != nil {
			t.Fatalf("Optimize returned error: %v", err)
		}
		if !result.DownPayment.Equal(d(t, "80000")) {
			t.Errorf("down payment = %s, expected all savings committed", result.DownPayment)
		}
		if result.LoanDurationMonths != 300 {
			t.Errorf("duration = %d, expected the maximum 300", result.LoanDurationMonths)
		}
	})

	t.Run("minimize_duration picks the shortest affordable term", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.OptimizationPreference = "minimize_duration"
		result, err := runner.Optimize(resolveParams(t, inputs))
		if err != nil {
			t.Fatalf("Optimize returned error: %v", err)
		}
		// Anything shorter than 192 months breaches the 2200 cap at every
		// candidate down payment.
		if result.LoanDurationMonths != 192 {
			t.Errorf("duration = %d, expected 192", result.LoanDurationMonths)
		}
	})

	t.Run("minimize_total_cost pairs the largest equity with the shortest term", func(t *testing.T) {
		inputs := baseInputs(t)
		inputs.OptimizationPreference = "minimize_total_cost"
		result, err := runner.Optimize(resolveParams(t, inputs))
		if err != nil {
			t.Fatalf("Optimize returned error: %v", err)
		}
		if !result.DownPayment.Equal(d(t, "80000")) {
			t.Errorf("down payment = %s, expected 80000", result.DownPayment)
		}
		if result.LoanDurationMonths != 192 {
			t.Errorf("duration = %d, expected 192", result.LoanDurationMonths)
		}
	})
}

func TestOptimizeTotalCostMonotonicInDownPayment(t *testing.T) {
	// For a fixed rate and duration, more equity can never cost more.
	rate := d(t, "0.032")
	total := d(t, "393750")
	previous := decimal.Decimal{}
	for i, dpStr := range []string{"78750", "79000", "80000"} {
		principal := total.Sub(d(t, dpStr))
		plan, err := loans.ComputeLoanPlan(principal, rate, d(t, "0.0025"), 240)
		if err != nil {
			t.Fatalf("ComputeLoanPlan returned error: %v", err)
		}
		if i > 0 && plan.TotalCostOfCredit.GreaterThan(previous) {
			t.Errorf("total cost rose from %s to %s as down payment increased", previous, plan.TotalCostOfCredit)
		}
		previous = plan.TotalCostOfCredit
	}
}

func TestOptimizePinnedDownPayment(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))

	t.Run("Pinned amount is used verbatim", func(t *testing.T) {
		inputs := baseInputs(t)
		pinned := d(t, "79000")
		inputs.PreferredDownPayment = &pinned
		result, err := runner.Optimize(resolveParams(t, inputs))
		if err != nil {
			t.Fatalf("Optimize returned error: %v", err)
		}
		if !result.DownPayment.Equal(pinned) {
			t.Errorf("down payment = %s, expected the pinned 79000", result.DownPayment)
		}
	})

	t.Run("Pinned amount outside the range is infeasible", func(t *testing.T) {
		inputs := baseInputs(t)
		pinned := d(t, "50000")
		inputs.PreferredDownPayment = &pinned
		_, err := runner.Optimize(resolveParams(t, inputs))
		var infeasible *resolver.InfeasibleError
		if !errors.As(err, &infeasible) {
			t.Fatalf("expected *resolver.InfeasibleError, got %v", err)
		}
	})
}

func TestOptimizePinnedDurationCanExhaust(t *testing.T) {
	// The feasibility gate checks the best case at the maximum duration; a
	// pinned 12-month term can still leave no affordable candidate.
	inputs := baseInputs(t)
	fixed := 12
	inputs.FixedLoanDurationMonths = &fixed
	params := resolveParams(t, inputs)

	if err := resolver.CheckFeasibility(params); err != nil {
		t.Fatalf("feasibility gate rejected the configuration: %v", err)
	}

	runner := NewRunner(nil, testSettings(t))
	_, err := runner.Optimize(params)
	if !errors.Is(err, ErrNoFeasiblePlan) {
		t.Fatalf("expected ErrNoFeasiblePlan, got %v", err)
	}
}

func TestOptimizeUnknownPreference(t *testing.T) {
	runner := NewRunner(nil, testSettings(t))
	params := resolveParams(t, baseInputs(t))
	params.OptimizationPreference = "fastest"

	_, err := runner.Optimize(params)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrNoFeasiblePlan) {
		t.Error("unknown preference reported as no-feasible-plan; expected an input error")
	}
}

func TestOptimizeUsesLtvAdjustedRate(t *testing.T) {
	// With a pinned down payment deep into the discount band, the chosen
	// plan must carry the discounted rate, not the base rate.
	inputs := baseInputs(t)
	inputs.AvailableSavings = d(t, "200000")
	pinned := d(t, "150000")
	inputs.PreferredDownPayment = &pinned
	params := resolveParams(t, inputs)

	runner := NewRunner(nil, testSettings(t))
	result, err := runner.Optimize(params)
	if err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}

	// Principal 243750 on a 350000 property: LTV ~69.6%, first tier, -0.25%.
	if !result.Plan.AnnualInterestRate.Equal(d(t, "0.0295")) {
		t.Errorf("plan rate = %s, expected the discounted 0.0295", result.Plan.AnnualInterestRate)
	}
}
