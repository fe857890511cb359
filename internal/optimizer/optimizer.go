// Package optimizer enumerates down-payment and duration candidates over a
// bounded grid, prices each at its LTV-adjusted rate, filters by the
// affordability cap, and selects the best plan for the declared optimization
// preference. It also hosts the sweet-spot analyzer.
package optimizer

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"credit-simulator/internal/config"
	"credit-simulator/internal/resolver"
	"credit-simulator/pkg/loans"
	"credit-simulator/pkg/money"
)

// ErrNoFeasiblePlan means every grid candidate was rejected by the
// affordability filter. This can happen even after the feasibility gate
// passed: the gate checks only the single best-case candidate, while a
// pinned duration or pinned down payment may not be the best case.
var ErrNoFeasiblePlan = errors.New(
	"no feasible loan plan found within the given constraints; try increasing savings, income, or maximum duration")

// ValidPreferences is the closed set of optimization preferences.
var ValidPreferences = map[string]bool{
	"minimize_total_cost":      true,
	"minimize_monthly_payment": true,
	"minimize_duration":        true,
	"minimize_down_payment":    true,
	"balanced":                 true,
}

// OptimizedResult is the chosen plan plus echoed metadata.
type OptimizedResult struct {
	DownPayment        decimal.Decimal
	LoanPrincipal      decimal.Decimal
	LoanDurationMonths int
	Plan               loans.LoanPlan
	LtvRatio           decimal.Decimal
	// Echoed metadata.
	Country                string
	ProfileQuality         string
	Currency               string
	MonthlyNetIncome       decimal.Decimal
	PropertyPrice          decimal.Decimal
	PurchaseTaxes          decimal.Decimal
	TotalAcquisitionCost   decimal.Decimal
	OptimizationPreference string
	ParametersSource       map[string]string
}

// Runner executes grid searches and sweet-spot analyses with shared settings.
type Runner struct {
	logger   *zap.Logger
	settings *config.Settings
}

// NewRunner creates a Runner. A nil logger falls back to a no-op logger.
func NewRunner(logger *zap.Logger, settings *config.Settings) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, settings: settings}
}

// Optimize runs the grid search and returns the best feasible plan.
func (r *Runner) Optimize(params resolver.ResolvedParams) (OptimizedResult, error) {
	preference := params.OptimizationPreference
	if !ValidPreferences[preference] {
		return OptimizedResult{}, fmt.Errorf("unknown optimization preference %q", preference)
	}

	effectiveCap := params.EffectiveMonthlyCap()

	var downPayments []decimal.Decimal
	if params.PreferredDownPayment != nil {
		preferred := *params.PreferredDownPayment
		if preferred.LessThan(params.MinDownPayment) || preferred.GreaterThan(params.AvailableSavings) {
			return OptimizedResult{}, &resolver.InfeasibleError{Reason: fmt.Sprintf(
				"preferred down payment %s %s is outside the feasible range [%s, %s]",
				preferred.StringFixed(2), params.Currency,
				params.MinDownPayment.StringFixed(2), params.AvailableSavings.StringFixed(2),
			)}
		}
		downPayments = []decimal.Decimal{preferred}
	} else {
		downPayments = r.downPaymentGrid(params)
	}

	durations := r.durationGrid(params)

	var (
		best            loans.LoanPlan
		bestDownPayment decimal.Decimal
		bestDuration    int
		bestScore       []decimal.Decimal
		found           bool
		evaluated       int
	)

	for _, downPayment := range downPayments {
		principal := params.TotalAcquisitionCost.Sub(downPayment)
		if principal.LessThanOrEqual(money.Zero) {
			// Cash purchase, out of loan scope.
			continue
		}
		ltv := principal.Div(params.PropertyPrice)
		rate := params.RateForLTV(ltv)

		for _, duration := range durations {
			plan, err := loans.ComputeLoanPlan(principal, rate, params.InsuranceRate, duration)
			if err != nil {
				return OptimizedResult{}, err
			}
			evaluated++

			if plan.MonthlyInstallment.GreaterThan(effectiveCap) {
				continue
			}

			score := scorePlan(preference, plan, downPayment, duration)
			if !found || lessScore(score, bestScore) {
				found = true
				best = plan
				bestDownPayment = downPayment
				bestDuration = duration
				bestScore = score
			}
		}
	}

	r.logger.Debug("grid search finished",
		zap.String("op", "optimizer.Optimize"),
		zap.Int("candidates", evaluated),
		zap.Bool("found", found),
	)

	if !found {
		return OptimizedResult{}, ErrNoFeasiblePlan
	}

	principal := params.TotalAcquisitionCost.Sub(bestDownPayment)
	return OptimizedResult{
		DownPayment:            bestDownPayment,
		LoanPrincipal:          principal,
		LoanDurationMonths:     bestDuration,
		Plan:                   best,
		LtvRatio:               money.RoundRatio(principal.Div(params.PropertyPrice)),
		Country:                params.Country,
		ProfileQuality:         string(params.ProfileQuality),
		Currency:               params.Currency,
		MonthlyNetIncome:       params.MonthlyNetIncome,
		PropertyPrice:          params.PropertyPrice,
		PurchaseTaxes:          params.PurchaseTaxes,
		TotalAcquisitionCost:   params.TotalAcquisitionCost,
		OptimizationPreference: preference,
		ParametersSource:       params.Sources,
	}, nil
}

// downPaymentGrid builds the candidate down payments: the exact minimum,
// then every step-aligned amount up to savings, then the exact savings.
func (r *Runner) downPaymentGrid(params resolver.ResolvedParams) []decimal.Decimal {
	step := r.settings.DownPaymentStep
	var candidates []decimal.Decimal

	dp := params.MinDownPayment
	if !dp.Mod(step).IsZero() {
		// Keep the exact minimum as first candidate, then align to the grid.
		candidates = append(candidates, params.MinDownPayment)
		dp = dp.Div(step).Floor().Add(decimal.NewFromInt(1)).Mul(step)
	}
	for dp.LessThanOrEqual(params.AvailableSavings) {
		candidates = append(candidates, dp)
		dp = dp.Add(step)
	}
	if len(candidates) == 0 || candidates[len(candidates)-1].LessThan(params.AvailableSavings) {
		candidates = append(candidates, params.AvailableSavings)
	}
	return candidates
}

// durationGrid returns the candidate durations: the pinned duration alone,
// or every multiple of the step up to the resolved maximum.
func (r *Runner) durationGrid(params resolver.ResolvedParams) []int {
	if params.DurationPinned {
		return []int{params.FixedLoanDurationMonths}
	}
	step := r.settings.DurationStep
	var durations []int
	for d := step; d <= params.MaxLoanDurationMonths; d += step {
		durations = append(durations, d)
	}
	if len(durations) == 0 {
		durations = []int{params.MaxLoanDurationMonths}
	}
	return durations
}

// scorePlan returns the preference-specific sort key; lower is better,
// compared lexicographically.
func scorePlan(preference string, plan loans.LoanPlan, downPayment decimal.Decimal, duration int) []decimal.Decimal {
	tc := plan.TotalCostOfCredit
	mp := plan.MonthlyInstallment
	dp := downPayment
	dur := decimal.NewFromInt(int64(duration))

	switch preference {
	case "minimize_total_cost":
		return []decimal.Decimal{tc, mp, dp}
	case "minimize_monthly_payment":
		return []decimal.Decimal{mp, tc, dp.Neg()}
	case "minimize_duration":
		return []decimal.Decimal{dur, tc, mp}
	case "minimize_down_payment":
		return []decimal.Decimal{dp, tc, mp}
	default: // balanced
		return []decimal.Decimal{tc.Add(mp.Mul(dur)), mp, dp}
	}
}

func lessScore(a, b []decimal.Decimal) bool {
	for i := range a {
		switch a[i].Cmp(b[i]) {
		case -1:
			return true
		case 1:
			return false
		}
	}
	return false
}
