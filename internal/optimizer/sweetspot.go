package optimizer

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"credit-simulator/internal/resolver"
	"credit-simulator/pkg/loans"
	"credit-simulator/pkg/money"
)

// regulatory LTV reference threshold shown as a milestone when reachable.
var referenceLtv = decimal.RequireFromString("0.80")

var hundred = decimal.NewFromInt(100)

// SweetSpotMilestone is one row of the sweet-spot comparison table.
type SweetSpotMilestone struct {
	Label               string
	DownPayment         decimal.Decimal
	LoanPrincipal       decimal.Decimal
	Plan                loans.LoanPlan
	LtvRatio            decimal.Decimal
	DtiRatio            decimal.Decimal
	SavingsRemaining    decimal.Decimal
	EffectiveAnnualRate decimal.Decimal
	IsSweetSpot         bool
}

// SweetSpotAnalysis is the advisory down-payment analysis: ordered milestone
// rows, the chosen sweet spot's rationale, and the marginal economics behind
// the recommendation.
type SweetSpotAnalysis struct {
	Milestones      []SweetSpotMilestone
	SweetSpotReason string
	ReserveWarning  string // empty if none
	DurationMonths  int
	// Marginal economics at the effective floor.
	MarginalSavingPer1k  decimal.Decimal // total-cost saving per extra grid step of down payment
	EffectiveAnnualYield decimal.Decimal // APR of the floor plan
	OpportunityRate      decimal.Decimal
	PaydownOutperforms   bool // yield > opportunity rate
}

// AnalyzeSweetSpot recommends a down payment by opportunity-cost reasoning,
// independent of the optimizer's preference machinery: the mortgage's
// effective yield is compared against a reference investment rate, and the
// recommendation is either the largest down payment preserving the emergency
// reserve (mortgage wins) or the minimum viable one adjusted to stay out of
// surcharge LTV tiers (investing wins).
func (r *Runner) AnalyzeSweetSpot(params resolver.ResolvedParams) (SweetSpotAnalysis, error) {
	duration := params.MaxLoanDurationMonths
	if params.DurationPinned {
		duration = params.FixedLoanDurationMonths
	}

	candidates := r.downPaymentGrid(params)
	// Down payments above the acquisition cost make no loan; drop them.
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.LessThanOrEqual(params.TotalAcquisitionCost) {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered
	if len(candidates) == 0 {
		return SweetSpotAnalysis{}, &resolver.InfeasibleError{Reason: fmt.Sprintf(
			"no down payment candidate in [%s, %s]",
			params.MinDownPayment.StringFixed(2), params.AvailableSavings.StringFixed(2))}
	}

	floor := r.effectiveFloor(params, candidates)

	floorPlan, err := r.planAt(params, floor, duration)
	if err != nil {
		return SweetSpotAnalysis{}, err
	}
	yield := floorPlan.Plan.EffectiveAnnualRate
	marginal, err := r.marginalSaving(params, floor, duration, floorPlan.Plan.TotalCostOfCredit)
	if err != nil {
		return SweetSpotAnalysis{}, err
	}

	reserveTarget := decimal.NewFromInt(int64(r.settings.ReserveMonths)).Mul(params.MonthlyNetIncome)
	reserveCeilingExact := params.AvailableSavings.Sub(reserveTarget)
	reserveDp := candidates[0]
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].LessThanOrEqual(reserveCeilingExact) {
			reserveDp = candidates[i]
			break
		}
	}

	outperforms := yield.GreaterThan(r.settings.OpportunityRate)
	var sweetDp decimal.Decimal
	var reason string
	if outperforms {
		// Never drop below the surcharge-avoiding floor even when the
		// mortgage wins.
		sweetDp = money.Max(reserveDp, floor)
		reason = fmt.Sprintf(
			"The loan's effective annual rate (%s%%) exceeds the opportunity-cost rate (%s%%): "+
				"every extra 1,000 of down payment saves about %s %s in credit cost over the term, "+
				"more than it would earn invested elsewhere. Recommending the largest down payment "+
				"that keeps a %d-month income reserve.",
			yield.Mul(hundred).StringFixed(2), r.settings.OpportunityRate.Mul(hundred).StringFixed(2),
			marginal.StringFixed(0), params.Currency, r.settings.ReserveMonths,
		)
	} else {
		sweetDp = floor
		reason = fmt.Sprintf(
			"The loan's effective annual rate (%s%%) does not beat the opportunity-cost rate (%s%%): "+
				"surplus savings earn more invested than committed to the mortgage. Recommending the "+
				"minimum viable down payment, adjusted to stay out of surcharge LTV tiers.",
			yield.Mul(hundred).StringFixed(2), r.settings.OpportunityRate.Mul(hundred).StringFixed(2),
		)
	}

	reserveWarning := ""
	if sweetDp.GreaterThan(reserveCeilingExact) {
		reserveWarning = fmt.Sprintf(
			"Warning: the recommended down payment leaves less than a %d-month income reserve "+
				"(%s %s). Consider stopping at the '%dm reserve cap' level.",
			r.settings.ReserveMonths, reserveTarget.StringFixed(0), params.Currency, r.settings.ReserveMonths,
		)
	}

	rows, err := r.buildMilestones(params, candidates, duration, sweetDp, reserveDp)
	if err != nil {
		return SweetSpotAnalysis{}, err
	}

	r.logger.Debug("sweet-spot analysis finished",
		zap.String("op", "optimizer.AnalyzeSweetSpot"),
		zap.String("sweet_spot", sweetDp.StringFixed(2)),
		zap.Bool("paydown_outperforms", outperforms),
	)

	return SweetSpotAnalysis{
		Milestones:           rows,
		SweetSpotReason:      reason,
		ReserveWarning:       reserveWarning,
		DurationMonths:       duration,
		MarginalSavingPer1k:  marginal,
		EffectiveAnnualYield: yield,
		OpportunityRate:      r.settings.OpportunityRate,
		PaydownOutperforms:   outperforms,
	}, nil
}

// effectiveFloor returns the minimum advisable down payment: the raw minimum,
// or, when that minimum sits in a surcharge LTV tier, the smallest
// grid-aligned amount reaching the nearest surcharge-free tier boundary.
// Entering a penalty tier is never advisable regardless of opportunity cost.
func (r *Runner) effectiveFloor(params resolver.ResolvedParams, candidates []decimal.Decimal) decimal.Decimal {
	minDp := candidates[0]
	principal := params.TotalAcquisitionCost.Sub(minDp)
	if principal.LessThanOrEqual(money.Zero) {
		return minDp
	}
	ltv := principal.Div(params.PropertyPrice)

	delta := params.RateForLTV(ltv).Sub(params.AnnualInterestRate)
	if !delta.IsPositive() {
		return minDp
	}

	// Nearest surcharge-free boundary: the largest LtvMax with a
	// non-positive delta.
	var target decimal.Decimal
	foundTarget := false
	for _, tier := range params.LtvRateTiers {
		if !tier.RateDelta.IsPositive() && tier.LtvMax.LessThan(ltv) {
			if !foundTarget || tier.LtvMax.GreaterThan(target) {
				target = tier.LtvMax
				foundTarget = true
			}
		}
	}
	if !foundTarget {
		return minDp
	}

	needed := params.TotalAcquisitionCost.Sub(target.Mul(params.PropertyPrice))
	step := r.settings.DownPaymentStep
	if !needed.Mod(step).IsZero() {
		needed = needed.Div(step).Floor().Add(decimal.NewFromInt(1)).Mul(step)
	}
	if needed.GreaterThan(params.AvailableSavings) {
		// The surcharge-free zone is out of reach; the raw minimum stands.
		return minDp
	}
	return money.Max(needed, minDp)
}

// marginalSaving is the total-cost saving from one extra grid step of down
// payment at the effective floor. Within one LTV tier this is constant: cost
// sensitivity is linear in principal for a fixed rate and duration.
func (r *Runner) marginalSaving(params resolver.ResolvedParams, floor decimal.Decimal, duration int, floorCost decimal.Decimal) (decimal.Decimal, error) {
	next := floor.Add(r.settings.DownPaymentStep)
	if params.TotalAcquisitionCost.Sub(next).LessThanOrEqual(money.Zero) {
		return money.Zero, nil
	}
	nextPlan, err := r.planAt(params, next, duration)
	if err != nil {
		return money.Zero, err
	}
	return money.Round(floorCost.Sub(nextPlan.Plan.TotalCostOfCredit)), nil
}

type pricedPlan struct {
	Plan loans.LoanPlan
	Ltv  decimal.Decimal
	Rate decimal.Decimal
}

func (r *Runner) planAt(params resolver.ResolvedParams, downPayment decimal.Decimal, duration int) (pricedPlan, error) {
	principal := params.TotalAcquisitionCost.Sub(downPayment)
	ltv := money.Zero
	if principal.IsPositive() {
		ltv = principal.Div(params.PropertyPrice)
	}
	rate := params.RateForLTV(ltv)
	plan, err := loans.ComputeLoanPlan(principal, rate, params.InsuranceRate, duration)
	if err != nil {
		return pricedPlan{}, err
	}
	return pricedPlan{Plan: plan, Ltv: ltv, Rate: rate}, nil
}

type milestoneSpec struct {
	label string
	sweet bool
}

func (r *Runner) buildMilestones(params resolver.ResolvedParams, candidates []decimal.Decimal, duration int,
	sweetDp, reserveDp decimal.Decimal) ([]SweetSpotMilestone, error) {

	rawMin := candidates[0]
	rawMax := candidates[len(candidates)-1]

	spec := make(map[string]milestoneSpec)
	order := make(map[string]decimal.Decimal)
	add := func(dp decimal.Decimal, label string, sweet bool) {
		key := dp.String()
		if existing, ok := spec[key]; ok {
			if sweet && !existing.sweet {
				spec[key] = milestoneSpec{label: label, sweet: true}
			}
			return
		}
		spec[key] = milestoneSpec{label: label, sweet: sweet}
		order[key] = dp
	}

	add(rawMin, "Minimum", false)
	add(rawMax, "Maximum", false)

	// One row per LTV tier crossing that improves the rate.
	for i := 0; i+1 < len(params.LtvRateTiers); i++ {
		tier := params.LtvRateTiers[i]
		above := params.LtvRateTiers[i+1]
		if tier.RateDelta.GreaterThanOrEqual(above.RateDelta) {
			continue
		}
		if dp, ok := smallestAtOrBelowLtv(params, candidates, tier.LtvMax); ok {
			add(dp, fmt.Sprintf("LTV %s%% tier", tier.LtvMax.Mul(hundred).StringFixed(0)), false)
		}
	}

	// Regulatory 80%-LTV reference if reachable.
	if dp, ok := smallestAtOrBelowLtv(params, candidates, referenceLtv); ok {
		add(dp, "LTV 80% threshold", false)
	}

	if reserveDp.GreaterThan(rawMin) && reserveDp.LessThan(rawMax) {
		add(reserveDp, fmt.Sprintf("%dm reserve cap", r.settings.ReserveMonths), false)
	}

	if params.PreferredDownPayment != nil {
		preferred := *params.PreferredDownPayment
		if preferred.Equal(sweetDp) {
			add(sweetDp, "Sweet spot (your choice)", true)
		} else {
			add(preferred, "Your choice", false)
		}
	}
	add(sweetDp, "Sweet spot", true)

	dps := make([]decimal.Decimal, 0, len(order))
	for _, dp := range order {
		dps = append(dps, dp)
	}
	sort.Slice(dps, func(i, j int) bool { return dps[i].LessThan(dps[j]) })

	rows := make([]SweetSpotMilestone, 0, len(dps))
	for _, dp := range dps {
		entry := spec[dp.String()]
		priced, err := r.planAt(params, dp, duration)
		if err != nil {
			return nil, err
		}
		rows = append(rows, SweetSpotMilestone{
			Label:               entry.label,
			DownPayment:         dp,
			LoanPrincipal:       params.TotalAcquisitionCost.Sub(dp),
			Plan:                priced.Plan,
			LtvRatio:            money.RoundRatio(priced.Ltv),
			DtiRatio:            money.RoundRatio(priced.Plan.MonthlyInstallment.Div(params.MonthlyNetIncome)),
			SavingsRemaining:    params.AvailableSavings.Sub(dp),
			EffectiveAnnualRate: priced.Rate,
			IsSweetSpot:         entry.sweet,
		})
	}
	return rows, nil
}

func smallestAtOrBelowLtv(params resolver.ResolvedParams, candidates []decimal.Decimal, ltvMax decimal.Decimal) (decimal.Decimal, bool) {
	for _, dp := range candidates {
		principal := params.TotalAcquisitionCost.Sub(dp)
		if principal.LessThanOrEqual(money.Zero) {
			return dp, true
		}
		if principal.Div(params.PropertyPrice).LessThanOrEqual(ltvMax) {
			return dp, true
		}
	}
	return money.Zero, false
}
