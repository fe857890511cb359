// Package resolver merges user-supplied inputs with country profile defaults
// into a fully-specified, immutable parameter set, and gates provably
// unaffordable configurations before any search runs.
package resolver

import (
	"fmt"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/config"
	"credit-simulator/internal/profiles"
	"credit-simulator/pkg/money"
)

// Provenance values recorded per optional field.
const (
	SourceUser    = "user"
	SourceProfile = "profile"
	SourceDefault = "default"
)

// UserInputs is the raw, session-scoped user input. Nil pointer fields mean
// "not provided" and fall back to the profile default; an explicit zero is a
// distinct state from unset.
type UserInputs struct {
	// Mandatory.
	PropertyPrice    decimal.Decimal
	MonthlyNetIncome decimal.Decimal
	AvailableSavings decimal.Decimal
	// Optional property parameters.
	Country        string // empty = default country
	ProfileQuality string // empty = default quality
	PurchaseTaxes  *decimal.Decimal
	// Optional loan parameters.
	AnnualInterestRate      *decimal.Decimal
	InsuranceRate           *decimal.Decimal
	MinDownPaymentRatio     *decimal.Decimal
	MaxLoanDurationMonths   *int
	FixedLoanDurationMonths *int // pins the optimizer to exactly this duration
	// Optional buyer constraints.
	MaxDebtRatio         *decimal.Decimal
	MaxMonthlyPayment    *decimal.Decimal
	PreferredDownPayment *decimal.Decimal // pins the optimizer to exactly this amount
	// Optimization preference; empty means balanced.
	OptimizationPreference string
}

// ResolvedParams is the fully resolved, self-contained simulation input.
// It is created once per resolution and never mutated afterwards.
type ResolvedParams struct {
	Country        string
	ProfileQuality profiles.Quality
	Currency       string

	PropertyPrice        decimal.Decimal
	PurchaseTaxes        decimal.Decimal
	TotalAcquisitionCost decimal.Decimal
	TaxesFinanceable     bool

	AnnualInterestRate      decimal.Decimal
	InsuranceRate           decimal.Decimal
	MinDownPaymentRatio     decimal.Decimal
	MaxLoanDurationMonths   int
	FixedLoanDurationMonths int
	// True when the fixed duration was user-supplied and therefore pins the
	// optimizer's duration grid.
	DurationPinned       bool
	PreferredDownPayment *decimal.Decimal

	MonthlyNetIncome  decimal.Decimal
	AvailableSavings  decimal.Decimal
	MaxDebtRatio      decimal.Decimal
	MaxMonthlyPayment decimal.Decimal
	MinDownPayment    decimal.Decimal

	LtvRateTiers []profiles.LtvRateTier

	OptimizationPreference string

	// Sources records "user" / "profile" / "default" per optional field.
	Sources map[string]string
}

// RateForLTV returns the effective annual rate for the given LTV: the
// resolved base rate plus the matching tier delta. An LTV beyond every tier
// bound takes the last tier's delta.
func (p ResolvedParams) RateForLTV(ltv decimal.Decimal) decimal.Decimal {
	for _, tier := range p.LtvRateTiers {
		if ltv.LessThanOrEqual(tier.LtvMax) {
			return p.AnnualInterestRate.Add(tier.RateDelta)
		}
	}
	if n := len(p.LtvRateTiers); n > 0 {
		return p.AnnualInterestRate.Add(p.LtvRateTiers[n-1].RateDelta)
	}
	return p.AnnualInterestRate
}

// EffectiveMonthlyCap returns the stricter of the DTI-derived cap and the
// absolute monthly payment cap.
func (p ResolvedParams) EffectiveMonthlyCap() decimal.Decimal {
	return money.Min(p.MonthlyNetIncome.Mul(p.MaxDebtRatio), p.MaxMonthlyPayment)
}

// Resolve merges the user inputs with the profile store's values (session
// overrides included) and computes the derived acquisition figures. The
// resolution order is deterministic; later steps depend on earlier ones.
func Resolve(inputs UserInputs, store *profiles.Store, settings *config.Settings) (ResolvedParams, error) {
	if inputs.PropertyPrice.LessThanOrEqual(money.Zero) {
		return ResolvedParams{}, fmt.Errorf("property price must be > 0, got %s", inputs.PropertyPrice)
	}
	if inputs.MonthlyNetIncome.LessThanOrEqual(money.Zero) {
		return ResolvedParams{}, fmt.Errorf("monthly net income must be > 0, got %s", inputs.MonthlyNetIncome)
	}
	if inputs.AvailableSavings.IsNegative() {
		return ResolvedParams{}, fmt.Errorf("available savings must be >= 0, got %s", inputs.AvailableSavings)
	}

	sources := make(map[string]string)

	// Step 1: country and quality, validated against the store.
	country := inputs.Country
	if country == "" {
		country = settings.DefaultCountry
	}
	profile, err := profiles.GetProfile(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	country = profile.Code

	quality := settings.DefaultQuality
	if inputs.ProfileQuality != "" {
		quality, err = profiles.ParseQuality(inputs.ProfileQuality)
		if err != nil {
			return ResolvedParams{}, err
		}
	}

	currency, err := store.Currency(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	ltvTiers, err := store.LtvTiers(country)
	if err != nil {
		return ResolvedParams{}, err
	}

	// Step 2: optional loan parameters, user value over profile value.
	profileRate, err := store.AnnualRate(country, quality)
	if err != nil {
		return ResolvedParams{}, err
	}
	annualInterestRate := resolveDecimal(inputs.AnnualInterestRate, profileRate, "annual_interest_rate", sources)

	profileInsurance, err := store.InsuranceRate(country, quality)
	if err != nil {
		return ResolvedParams{}, err
	}
	insuranceRate := resolveDecimal(inputs.InsuranceRate, profileInsurance, "insurance_rate", sources)

	profileMinRatio, err := store.MinDownPaymentRatio(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	minDownPaymentRatio := resolveDecimal(inputs.MinDownPaymentRatio, profileMinRatio, "min_down_payment_ratio", sources)

	profileMaxDuration, err := store.MaxLoanDurationMonths(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	maxLoanDurationMonths := resolveInt(inputs.MaxLoanDurationMonths, profileMaxDuration, "max_loan_duration_months", sources)

	profileMaxDebtRatio, err := store.MaxDebtRatio(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	maxDebtRatio := resolveDecimal(inputs.MaxDebtRatio, profileMaxDebtRatio, "max_debt_ratio", sources)

	maxMonthlyPayment := resolveDecimal(inputs.MaxMonthlyPayment, settings.DefaultMaxMonthlyPayment, "max_monthly_payment", sources)

	// Step 3: fixed loan duration, user value or the application default.
	fixedDuration := settings.DefaultLoanDurationMonths
	durationPinned := false
	if inputs.FixedLoanDurationMonths != nil {
		if *inputs.FixedLoanDurationMonths <= 0 {
			return ResolvedParams{}, fmt.Errorf("fixed loan duration must be > 0, got %d", *inputs.FixedLoanDurationMonths)
		}
		fixedDuration = *inputs.FixedLoanDurationMonths
		durationPinned = true
		sources["fixed_loan_duration_months"] = SourceUser
	} else {
		sources["fixed_loan_duration_months"] = SourceDefault
	}

	if inputs.PreferredDownPayment != nil {
		sources["preferred_down_payment"] = SourceUser
	}

	// Step 4: purchase taxes, user value or estimated from the profile rate.
	var purchaseTaxes decimal.Decimal
	if inputs.PurchaseTaxes != nil {
		purchaseTaxes = *inputs.PurchaseTaxes
		sources["purchase_taxes"] = SourceUser
	} else {
		taxRate, err := store.PurchaseTaxRate(country)
		if err != nil {
			return ResolvedParams{}, err
		}
		purchaseTaxes = money.Round(inputs.PropertyPrice.Mul(taxRate))
		sources["purchase_taxes"] = SourceProfile
	}

	// Step 5: total acquisition cost.
	totalCost := inputs.PropertyPrice.Add(purchaseTaxes)

	// Step 6: minimum down payment. Where taxes cannot be financed the tax
	// bill must always be covered in cash, whatever the financed ratio.
	taxesFinanceable, err := store.TaxesFinanceable(country)
	if err != nil {
		return ResolvedParams{}, err
	}
	minDownPayment := totalCost.Mul(minDownPaymentRatio)
	if !taxesFinanceable {
		minDownPayment = money.Max(purchaseTaxes, minDownPayment)
	}

	preference := inputs.OptimizationPreference
	if preference == "" {
		preference = "balanced"
	}

	var preferred *decimal.Decimal
	if inputs.PreferredDownPayment != nil {
		v := *inputs.PreferredDownPayment
		preferred = &v
	}

	return ResolvedParams{
		Country:                 country,
		ProfileQuality:          quality,
		Currency:                currency,
		PropertyPrice:           inputs.PropertyPrice,
		PurchaseTaxes:           purchaseTaxes,
		TotalAcquisitionCost:    totalCost,
		TaxesFinanceable:        taxesFinanceable,
		AnnualInterestRate:      annualInterestRate,
		InsuranceRate:           insuranceRate,
		MinDownPaymentRatio:     minDownPaymentRatio,
		MaxLoanDurationMonths:   maxLoanDurationMonths,
		FixedLoanDurationMonths: fixedDuration,
		DurationPinned:          durationPinned,
		PreferredDownPayment:    preferred,
		MonthlyNetIncome:        inputs.MonthlyNetIncome,
		AvailableSavings:        inputs.AvailableSavings,
		MaxDebtRatio:            maxDebtRatio,
		MaxMonthlyPayment:       maxMonthlyPayment,
		MinDownPayment:          minDownPayment,
		LtvRateTiers:            ltvTiers,
		OptimizationPreference:  preference,
		Sources:                 sources,
	}, nil
}

func resolveDecimal(userVal *decimal.Decimal, profileVal decimal.Decimal, name string, sources map[string]string) decimal.Decimal {
	if userVal != nil {
		sources[name] = SourceUser
		return *userVal
	}
	sources[name] = SourceProfile
	return profileVal
}

func resolveInt(userVal *int, profileVal int, name string, sources map[string]string) int {
	if userVal != nil {
		sources[name] = SourceUser
		return *userVal
	}
	sources[name] = SourceProfile
	return profileVal
}
