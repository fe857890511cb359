package profiles

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type overrideSet struct {
	annualRate    map[Quality]decimal.Decimal
	insuranceRate map[Quality]decimal.Decimal
	fields        map[Field]any
}

func newOverrideSet() *overrideSet {
	return &overrideSet{
		annualRate:    make(map[Quality]decimal.Decimal),
		insuranceRate: make(map[Quality]decimal.Decimal),
		fields:        make(map[Field]any),
	}
}

// Store is the session-scoped read-through overlay on top of the static
// country profiles. Reads fall through to the static table for anything not
// overridden; the overlay is discarded with the Store at session end.
//
// The Store is not safe for concurrent use; overrides are applied only by
// explicit, serialized user actions.
type Store struct {
	overrides map[string]*overrideSet
	// Annual rates the user set by hand, as opposed to fetched online.
	manualRates map[string]map[Quality]bool
}

// NewStore returns an empty session store over the static profiles.
func NewStore() *Store {
	return &Store{
		overrides:   make(map[string]*overrideSet),
		manualRates: make(map[string]map[Quality]bool),
	}
}

func (s *Store) overridesFor(country string) *overrideSet {
	profile, err := GetProfile(country)
	if err != nil {
		return nil
	}
	if set, ok := s.overrides[profile.Code]; ok {
		return set
	}
	return nil
}

func (s *Store) ensureOverrides(code string) *overrideSet {
	set, ok := s.overrides[code]
	if !ok {
		set = newOverrideSet()
		s.overrides[code] = set
	}
	return set
}

// AnnualRate returns the base annual rate for a country and quality,
// session override first.
func (s *Store) AnnualRate(country string, quality Quality) (decimal.Decimal, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return decimal.Zero, err
	}
	if set := s.overridesFor(country); set != nil {
		if rate, ok := set.annualRate[quality]; ok {
			return rate, nil
		}
	}
	return profile.AnnualRate(quality), nil
}

// InsuranceRate returns the annual insurance rate, session override first.
func (s *Store) InsuranceRate(country string, quality Quality) (decimal.Decimal, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return decimal.Zero, err
	}
	if set := s.overridesFor(country); set != nil {
		if rate, ok := set.insuranceRate[quality]; ok {
			return rate, nil
		}
	}
	return profile.InsuranceRate(quality), nil
}

// LtvTiers returns the country's LTV rate tiers in ascending LtvMax order.
func (s *Store) LtvTiers(country string) ([]LtvRateTier, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return nil, err
	}
	out := make([]LtvRateTier, len(profile.LtvRateTiers))
	copy(out, profile.LtvRateTiers)
	return out, nil
}

// RateForLTV returns the effective annual rate for the given LTV: the base
// rate (override-aware) plus the matching tier delta. An LTV beyond every
// tier bound takes the last tier's delta.
func (s *Store) RateForLTV(country string, quality Quality, ltv decimal.Decimal) (decimal.Decimal, error) {
	base, err := s.AnnualRate(country, quality)
	if err != nil {
		return decimal.Zero, err
	}
	profile, _ := GetProfile(country)
	for _, tier := range profile.LtvRateTiers {
		if ltv.LessThanOrEqual(tier.LtvMax) {
			return base.Add(tier.RateDelta), nil
		}
	}
	if n := len(profile.LtvRateTiers); n > 0 {
		return base.Add(profile.LtvRateTiers[n-1].RateDelta), nil
	}
	return base, nil
}

// Currency returns the country currency code, session override first.
func (s *Store) Currency(country string) (string, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return "", err
	}
	if set := s.overridesFor(country); set != nil {
		if v, ok := set.fields[FieldCurrency]; ok {
			return v.(string), nil
		}
	}
	return profile.Currency, nil
}

// PurchaseTaxRate returns the purchase tax rate, session override first.
func (s *Store) PurchaseTaxRate(country string) (decimal.Decimal, error) {
	return s.decimalField(country, FieldPurchaseTaxRate, func(p CountryProfile) decimal.Decimal { return p.PurchaseTaxRate })
}

// MinDownPaymentRatio returns the regulatory minimum down payment ratio.
func (s *Store) MinDownPaymentRatio(country string) (decimal.Decimal, error) {
	return s.decimalField(country, FieldMinDownPaymentRatio, func(p CountryProfile) decimal.Decimal { return p.MinDownPaymentRatio })
}

// MaxDebtRatio returns the maximum debt-to-income ratio.
func (s *Store) MaxDebtRatio(country string) (decimal.Decimal, error) {
	return s.decimalField(country, FieldMaxDebtRatio, func(p CountryProfile) decimal.Decimal { return p.MaxDebtRatio })
}

// TaxesFinanceable reports whether purchase taxes may be financed by the loan.
func (s *Store) TaxesFinanceable(country string) (bool, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return false, err
	}
	if set := s.overridesFor(country); set != nil {
		if v, ok := set.fields[FieldTaxesFinanceable]; ok {
			return v.(bool), nil
		}
	}
	return profile.TaxesFinanceable, nil
}

// MaxLoanDurationMonths returns the longest permitted loan duration.
func (s *Store) MaxLoanDurationMonths(country string) (int, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return 0, err
	}
	if set := s.overridesFor(country); set != nil {
		if v, ok := set.fields[FieldMaxLoanDurationMonths]; ok {
			return v.(int), nil
		}
	}
	return profile.MaxLoanDurationMonths, nil
}

func (s *Store) decimalField(country string, field Field, static func(CountryProfile) decimal.Decimal) (decimal.Decimal, error) {
	profile, err := GetProfile(country)
	if err != nil {
		return decimal.Zero, err
	}
	if set := s.overridesFor(country); set != nil {
		if v, ok := set.fields[field]; ok {
			return v.(decimal.Decimal), nil
		}
	}
	return static(profile), nil
}

// SetAnnualRate overrides the base annual rate for a country and quality,
// enforcing that the best rate never exceeds the average rate. The manual
// flag records a hand-entered value (as opposed to an online fetch).
func (s *Store) SetAnnualRate(country string, quality Quality, value decimal.Decimal, manual bool) error {
	profile, err := GetProfile(country)
	if err != nil {
		return err
	}
	if err := s.validateRateInvariant(profile.Code, quality, value, s.AnnualRate, "annual"); err != nil {
		return err
	}
	s.ensureOverrides(profile.Code).annualRate[quality] = value
	if manual {
		if s.manualRates[profile.Code] == nil {
			s.manualRates[profile.Code] = make(map[Quality]bool)
		}
		s.manualRates[profile.Code][quality] = true
	}
	return nil
}

// SetInsuranceRate overrides the annual insurance rate for a country and
// quality, enforcing best <= average.
func (s *Store) SetInsuranceRate(country string, quality Quality, value decimal.Decimal) error {
	profile, err := GetProfile(country)
	if err != nil {
		return err
	}
	if err := s.validateRateInvariant(profile.Code, quality, value, s.InsuranceRate, "insurance"); err != nil {
		return err
	}
	s.ensureOverrides(profile.Code).insuranceRate[quality] = value
	return nil
}

// SetField overrides a regulatory field from its string representation. The
// raw value is parsed per the field's type; unknown fields never reach here
// because Field values only come from ParseField.
func (s *Store) SetField(country string, field Field, raw string) error {
	profile, err := GetProfile(country)
	if err != nil {
		return err
	}
	value, err := parseFieldValue(field, raw)
	if err != nil {
		return err
	}
	s.ensureOverrides(profile.Code).fields[field] = value
	return nil
}

// AnnualRateManuallySet reports whether the session's annual rate for this
// country and quality was set by hand.
func (s *Store) AnnualRateManuallySet(country string, quality Quality) bool {
	profile, err := GetProfile(country)
	if err != nil {
		return false
	}
	return s.manualRates[profile.Code][quality]
}

func (s *Store) validateRateInvariant(code string, quality Quality, value decimal.Decimal,
	current func(string, Quality) (decimal.Decimal, error), kind string) error {
	if quality == QualityBest {
		avg, err := current(code, QualityAverage)
		if err != nil {
			return err
		}
		if value.GreaterThan(avg) {
			return fmt.Errorf("'best' %s rate (%s) cannot exceed 'average' rate (%s) for %s",
				kind, value, avg, code)
		}
		return nil
	}
	best, err := current(code, QualityBest)
	if err != nil {
		return err
	}
	if value.LessThan(best) {
		return fmt.Errorf("'average' %s rate (%s) cannot be lower than 'best' rate (%s) for %s",
			kind, value, best, code)
	}
	return nil
}
