// Package profiles holds the static country lending profiles and the
// session-scoped override store layered on top of them.
//
// All rate fields are decimals. Each country carries two profile qualities,
// "average" and "best"; quality only affects the market-driven fields (annual
// rate, insurance rate). Regulatory fields are identical across qualities.
//
// LTV rate tiers model risk-based pricing: a higher LTV (smaller equity)
// carries a rate surcharge, a lower LTV earns a discount. Tiers are ordered
// by ascending LtvMax; the first tier whose LtvMax >= the loan's LTV applies,
// and the last tier applies to any LTV beyond all bounds.
package profiles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Quality selects between the average-market and best-market rate profiles.
type Quality string

const (
	QualityAverage Quality = "average"
	QualityBest    Quality = "best"
)

// ParseQuality validates a quality name.
func ParseQuality(s string) (Quality, error) {
	switch Quality(strings.ToLower(s)) {
	case QualityAverage:
		return QualityAverage, nil
	case QualityBest:
		return QualityBest, nil
	}
	return "", fmt.Errorf("unknown profile quality %q (valid: average, best)", s)
}

// LtvRateTier is one LTV band and its rate adjustment relative to the base
// annual rate. A negative delta is a discount, a positive one a surcharge.
type LtvRateTier struct {
	LtvMax    decimal.Decimal // inclusive upper bound, e.g. 0.80 = 80% LTV
	RateDelta decimal.Decimal // e.g. -0.0015 = -0.15 percentage points
}

// CountryProfile is the static lending profile for one country.
type CountryProfile struct {
	Code     string
	Currency string
	// Market-driven (quality-sensitive).
	AnnualRateAverage    decimal.Decimal
	AnnualRateBest       decimal.Decimal
	InsuranceRateAverage decimal.Decimal
	InsuranceRateBest    decimal.Decimal
	// Regulatory (identical across qualities).
	PurchaseTaxRate       decimal.Decimal
	TaxesFinanceable      bool
	MinDownPaymentRatio   decimal.Decimal
	MaxLoanDurationMonths int
	MaxDebtRatio          decimal.Decimal
	// Ascending LtvMax order.
	LtvRateTiers []LtvRateTier
}

// AnnualRate returns the quality-matched base annual rate.
func (p CountryProfile) AnnualRate(quality Quality) decimal.Decimal {
	if quality == QualityBest {
		return p.AnnualRateBest
	}
	return p.AnnualRateAverage
}

// InsuranceRate returns the quality-matched annual insurance rate.
func (p CountryProfile) InsuranceRate(quality Quality) decimal.Decimal {
	if quality == QualityBest {
		return p.InsuranceRateBest
	}
	return p.InsuranceRateAverage
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tiers(pairs ...string) []LtvRateTier {
	out := make([]LtvRateTier, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, LtvRateTier{LtvMax: d(pairs[i]), RateDelta: d(pairs[i+1])})
	}
	return out
}

var staticProfiles = map[string]CountryProfile{
	"BE": {
		Code: "BE", Currency: "EUR",
		AnnualRateAverage: d("0.0320"), AnnualRateBest: d("0.0270"),
		InsuranceRateAverage: d("0.0025"), InsuranceRateBest: d("0.0010"),
		PurchaseTaxRate: d("0.125"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.20"), MaxLoanDurationMonths: 300,
		MaxDebtRatio: d("0.40"),
		LtvRateTiers: tiers("0.75", "-0.0025", "0.80", "-0.0015", "0.90", "0.0000", "1.00", "0.0025"),
	},
	"FR": {
		Code: "FR", Currency: "EUR",
		AnnualRateAverage: d("0.0350"), AnnualRateBest: d("0.0290"),
		InsuranceRateAverage: d("0.0030"), InsuranceRateBest: d("0.0010"),
		// In France transaction taxes are never financed; the minimum down
		// payment is the tax bill itself (handled by the resolver).
		PurchaseTaxRate: d("0.075"), TaxesFinanceable: false,
		MinDownPaymentRatio: d("0.00"), MaxLoanDurationMonths: 300,
		MaxDebtRatio: d("0.35"),
		LtvRateTiers: tiers("0.75", "-0.0020", "0.80", "-0.0010", "0.90", "0.0000", "1.00", "0.0030"),
	},
	"DE": {
		Code: "DE", Currency: "EUR",
		AnnualRateAverage: d("0.0380"), AnnualRateBest: d("0.0310"),
		InsuranceRateAverage: d("0.0015"), InsuranceRateBest: d("0.0008"),
		PurchaseTaxRate: d("0.05"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.20"), MaxLoanDurationMonths: 360,
		MaxDebtRatio: d("0.40"),
		LtvRateTiers: tiers("0.60", "-0.0025", "0.80", "-0.0010", "0.90", "0.0000", "1.00", "0.0030"),
	},
	"ES": {
		Code: "ES", Currency: "EUR",
		AnnualRateAverage: d("0.0350"), AnnualRateBest: d("0.0280"),
		InsuranceRateAverage: d("0.0020"), InsuranceRateBest: d("0.0009"),
		PurchaseTaxRate: d("0.08"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.20"), MaxLoanDurationMonths: 360,
		MaxDebtRatio: d("0.35"),
		LtvRateTiers: tiers("0.75", "-0.0020", "0.80", "-0.0010", "0.90", "0.0000", "1.00", "0.0025"),
	},
	"PT": {
		Code: "PT", Currency: "EUR",
		AnnualRateAverage: d("0.0400"), AnnualRateBest: d("0.0320"),
		InsuranceRateAverage: d("0.0025"), InsuranceRateBest: d("0.0010"),
		PurchaseTaxRate: d("0.07"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.10"), MaxLoanDurationMonths: 360,
		MaxDebtRatio: d("0.35"),
		LtvRateTiers: tiers("0.75", "-0.0020", "0.80", "-0.0010", "0.90", "0.0000", "1.00", "0.0030"),
	},
	"IT": {
		Code: "IT", Currency: "EUR",
		AnnualRateAverage: d("0.0400"), AnnualRateBest: d("0.0320"),
		InsuranceRateAverage: d("0.0020"), InsuranceRateBest: d("0.0008"),
		PurchaseTaxRate: d("0.04"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.20"), MaxLoanDurationMonths: 360,
		MaxDebtRatio: d("0.35"),
		LtvRateTiers: tiers("0.75", "-0.0020", "0.80", "-0.0010", "0.90", "0.0000", "1.00", "0.0030"),
	},
	"GB": {
		Code: "GB", Currency: "GBP",
		AnnualRateAverage: d("0.0500"), AnnualRateBest: d("0.0420"),
		InsuranceRateAverage: d("0.0025"), InsuranceRateBest: d("0.0012"),
		PurchaseTaxRate: d("0.03"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.10"), MaxLoanDurationMonths: 420,
		MaxDebtRatio: d("0.45"),
		LtvRateTiers: tiers("0.60", "-0.0030", "0.75", "-0.0015", "0.90", "0.0000", "1.00", "0.0050"),
	},
	"US": {
		Code: "US", Currency: "USD",
		AnnualRateAverage: d("0.0700"), AnnualRateBest: d("0.0620"),
		InsuranceRateAverage: d("0.0080"), InsuranceRateBest: d("0.0040"),
		PurchaseTaxRate: d("0.025"), TaxesFinanceable: true,
		MinDownPaymentRatio: d("0.20"), MaxLoanDurationMonths: 360,
		MaxDebtRatio: d("0.43"),
		LtvRateTiers: tiers("0.80", "-0.0025", "0.90", "0.0000", "1.00", "0.0075"),
	},
}

// SupportedCountries returns the sorted list of supported country codes.
func SupportedCountries() []string {
	codes := make([]string, 0, len(staticProfiles))
	for code := range staticProfiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetProfile returns the static profile for a country code (case-insensitive).
func GetProfile(country string) (CountryProfile, error) {
	code := strings.ToUpper(country)
	profile, ok := staticProfiles[code]
	if !ok {
		return CountryProfile{}, fmt.Errorf("unsupported country code %q, supported codes: %s",
			code, strings.Join(SupportedCountries(), ", "))
	}
	return profile, nil
}
