package profiles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field identifies an overridable regulatory profile field. The set is
// closed; ParseField rejects unknown names so a bad field name fails at
// construction, not at lookup time.
type Field int

const (
	FieldCurrency Field = iota
	FieldPurchaseTaxRate
	FieldTaxesFinanceable
	FieldMinDownPaymentRatio
	FieldMaxLoanDurationMonths
	FieldMaxDebtRatio
)

var fieldNames = map[Field]string{
	FieldCurrency:              "currency",
	FieldPurchaseTaxRate:       "purchase_tax_rate",
	FieldTaxesFinanceable:      "taxes_financeable",
	FieldMinDownPaymentRatio:   "min_down_payment_ratio",
	FieldMaxLoanDurationMonths: "max_loan_duration_months",
	FieldMaxDebtRatio:          "max_debt_ratio",
}

// String returns the canonical snake_case field name.
func (f Field) String() string { return fieldNames[f] }

// ParseField resolves a field name to its identifier.
func ParseField(name string) (Field, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == lower {
			return f, nil
		}
	}
	names := make([]string, 0, len(fieldNames))
	for _, n := range fieldNames {
		names = append(names, n)
	}
	return 0, fmt.Errorf("unknown profile field %q (valid: %s)", name, strings.Join(sortedStrings(names), ", "))
}

func sortedStrings(ss []string) []string {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j] < ss[j-1]; j-- {
			ss[j], ss[j-1] = ss[j-1], ss[j]
		}
	}
	return ss
}

// parseFieldValue converts a raw string into the typed value for a field.
// The dispatch is exhaustive over the Field enum.
func parseFieldValue(f Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f {
	case FieldCurrency:
		if raw == "" {
			return nil, fmt.Errorf("currency must not be empty")
		}
		return strings.ToUpper(raw), nil
	case FieldPurchaseTaxRate, FieldMinDownPaymentRatio, FieldMaxDebtRatio:
		val, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if val.IsNegative() || val.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%s must be a fraction in [0, 1], got %s", f, val)
		}
		return val, nil
	case FieldTaxesFinanceable:
		val, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		return val, nil
	case FieldMaxLoanDurationMonths:
		val, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if val <= 0 {
			return nil, fmt.Errorf("%s must be > 0, got %d", f, val)
		}
		return val, nil
	}
	return nil, fmt.Errorf("unknown profile field %d", f)
}
