// Package validation provides input validation utilities for the CLI
// boundary. Violations are input errors: raised immediately, never retried.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/optimizer"
)

// ValidatePreference checks an optimization preference name before any
// search begins.
func ValidatePreference(preference string) error {
	if optimizer.ValidPreferences[preference] {
		return nil
	}
	valid := make([]string, 0, len(optimizer.ValidPreferences))
	for name := range optimizer.ValidPreferences {
		valid = append(valid, name)
	}
	sort.Strings(valid)
	return fmt.Errorf("unknown optimization preference %q, valid values: %s",
		preference, strings.Join(valid, ", "))
}

// ValidatePositiveAmount checks a mandatory monetary input.
func ValidatePositiveAmount(name string, value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s must be > 0, got %s", name, value)
	}
	return nil
}

// ValidateNonNegativeAmount checks a monetary input that may be zero.
func ValidateNonNegativeAmount(name string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("%s must be >= 0, got %s", name, value)
	}
	return nil
}

// ParseAmount parses a decimal CLI argument, rejecting malformed input with
// the argument's name in the message.
func ParseAmount(name, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", name, raw)
	}
	return value, nil
}
