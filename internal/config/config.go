// Package config defines the application settings and loads them from an
// optional YAML settings file. Every key has a hardcoded default, so the
// simulator runs without any file present.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"credit-simulator/internal/profiles"
)

// Settings holds all tunable application defaults.
type Settings struct {
	// Country / profile defaults.
	DefaultCountry string
	DefaultQuality profiles.Quality
	// Buyer constraint default when neither user nor profile supplies one.
	DefaultMaxMonthlyPayment decimal.Decimal
	// Optimizer search parameters.
	DefaultLoanDurationMonths int
	DownPaymentStep           decimal.Decimal
	DurationStep              int
	// Sweet-spot analysis.
	ReserveMonths   int
	OpportunityRate decimal.Decimal

	Logging LoggingConfig
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputFile string // optional file output
}

func defaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("defaultCountry", "BE")
	v.SetDefault("defaultQuality", "average")
	v.SetDefault("defaultMaxMonthlyPayment", "2200")
	v.SetDefault("defaultLoanDurationMonths", 240)
	v.SetDefault("downPaymentStep", "1000")
	v.SetDefault("durationStep", 12)
	v.SetDefault("reserveMonths", 6)
	v.SetDefault("opportunityRate", "0.03")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	return v
}

// LoadSettings loads the settings file at settingsPath layered over the
// defaults. An empty path returns pure defaults; a non-empty path must exist.
func LoadSettings(settingsPath string) (*Settings, error) {
	v := defaults()
	if settingsPath != "" {
		if _, err := os.Stat(settingsPath); err != nil {
			return nil, fmt.Errorf("settings file %s: %w", settingsPath, err)
		}
		v.SetConfigFile(settingsPath)
		v.SetConfigType("yml")
		v.AutomaticEnv()
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading settings file, %s", err)
		}
	}

	quality, err := profiles.ParseQuality(v.GetString("defaultQuality"))
	if err != nil {
		return nil, err
	}

	maxPayment, err := decimal.NewFromString(v.GetString("defaultMaxMonthlyPayment"))
	if err != nil {
		return nil, fmt.Errorf("defaultMaxMonthlyPayment: %w", err)
	}
	dpStep, err := decimal.NewFromString(v.GetString("downPaymentStep"))
	if err != nil {
		return nil, fmt.Errorf("downPaymentStep: %w", err)
	}
	if dpStep.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("downPaymentStep must be > 0, got %s", dpStep)
	}
	opportunityRate, err := decimal.NewFromString(v.GetString("opportunityRate"))
	if err != nil {
		return nil, fmt.Errorf("opportunityRate: %w", err)
	}

	settings := &Settings{
		DefaultCountry:            v.GetString("defaultCountry"),
		DefaultQuality:            quality,
		DefaultMaxMonthlyPayment:  maxPayment,
		DefaultLoanDurationMonths: v.GetInt("defaultLoanDurationMonths"),
		DownPaymentStep:           dpStep,
		DurationStep:              v.GetInt("durationStep"),
		ReserveMonths:             v.GetInt("reserveMonths"),
		OpportunityRate:           opportunityRate,
		Logging: LoggingConfig{
			Level:      v.GetString("logging.level"),
			Format:     v.GetString("logging.format"),
			OutputFile: v.GetString("logging.outputFile"),
		},
	}

	if settings.DefaultLoanDurationMonths <= 0 {
		return nil, fmt.Errorf("defaultLoanDurationMonths must be > 0, got %d", settings.DefaultLoanDurationMonths)
	}
	if settings.DurationStep <= 0 {
		return nil, fmt.Errorf("durationStep must be > 0, got %d", settings.DurationStep)
	}
	if settings.ReserveMonths < 0 {
		return nil, fmt.Errorf("reserveMonths must be >= 0, got %d", settings.ReserveMonths)
	}
	if _, err := profiles.GetProfile(settings.DefaultCountry); err != nil {
		return nil, err
	}

	return settings, nil
}
