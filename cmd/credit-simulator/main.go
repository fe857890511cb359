package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"credit-simulator/internal/config"
	"credit-simulator/internal/fetcher"
	"credit-simulator/internal/optimizer"
	"credit-simulator/internal/profiles"
	"credit-simulator/internal/resolver"
	"credit-simulator/pkg/loans"
	"credit-simulator/pkg/output"
	"credit-simulator/pkg/validation"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "console"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}
		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	settingsPath := flag.String("settings", "", "path to optional settings file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")

	price := flag.String("price", "", "property price (required)")
	income := flag.String("income", "", "monthly net income (required)")
	savings := flag.String("savings", "", "available savings (required)")

	country := flag.String("country", "", "country code (default from settings)")
	quality := flag.String("quality", "", "profile quality: average or best")
	taxes := flag.String("taxes", "", "purchase taxes override")
	rate := flag.String("rate", "", "annual interest rate override (fraction, e.g. 0.035)")
	insuranceRate := flag.String("insurance-rate", "", "annual insurance rate override (fraction)")
	minRatio := flag.String("min-ratio", "", "minimum down payment ratio override (fraction)")
	maxDuration := flag.Int("max-duration", 0, "maximum loan duration override (months)")
	fixedDuration := flag.Int("fixed-duration", 0, "pin the loan duration (months)")
	maxDebtRatio := flag.String("max-debt-ratio", "", "maximum debt-to-income ratio override (fraction)")
	maxPayment := flag.String("max-payment", "", "absolute monthly payment cap override")
	downPayment := flag.String("down-payment", "", "pin the down payment")
	preference := flag.String("preference", "balanced", "optimization preference")

	fetchRate := flag.Bool("fetch-rate", false, "fetch the current average rate online before resolving")
	showSchedule := flag.Bool("schedule", false, "print an amortization schedule preview")
	flag.Parse()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load settings\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	logger, err := initializeLogger(settings.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := validation.ValidatePreference(*preference); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	inputs, err := buildInputs(*price, *income, *savings, *country, *quality, *taxes, *rate,
		*insuranceRate, *minRatio, *maxDuration, *fixedDuration, *maxDebtRatio, *maxPayment,
		*downPayment, *preference)
	if err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	store := profiles.NewStore()

	if *fetchRate {
		fetchCountry := inputs.Country
		if fetchCountry == "" {
			fetchCountry = settings.DefaultCountry
		}
		source := fetcher.NewFetcher(logger)
		fetched, err := source.FetchRate(fetchCountry)
		if err != nil {
			logger.Fatal("online rate fetch failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := store.SetAnnualRate(fetchCountry, profiles.QualityAverage, fetched, false); err != nil {
			logger.Fatal("failed to apply fetched rate",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("applied fetched average rate",
			zap.String("op", "main"),
			zap.String("country", fetchCountry),
			zap.String("rate", fetched.String()),
		)
	}

	params, err := resolver.Resolve(inputs, store, settings)
	if err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	if err := resolver.CheckFeasibility(params); err != nil {
		var infeasible *resolver.InfeasibleError
		if errors.As(err, &infeasible) {
			fmt.Printf("Not feasible: %s\n", infeasible.Reason)
			os.Exit(1)
		}
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	runner := optimizer.NewRunner(logger, settings)

	result, err := runner.Optimize(params)
	if err != nil {
		if errors.Is(err, optimizer.ErrNoFeasiblePlan) {
			fmt.Printf("No feasible plan: %v\n", err)
			os.Exit(1)
		}
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	output.PrettyResult(os.Stdout, result)

	if *showSchedule {
		schedule, err := loans.BuildAmortizationSchedule(
			result.LoanPrincipal,
			result.Plan.AnnualInterestRate,
			result.Plan.AnnualInsuranceRate,
			result.LoanDurationMonths,
		)
		if err != nil {
			logger.Fatal("failed to build amortization schedule",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		output.PrettySchedule(os.Stdout, schedule, result.Currency, 12)
	}

	analysis, err := runner.AnalyzeSweetSpot(params)
	if err != nil {
		logger.Fatal("failed to analyze sweet spot",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	output.PrettySweetSpot(os.Stdout, analysis, result.Currency)
}

// buildInputs assembles UserInputs from raw flag values; empty strings and
// zero durations mean "not provided".
func buildInputs(price, income, savings, country, quality, taxes, rate, insuranceRate,
	minRatio string, maxDuration, fixedDuration int, maxDebtRatio, maxPayment,
	downPayment, preference string) (resolver.UserInputs, error) {

	var inputs resolver.UserInputs
	var err error

	if price == "" || income == "" || savings == "" {
		return inputs, fmt.Errorf("-price, -income, and -savings are required")
	}
	if inputs.PropertyPrice, err = validation.ParseAmount("price", price); err != nil {
		return inputs, err
	}
	if inputs.MonthlyNetIncome, err = validation.ParseAmount("income", income); err != nil {
		return inputs, err
	}
	if inputs.AvailableSavings, err = validation.ParseAmount("savings", savings); err != nil {
		return inputs, err
	}
	if err = validation.ValidatePositiveAmount("price", inputs.PropertyPrice); err != nil {
		return inputs, err
	}
	if err = validation.ValidatePositiveAmount("income", inputs.MonthlyNetIncome); err != nil {
		return inputs, err
	}
	if err = validation.ValidateNonNegativeAmount("savings", inputs.AvailableSavings); err != nil {
		return inputs, err
	}

	inputs.Country = country
	inputs.ProfileQuality = quality
	inputs.OptimizationPreference = preference

	if inputs.PurchaseTaxes, err = optionalAmount("taxes", taxes); err != nil {
		return inputs, err
	}
	if inputs.AnnualInterestRate, err = optionalAmount("rate", rate); err != nil {
		return inputs, err
	}
	if inputs.InsuranceRate, err = optionalAmount("insurance-rate", insuranceRate); err != nil {
		return inputs, err
	}
	if inputs.MinDownPaymentRatio, err = optionalAmount("min-ratio", minRatio); err != nil {
		return inputs, err
	}
	if inputs.MaxDebtRatio, err = optionalAmount("max-debt-ratio", maxDebtRatio); err != nil {
		return inputs, err
	}
	if inputs.MaxMonthlyPayment, err = optionalAmount("max-payment", maxPayment); err != nil {
		return inputs, err
	}
	if inputs.PreferredDownPayment, err = optionalAmount("down-payment", downPayment); err != nil {
		return inputs, err
	}

	if maxDuration > 0 {
		inputs.MaxLoanDurationMonths = &maxDuration
	}
	if fixedDuration > 0 {
		inputs.FixedLoanDurationMonths = &fixedDuration
	}

	return inputs, nil
}

func optionalAmount(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := validation.ParseAmount(name, raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
