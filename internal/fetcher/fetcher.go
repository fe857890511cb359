// Package fetcher retrieves current average mortgage rates from public
// statistical sources: the ECB Data Portal for euro-area countries, the Bank
// of England for GB, and FRED for US.
//
// Fetches are user-triggered only, run a single attempt with no retry, and
// return the rate as a decimal fraction (0.035 = 3.5%). Any network, parsing,
// or missing-data condition surfaces as a *FetchError.
package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateSource fetches the average annual mortgage rate for a country.
type RateSource interface {
	FetchRate(country string) (decimal.Decimal, error)
}

// FetchError wraps any failure in an online rate fetch.
type FetchError struct {
	Msg string
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FetchError) Unwrap() error { return e.Err }

var ecbCountries = map[string]bool{
	"BE": true, "FR": true, "DE": true, "ES": true, "IT": true, "PT": true,
}

const (
	// ECB MIR series: monthly, new business, housing loans, annualised
	// agreed rate, households, EUR.
	ecbURLTemplate = "https://data.ecb.europa.eu/api/v1/data/MIR/M.%s.B.A2C.F.R.A.2250.EUR.N?lastNObservations=1&format=jsondata"
	// Bank of England IUMTLMV: effective rate on new mortgages, CSV export.
	boeURL = "https://www.bankofengland.co.uk/boeapps/database/_iadb-FromShowColumns.asp" +
		"?csv.x=yes&Datefrom=01/Jan/2024&Dateto=now&SeriesCodes=IUMTLMV&CSVF=TT&UsingCodes=Y"
	// FRED 30-year fixed mortgage average.
	fredSeries = "MORTGAGE30US"
	fredURL    = "https://api.stlouisfed.org/fred/series/observations"
)

// Fetcher is the default RateSource over the public statistical APIs.
type Fetcher struct {
	logger *zap.Logger
	client *http.Client
	// Overridable in tests.
	ecbBase  string
	boeBase  string
	fredBase string
}

// NewFetcher creates a Fetcher with a 10-second request timeout. A nil
// logger falls back to a no-op logger.
func NewFetcher(logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		logger:   logger,
		client:   &http.Client{Timeout: 10 * time.Second},
		ecbBase:  "",
		boeBase:  boeURL,
		fredBase: fredURL,
	}
}

// FetchRate fetches the latest average annual mortgage rate for a country as
// a decimal fraction.
func (f *Fetcher) FetchRate(country string) (decimal.Decimal, error) {
	code := strings.ToUpper(country)
	f.logger.Debug("fetching online rate",
		zap.String("op", "fetcher.FetchRate"),
		zap.String("country", code),
	)
	switch {
	case ecbCountries[code]:
		return f.fetchECB(code)
	case code == "GB":
		return f.fetchBOE()
	case code == "US":
		return f.fetchFRED()
	}
	return decimal.Zero, &FetchError{Msg: fmt.Sprintf(
		"no online data source configured for country %q, update the rate manually", code)}
}

func (f *Fetcher) get(rawURL string) ([]byte, error) {
	resp, err := f.client.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) fetchECB(code string) (decimal.Decimal, error) {
	rawURL := fmt.Sprintf(ecbURLTemplate, code)
	if f.ecbBase != "" {
		rawURL = fmt.Sprintf("%s/%s", f.ecbBase, code)
	}
	body, err := f.get(rawURL)
	if err != nil {
		return decimal.Zero, &FetchError{Msg: "ECB API request failed", Err: err}
	}

	// ECB JSON-stat: dataSets[0].series[<key>].observations[<key>][0],
	// the annualised rate in percent.
	var payload struct {
		DataSets []struct {
			Series map[string]struct {
				Observations map[string][]*float64 `json:"observations"`
			} `json:"series"`
		} `json:"dataSets"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, &FetchError{Msg: fmt.Sprintf("failed to parse ECB response for %s", code), Err: err}
	}
	if len(payload.DataSets) == 0 {
		return decimal.Zero, &FetchError{Msg: fmt.Sprintf("ECB returned no data sets for %s", code)}
	}
	for _, series := range payload.DataSets[0].Series {
		for _, obs := range series.Observations {
			if len(obs) == 0 || obs[0] == nil {
				return decimal.Zero, &FetchError{Msg: fmt.Sprintf("ECB returned null value for %s", code)}
			}
			return decimal.NewFromFloat(*obs[0]).Div(decimal.NewFromInt(100)), nil
		}
	}
	return decimal.Zero, &FetchError{Msg: fmt.Sprintf("ECB returned no observations for %s", code)}
}

func (f *Fetcher) fetchBOE() (decimal.Decimal, error) {
	body, err := f.get(f.boeBase)
	if err != nil {
		return decimal.Zero, &FetchError{Msg: "Bank of England API request failed", Err: err}
	}

	// CSV: DATE,IUMTLMV — take the last populated data row.
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	var last string
	for _, line := range lines[1:] {
		parts := strings.Split(line, ",")
		if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
			last = strings.TrimSpace(parts[1])
		}
	}
	if last == "" {
		return decimal.Zero, &FetchError{Msg: "no data returned from Bank of England"}
	}
	rate, err := decimal.NewFromString(last)
	if err != nil {
		return decimal.Zero, &FetchError{Msg: "failed to parse Bank of England response", Err: err}
	}
	return rate.Div(decimal.NewFromInt(100)), nil
}

func (f *Fetcher) fetchFRED() (decimal.Decimal, error) {
	apiKey := os.Getenv("FRED_API_KEY")
	if apiKey == "" {
		return decimal.Zero, &FetchError{Msg: "FRED_API_KEY environment variable is not set, " +
			"get a free key at https://fred.stlouisfed.org/docs/api/api_key.html"}
	}
	params := url.Values{
		"series_id":  {fredSeries},
		"api_key":    {apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		"limit":      {"1"},
	}
	body, err := f.get(f.fredBase + "?" + params.Encode())
	if err != nil {
		return decimal.Zero, &FetchError{Msg: "FRED API request failed", Err: err}
	}

	var payload struct {
		Observations []struct {
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, &FetchError{Msg: "failed to parse FRED response", Err: err}
	}
	if len(payload.Observations) == 0 {
		return decimal.Zero, &FetchError{Msg: "FRED returned no observations"}
	}
	value := payload.Observations[0].Value
	if value == "." {
		return decimal.Zero, &FetchError{Msg: "FRED returned missing value ('.')"}
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &FetchError{Msg: "failed to parse FRED observation", Err: err}
	}
	return rate.Div(decimal.NewFromInt(100)), nil
}
