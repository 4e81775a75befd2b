package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Conversion is the result of a rate lookup. Live is false when the
// fallback table supplied the rate.
type Conversion struct {
	ConvertedAmount float64
	Rate            float64
	Live            bool
}

type Config struct {
	RatesAPIURL     string
	CountriesAPIURL string
	RequestTimeout  time.Duration
}

// Client looks up exchange rates and country currencies from public APIs,
// degrading to a static fallback table when the network is unavailable.
// It is called before expenses enter the approval pipeline and never holds
// any database locks.
type Client struct {
	ratesAPIURL     string
	countriesAPIURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		ratesAPIURL:     cfg.RatesAPIURL,
		countriesAPIURL: cfg.CountriesAPIURL,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

// fallbackRates covers the common pairs when the rates API is unreachable.
var fallbackRates = map[string]float64{
	"USD_EUR": 0.85, "USD_GBP": 0.73, "USD_INR": 83.0, "USD_CAD": 1.35,
	"EUR_USD": 1.18, "EUR_GBP": 0.86, "EUR_INR": 97.0,
	"GBP_USD": 1.37, "GBP_EUR": 1.16, "GBP_INR": 113.0,
	"INR_USD": 0.012, "INR_EUR": 0.010, "INR_GBP": 0.0088,
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Convert converts amount from one currency to another. A missing rate in
// both the live response and the fallback table yields rate 1 so submission
// is never blocked by a rate gap.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (Conversion, error) {
	if from == to {
		return Conversion{ConvertedAmount: amount, Rate: 1, Live: true}, nil
	}

	if rate, ok := c.fetchRate(ctx, from, to); ok {
		return Conversion{ConvertedAmount: amount * rate, Rate: rate, Live: true}, nil
	}

	rate, ok := fallbackRates[from+"_"+to]
	if !ok {
		c.logger.Warn("no rate available, converting 1:1", "from", from, "to", to)
		rate = 1
	}

	return Conversion{ConvertedAmount: amount * rate, Rate: rate, Live: false}, nil
}

func (c *Client) fetchRate(ctx context.Context, from, to string) (float64, bool) {
	endpoint := fmt.Sprintf("%s/%s", c.ratesAPIURL, url.PathEscape(from))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("rates API request failed", "error", err, "from", from)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("rates API returned non-OK status", "status", resp.StatusCode, "from", from)
		return 0, false
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("failed to decode rates response", "error", err)
		return 0, false
	}

	rate, ok := body.Rates[to]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

type countryResponse struct {
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
}

// CurrencyForCountry resolves a country name to its primary currency code,
// defaulting to USD when the lookup fails.
func (c *Client) CurrencyForCountry(ctx context.Context, country string) (string, error) {
	endpoint := fmt.Sprintf("%s/name/%s?fields=currencies", c.countriesAPIURL, url.PathEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "USD", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("countries API request failed", "error", err, "country", country)
		return "USD", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "USD", nil
	}

	var body []countryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "USD", nil
	}

	if len(body) > 0 {
		for code := range body[0].Currencies {
			return code, nil
		}
	}
	return "USD", nil
}
