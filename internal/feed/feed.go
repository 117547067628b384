// Package feed hosts the historical bar providers and their fallback chain.
package feed

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"swingbot-go/internal/market"
	"swingbot-go/internal/metrics"
)

const (
	// ProviderBroker pulls candles from the authenticated broker history API.
	ProviderBroker = "broker"
	// ProviderChart polls a public chart JSON endpoint (no credentials).
	ProviderChart = "chart"
	// ProviderCSV reads OHLCV rows from a local file (offline/tests).
	ProviderCSV = "csv"
)

// Credentials is the broker credential bundle sourced from the environment.
type Credentials struct {
	AppID       string
	AccessToken string
}

// Empty reports whether the bundle is unusable.
func (c Credentials) Empty() bool { return c.AppID == "" || c.AccessToken == "" }

// Feed fetches a date-bounded daily bar history for one ticker, trying each
// configured provider in order and degrading to an empty series when all fail.
type Feed struct {
	providers  []string
	ticker     string
	log        zerolog.Logger
	client     *http.Client
	brokerURL  string
	resolution string
	creds      Credentials
	chartURL   string
	csvPath    string
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithBroker injects the broker endpoint and credential bundle.
func WithBroker(baseURL, resolution string, creds Credentials) Option {
	return func(f *Feed) {
		f.brokerURL = strings.TrimSuffix(baseURL, "/")
		if resolution != "" {
			f.resolution = resolution
		}
		f.creds = creds
	}
}

// WithChartURL injects the public chart endpoint used as a fallback.
func WithChartURL(baseURL string) Option {
	return func(f *Feed) { f.chartURL = strings.TrimSuffix(baseURL, "/") }
}

// WithCSVPath points the file provider at a local OHLCV CSV.
func WithCSVPath(path string) Option {
	return func(f *Feed) { f.csvPath = path }
}

// WithHTTPClient overrides the default HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(f *Feed) {
		if client != nil {
			f.client = client
		}
	}
}

// New constructs a feed for one ticker backed by the requested provider chain.
func New(ticker string, providers []string, log zerolog.Logger, opts ...Option) *Feed {
	if len(providers) == 0 {
		providers = []string{ProviderCSV}
	}
	f := &Feed{
		providers:  providers,
		ticker:     ticker,
		log:        log,
		client:     &http.Client{Timeout: 10 * time.Second},
		resolution: "D",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns bars with dates in [start, end], oldest first. It never
// returns an error: each provider failure falls through to the next, and
// total failure yields an empty slice.
func (f *Feed) Fetch(ctx context.Context, start, end time.Time) []market.Bar {
	for _, provider := range f.providers {
		bars, err := f.fetchOne(ctx, provider, start, end)
		if err != nil {
			f.log.Warn().Err(err).Str("provider", provider).Str("ticker", f.ticker).Msg("bar provider failed")
			continue
		}
		if len(bars) == 0 {
			f.log.Warn().Str("provider", provider).Str("ticker", f.ticker).Msg("bar provider returned no rows")
			continue
		}
		metrics.BarsTotal.WithLabelValues(provider).Add(float64(len(bars)))
		f.log.Info().Str("provider", provider).Int("rows", len(bars)).Msg("bars loaded")
		return bars
	}
	f.log.Warn().Str("ticker", f.ticker).Msg("all bar providers failed; empty series")
	return nil
}

func (f *Feed) fetchOne(ctx context.Context, provider string, start, end time.Time) ([]market.Bar, error) {
	var (
		bars []market.Bar
		err  error
	)
	switch strings.ToLower(provider) {
	case ProviderBroker:
		bars, err = f.fetchBroker(ctx, start, end)
	case ProviderChart:
		bars, err = f.fetchChart(ctx, start, end)
	default:
		bars, err = f.loadCSV(start, end)
	}
	if err != nil {
		return nil, err
	}
	sortBars(bars)
	return clampRange(bars, start, end), nil
}

// sortBars ensures ascending date order.
func sortBars(bars []market.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

func clampRange(bars []market.Bar, start, end time.Time) []market.Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
