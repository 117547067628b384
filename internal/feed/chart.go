package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"swingbot-go/internal/market"
)

// chartResponse mirrors the public chart JSON shape:
// {"chart":{"result":[{"timestamp":[...],"indicators":{"quote":[{"open":[...],...}]}}]}}
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`
}

func (f *Feed) fetchChart(ctx context.Context, start, end time.Time) ([]market.Bar, error) {
	if f.chartURL == "" {
		return nil, fmt.Errorf("chart provider not configured")
	}

	// end+1 day: the chart API treats period2 as exclusive.
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		f.chartURL, f.ticker, start.Unix(), end.AddDate(0, 0, 1).Unix())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "swingbot-go/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart payload empty")
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]market.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		bar := market.Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:  quote.Open[i],
			High:  quote.High[i],
			Low:   quote.Low[i],
			Close: quote.Close[i],
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
