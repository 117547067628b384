package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"swingbot-go/internal/market"
)

// brokerHistoryResponse mirrors the broker candle payload:
// {"s":"ok","candles":[[epochSecs,open,high,low,close,volume],...]}
type brokerHistoryResponse struct {
	Status  string      `json:"s"`
	Message string      `json:"message"`
	Candles [][]float64 `json:"candles"`
}

func (f *Feed) fetchBroker(ctx context.Context, start, end time.Time) ([]market.Bar, error) {
	if f.brokerURL == "" {
		return nil, fmt.Errorf("broker provider not configured")
	}
	if f.creds.Empty() {
		return nil, fmt.Errorf("broker credentials missing")
	}

	query := url.Values{}
	query.Set("symbol", f.ticker)
	query.Set("resolution", f.resolution)
	query.Set("date_format", "1")
	query.Set("range_from", start.Format("2006-01-02"))
	query.Set("range_to", end.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/data/history?%s", f.brokerURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", f.creds.AppID+":"+f.creds.AccessToken)
	req.Header.Set("User-Agent", "swingbot-go/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload brokerHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("broker status %q: %s", payload.Status, payload.Message)
	}

	bars := make([]market.Bar, 0, len(payload.Candles))
	for _, c := range payload.Candles {
		if len(c) < 6 {
			continue
		}
		bars = append(bars, market.Bar{
			Date:   time.Unix(int64(c[0]), 0).UTC(),
			Open:   c[1],
			High:   c[2],
			Low:    c[3],
			Close:  c[4],
			Volume: c[5],
		})
	}
	return bars, nil
}
