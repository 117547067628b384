package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestFetchBroker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "app:token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("symbol") != "IRCON.NS" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"s":"ok","candles":[
			[1762128000,100,102,99,101,10000],
			[1762214400,101,103,100,102,12000]]}`))
	}))
	defer srv.Close()

	f := New("IRCON.NS", []string{ProviderBroker}, zerolog.Nop(),
		WithBroker(srv.URL, "D", Credentials{AppID: "app", AccessToken: "token"}),
		WithHTTPClient(srv.Client()))

	bars := f.Fetch(context.Background(), day("2025-11-01"), day("2025-11-30"))
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 101 || bars[1].Close != 102 {
		t.Fatalf("unexpected closes: %+v", bars)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("bars not sorted ascending")
	}
}

func TestFetchFallsBackToChart(t *testing.T) {
	broker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broker.Close()

	chart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1762128000],
			"indicators":{"quote":[{"open":[100],"high":[102],"low":[99],"close":[101],"volume":[5000]}]}}]}}`))
	}))
	defer chart.Close()

	f := New("IRCON.NS", []string{ProviderBroker, ProviderChart}, zerolog.Nop(),
		WithBroker(broker.URL, "D", Credentials{AppID: "app", AccessToken: "token"}),
		WithChartURL(chart.URL))

	bars := f.Fetch(context.Background(), day("2025-11-01"), day("2025-11-30"))
	if len(bars) != 1 {
		t.Fatalf("expected chart fallback to return 1 bar, got %d", len(bars))
	}
	if bars[0].Open != 100 || bars[0].Volume != 5000 {
		t.Fatalf("unexpected bar: %+v", bars[0])
	}
}

func TestFetchAllProvidersFailReturnsEmpty(t *testing.T) {
	f := New("IRCON.NS", []string{ProviderBroker, ProviderChart, ProviderCSV}, zerolog.Nop())
	bars := f.Fetch(context.Background(), day("2025-11-01"), day("2025-11-30"))
	if len(bars) != 0 {
		t.Fatalf("expected empty series, got %d bars", len(bars))
	}
}

func TestLoadCSVSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	data := "date,open,high,low,close,volume\n" +
		"2025-11-03,100,102,99,101,10000\n" +
		"not-a-date,1,2,3,4,5\n" +
		"2025-11-04,101,103,100,102,12000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f := New("IRCON.NS", []string{ProviderCSV}, zerolog.Nop(), WithCSVPath(path))
	bars := f.Fetch(context.Background(), day("2025-11-01"), day("2025-11-30"))
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars around the malformed row, got %d", len(bars))
	}
	if bars[0].Date != day("2025-11-03") || bars[1].Date != day("2025-11-04") {
		t.Fatalf("unexpected dates: %v, %v", bars[0].Date, bars[1].Date)
	}
}

func TestLoadCSVClampsRange(t *testing.T) {
	f := New("IRCON.NS", []string{ProviderCSV}, zerolog.Nop(),
		WithCSVPath(filepath.Join("testdata", "bars.csv")))

	bars := f.Fetch(context.Background(), day("2025-11-04"), day("2025-11-06"))
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars in range, got %d", len(bars))
	}
	if bars[0].Date != day("2025-11-04") || bars[2].Date != day("2025-11-06") {
		t.Fatalf("unexpected range: %v .. %v", bars[0].Date, bars[2].Date)
	}
	if bars[1].High != 104.0 {
		t.Fatalf("unexpected high: %.2f", bars[1].High)
	}
}
