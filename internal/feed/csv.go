package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"swingbot-go/internal/market"
)

// loadCSV reads a generic candle CSV with headers:
// date|time|timestamp, open, high, low, close, volume.
// Time values may be YYYY-MM-DD, RFC3339, or UNIX seconds.
func (f *Feed) loadCSV(start, end time.Time) ([]market.Bar, error) {
	if f.csvPath == "" {
		return nil, fmt.Errorf("csv provider not configured")
	}
	file, err := os.Open(f.csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	var out []market.Bar
	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if headers == nil {
			headers = rec
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "date", "time", "timestamp")
		op := first(row, "open")
		cp := first(row, "close")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		date, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(first(row, "high"), 64)
		l, _ := strconv.ParseFloat(first(row, "low"), 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(first(row, "volume", "vol"), 64)
		out = append(out, market.Bar{Date: date, Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	return out, nil
}

// parseTimeFlexible supports YYYY-MM-DD, RFC3339, or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
