package plan

import (
	"reflect"
	"testing"
	"time"

	"swingbot-go/internal/market"
)

func planBars() []market.Bar {
	date := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []market.Bar
	close := 200.0
	for i := 0; i < 6; i++ {
		bars = append(bars, market.Bar{
			Date:  date,
			Open:  close - 0.5,
			High:  close + 2,
			Low:   close - 2,
			Close: close,
			ATR:   2.0,
			SMA20: close - 1,
			RSI:   55,
		})
		close += 1.5
		date = date.AddDate(0, 0, 1)
	}
	return bars
}

func planSignals(bars []market.Bar, directions ...int) []market.Signal {
	out := make([]market.Signal, len(bars))
	for i, b := range bars {
		d := 0
		if i < len(directions) {
			d = directions[i]
		}
		out[i] = market.NewSignal(b.Date, d)
	}
	return out
}

func TestGenerateSizedLongRow(t *testing.T) {
	bars := planBars()
	signals := planSignals(bars, 1, 0, 0, 0, 0, 0)
	p := New(100000, 0.0125)
	rows := p.Generate(bars, signals, bars[0].Date, bars[len(bars)-1].Date)

	if len(rows) != len(bars) {
		t.Fatalf("expected one row per bar, got %d", len(rows))
	}
	row := rows[0]
	if row.Signal != market.Long {
		t.Fatalf("unexpected signal: %s", row.Signal)
	}
	// floor(0.0125*100000 / 2.4) = 520
	if row.Qty != 520 {
		t.Fatalf("unexpected qty: %d", row.Qty)
	}
	// Entry projects the next bar's open.
	if row.EntryPrice != 201.0 {
		t.Fatalf("unexpected entry: %.2f", row.EntryPrice)
	}
	// LONG stop sits below entry by 1.2*ATR.
	if row.StopLoss != "198.60" {
		t.Fatalf("unexpected stop: %s", row.StopLoss)
	}
	if row.ExitCondition != "hold 1 bar" || row.Target != "next+1 open" {
		t.Fatalf("unexpected exit fields: %+v", row)
	}
}

func TestGenerateShortStopAboveEntry(t *testing.T) {
	bars := planBars()
	signals := planSignals(bars, -1)
	p := New(100000, 0.0125)
	rows := p.Generate(bars, signals, bars[0].Date, bars[0].Date)
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].StopLoss != "203.40" {
		t.Fatalf("expected stop above entry for SHORT, got %s", rows[0].StopLoss)
	}
}

func TestGenerateLastBarUsesCloseEstimate(t *testing.T) {
	bars := planBars()
	last := len(bars) - 1
	dirs := make([]int, len(bars))
	dirs[last] = 1
	signals := planSignals(bars, dirs...)
	p := New(100000, 0.0125)
	rows := p.Generate(bars, signals, bars[last].Date, bars[last].Date)
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].EntryPrice != bars[last].Close {
		t.Fatalf("expected close estimate %.2f, got %.2f", bars[last].Close, rows[0].EntryPrice)
	}
}

func TestGeneratePlaceholdersForFlatAndZeroATR(t *testing.T) {
	bars := planBars()
	bars[1].ATR = 0
	signals := planSignals(bars, 0, 1)
	p := New(100000, 0.0125)
	rows := p.Generate(bars, signals, bars[0].Date, bars[1].Date)

	for _, row := range rows {
		if row.Qty != 0 || row.EntryPrice != 0 {
			t.Fatalf("expected zero size row, got %+v", row)
		}
		if row.StopLoss != "-" || row.ExitCondition != "-" || row.Target != "-" {
			t.Fatalf("expected placeholders, got %+v", row)
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	bars := planBars()
	signals := planSignals(bars, 1, -1, 0, 1, -1, 0)
	p := New(100000, 0.0125)

	a := p.Generate(bars, signals, bars[0].Date, bars[len(bars)-1].Date)
	b := p.Generate(bars, signals, bars[0].Date, bars[len(bars)-1].Date)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("projection is not idempotent")
	}
}
