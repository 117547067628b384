package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swingbot-go/internal/market"
)

func uptrendBars(n int, atr float64) []market.Bar {
	bars := make([]market.Bar, n)
	date := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	close := 100.0
	for i := range bars {
		bars[i] = market.Bar{
			Date:  date,
			Open:  close,
			High:  close * 1.01,
			Low:   close * 0.99,
			Close: close,
			RSI:   50,
			SMA20: close * 0.98,
			ATR:   atr,
		}
		close *= 1.01
		date = date.AddDate(0, 0, 1)
	}
	return bars
}

func signalsFor(bars []market.Bar, direction int) []market.Signal {
	out := make([]market.Signal, len(bars))
	for i, b := range bars {
		out[i] = market.NewSignal(b.Date, direction)
	}
	return out
}

func TestRunAllFlatKeepsEquityAtInitialCapital(t *testing.T) {
	bars := uptrendBars(30, 2.0)
	e := New(100000, 0.0125, 1, zerolog.Nop())
	res := e.Run(bars, signalsFor(bars, 0))

	// One equity point per processed bar; the final bar has no next open.
	if len(res.Equity) != len(bars)-1 {
		t.Fatalf("expected %d equity points, got %d", len(bars)-1, len(res.Equity))
	}
	for _, p := range res.Equity {
		if p.Equity != 100000 {
			t.Fatalf("equity moved with no trades: %+v", p)
		}
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
}

func TestRunUptrendScenario(t *testing.T) {
	bars := uptrendBars(30, 2.0)
	e := New(100000, 0.0125, 1, zerolog.Nop())
	res := e.Run(bars, signalsFor(bars, 1))

	sum := Summarize(100000, res.Equity, res.Trades)
	// 29 processed bars: first entry fills on bar 1, so 28 round trips close.
	if sum.Trades != 28 {
		t.Fatalf("expected 28 exits, got %d", sum.Trades)
	}
	if sum.TotalPnL <= 0 {
		t.Fatalf("expected positive PnL in uptrend, got %.2f", sum.TotalPnL)
	}
	if sum.WinRatePct != 100 {
		t.Fatalf("expected 100%% win rate, got %.1f", sum.WinRatePct)
	}
}

func TestRunZeroATRNeverEnters(t *testing.T) {
	bars := uptrendBars(30, 0)
	e := New(100000, 0.0125, 1, zerolog.Nop())
	res := e.Run(bars, signalsFor(bars, 1))

	if len(res.Trades) != 0 {
		t.Fatalf("expected zero trades with ATR=0, got %d", len(res.Trades))
	}
	for _, p := range res.Equity {
		if p.Equity != 100000 {
			t.Fatalf("equity should stay flat at initial capital, got %+v", p)
		}
	}
	if res.Open.Side != 0 {
		t.Fatalf("no position should be open")
	}
}

func TestRunSinglePositionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bars := uptrendBars(120, 2.0)
	signals := make([]market.Signal, len(bars))
	for i, b := range bars {
		signals[i] = market.NewSignal(b.Date, rng.Intn(3)-1)
	}

	e := New(100000, 0.0125, 3, zerolog.Nop())
	res := e.Run(bars, signals)

	open := false
	for _, tr := range res.Trades {
		switch tr.Type {
		case TradeEntryLong, TradeEntryShort:
			if open {
				t.Fatalf("entry recorded while a position was already open: %+v", tr)
			}
			open = true
		case TradeExit:
			if !open {
				t.Fatalf("exit without an open position: %+v", tr)
			}
			open = false
		}
	}
	if open != (res.Open.Side != 0) {
		t.Fatalf("ledger open state %v disagrees with result position %+v", open, res.Open)
	}
}

func TestRunPnLReconciliation(t *testing.T) {
	for seed := int64(0); seed < 4; seed++ {
		rng := rand.New(rand.NewSource(seed))
		bars := make([]market.Bar, 100)
		date := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
		close := 100.0
		for i := range bars {
			close += rng.NormFloat64()
			bars[i] = market.Bar{Date: date, Open: close - 0.3, High: close + 1, Low: close - 1, Close: close, ATR: 1.5}
			date = date.AddDate(0, 0, 1)
		}
		signals := make([]market.Signal, len(bars))
		for i, b := range bars {
			signals[i] = market.NewSignal(b.Date, rng.Intn(3)-1)
		}

		e := New(100000, 0.0125, 2, zerolog.Nop())
		res := e.Run(bars, signals)

		var realized float64
		for _, tr := range res.Trades {
			if tr.Type == TradeExit {
				realized += tr.PnL
			}
		}
		unrealized := 0.0
		if res.Open.Side != 0 {
			lastClose := bars[len(bars)-2].Close // last processed bar
			unrealized = (lastClose - res.Open.EntryPrice) * float64(res.Open.Qty) * float64(res.Open.Side)
		}
		if math.Abs(realized+unrealized-(res.FinalEquity()-100000)) > 1e-6 {
			t.Fatalf("seed %d: realized %.4f + unrealized %.4f != final-initial %.4f",
				seed, realized, unrealized, res.FinalEquity()-100000)
		}
		if math.Abs(res.Capital-(100000+realized)) > 1e-6 {
			t.Fatalf("seed %d: capital %.4f does not equal initial+realized", seed, res.Capital)
		}
	}
}

func TestRunCompoundsSizingWithCapital(t *testing.T) {
	bars := uptrendBars(10, 2.0)
	e := New(100000, 0.0125, 1, zerolog.Nop())
	res := e.Run(bars, signalsFor(bars, 1))

	if res.Capital <= 100000 {
		t.Fatalf("expected realized capital growth, got %.2f", res.Capital)
	}
	// Sizing is a fraction of current capital, so the next entry would be
	// larger than the first one was.
	if Quantity(0.0125, res.Capital, 2.0) <= Quantity(0.0125, 100000, 2.0) {
		t.Fatalf("expected compounded size to exceed initial size")
	}
}

func TestQuantity(t *testing.T) {
	if q := Quantity(0.0125, 100000, 2.0); q != 520 {
		t.Fatalf("expected 520 shares, got %d", q)
	}
	if q := Quantity(0.0125, 100000, 0); q != 0 {
		t.Fatalf("expected 0 for non-positive ATR, got %d", q)
	}
	if q := Quantity(0.0125, 100000, math.NaN()); q != 0 {
		t.Fatalf("expected 0 for NaN ATR, got %d", q)
	}
	if q := Quantity(0.0125, 100, 50); q != 0 {
		t.Fatalf("expected 0 when risk capital is below one share, got %d", q)
	}
}
