// Package engine replays a filtered signal sequence into a single-position
// paper simulation with next-open fills and ATR-scaled sizing, then reduces
// the result to scalar performance statistics.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"swingbot-go/internal/market"
	"swingbot-go/internal/metrics"
)

// TradeType tags ledger rows. Entries carry the signal label; every close is
// an EXIT regardless of side.
type TradeType string

const (
	TradeEntryLong  TradeType = "LONG"
	TradeEntryShort TradeType = "SHORT"
	TradeExit       TradeType = "EXIT"
)

// Trade is one immutable ledger row. PnL is populated on EXIT rows only.
type Trade struct {
	ID    string    `json:"id"`
	Date  time.Time `json:"date"`
	Type  TradeType `json:"type"`
	Price float64   `json:"price"`
	PnL   float64   `json:"pnl,omitempty"`
}

// EquityPoint is the mark-to-market capital at one bar, unrealized PnL of an
// open position included.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Position is the single live position. Qty and EntryPrice are meaningless
// when Side == 0.
type Position struct {
	Side       int // +1 long, -1 short, 0 flat
	Qty        int
	EntryPrice float64
	BarsHeld   int
}

// Result bundles everything one replay produced. Open holds the trailing
// unclosed position, if any; its PnL is unrealized only.
type Result struct {
	Trades  []Trade
	Equity  []EquityPoint
	Open    Position
	Capital float64 // realized capital after all closed trades
}

// FinalEquity is the last mark-to-market point, or the realized capital when
// no bar was processed.
func (r Result) FinalEquity() float64 {
	if len(r.Equity) == 0 {
		return r.Capital
	}
	return r.Equity[len(r.Equity)-1].Equity
}

// Engine holds the replay parameters. One engine instance manages at most
// one live position.
type Engine struct {
	initialCapital float64
	riskFraction   float64
	holdHorizon    int
	log            zerolog.Logger
}

// New builds an engine. Horizon below 1 bar is clamped to 1.
func New(initialCapital, riskFraction float64, holdHorizon int, log zerolog.Logger) *Engine {
	if holdHorizon < 1 {
		holdHorizon = 1
	}
	return &Engine{
		initialCapital: initialCapital,
		riskFraction:   riskFraction,
		holdHorizon:    holdHorizon,
		log:            log,
	}
}

// InitialCapital is the reference capital for forward plan sizing.
func (e *Engine) InitialCapital() float64 { return e.initialCapital }

// RiskFraction returns the per-trade risk fraction.
func (e *Engine) RiskFraction() float64 { return e.riskFraction }

// Run replays the signal sequence bar by bar. Fills use the next bar's open
// for entries and exits alike, so the final bar (no next open) is dropped
// before the replay. Exits are checked before entries within a bar; a
// trailing open position is never force-closed.
func (e *Engine) Run(bars []market.Bar, signals []market.Signal) Result {
	capital := e.initialCapital
	var position Position
	result := Result{Capital: capital}

	n := len(bars)
	if len(signals) < n {
		n = len(signals)
	}
	// need the next bar's open as fill price
	for i := 0; i+1 < n; i++ {
		bar := bars[i]
		fill := bars[i+1].Open

		if position.Side != 0 {
			position.BarsHeld++
			if position.BarsHeld >= e.holdHorizon {
				pnl := (fill - position.EntryPrice) * float64(position.Qty) * float64(position.Side)
				capital += pnl
				result.Trades = append(result.Trades, Trade{
					ID:    uuid.NewString(),
					Date:  bar.Date,
					Type:  TradeExit,
					Price: fill,
					PnL:   pnl,
				})
				metrics.TradesTotal.WithLabelValues(string(TradeExit)).Inc()
				position = Position{}
			}
		}

		if position.Side == 0 && signals[i].Direction != 0 {
			qty := Quantity(e.riskFraction, capital, bar.ATR)
			if qty <= 0 {
				e.log.Debug().Time("date", bar.Date).Float64("atr", bar.ATR).Msg("entry skipped: unusable size")
			} else {
				position = Position{
					Side:       signals[i].Direction,
					Qty:        qty,
					EntryPrice: fill,
				}
				entryType := TradeEntryLong
				if signals[i].Direction < 0 {
					entryType = TradeEntryShort
				}
				result.Trades = append(result.Trades, Trade{
					ID:    uuid.NewString(),
					Date:  bar.Date,
					Type:  entryType,
					Price: fill,
				})
				metrics.TradesTotal.WithLabelValues(string(entryType)).Inc()
			}
		}

		equity := capital
		if position.Side != 0 {
			equity += (bar.Close - position.EntryPrice) * float64(position.Qty) * float64(position.Side)
		}
		result.Equity = append(result.Equity, EquityPoint{Date: bar.Date, Equity: equity})
		metrics.Equity.Set(equity)
	}

	result.Open = position
	result.Capital = capital
	return result
}
