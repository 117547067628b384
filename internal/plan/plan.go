// Package plan projects filtered forward signals into an actionable trade
// plan. Projection is pure: it reuses the engine's sizing formula but never
// touches engine state, so identical inputs yield identical rows.
package plan

import (
	"math"
	"strconv"
	"time"

	"swingbot-go/internal/engine"
	"swingbot-go/internal/market"
)

const (
	exitCondition = "hold 1 bar"
	target        = "next+1 open"
	placeholder   = "-"
)

// Row is one projected trade plan line. StopLoss and Target stay as text so
// placeholder rows serialize the same way the sized ones do.
type Row struct {
	Date          time.Time
	Signal        market.Label
	Qty           int
	EntryPrice    float64
	ExitCondition string
	StopLoss      string
	Target        string
}

// Projector sizes plan rows off a fixed reference capital.
type Projector struct {
	referenceCapital float64
	riskFraction     float64
}

// New builds a projector anchored to the engine's reference capital.
func New(referenceCapital, riskFraction float64) *Projector {
	return &Projector{referenceCapital: referenceCapital, riskFraction: riskFraction}
}

// Generate emits one row per bar dated within [start, end]. Non-FLAT signals
// with positive ATR get a size, a projected next-open entry (close estimate
// on the last known bar), and a stop level; everything else gets zero size
// and placeholder fields.
func (p *Projector) Generate(bars []market.Bar, signals []market.Signal, start, end time.Time) []Row {
	var rows []Row
	n := len(bars)
	if len(signals) < n {
		n = len(signals)
	}
	for i := 0; i < n; i++ {
		bar := bars[i]
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		row := Row{
			Date:          bar.Date,
			Signal:        signals[i].Label,
			ExitCondition: placeholder,
			StopLoss:      placeholder,
			Target:        placeholder,
		}
		if signals[i].Direction != 0 && bar.ATR > 0 {
			row.Qty = engine.Quantity(p.riskFraction, p.referenceCapital, bar.ATR)

			entry := bar.Close // estimate when the next open is unknown
			if i+1 < len(bars) {
				entry = bars[i+1].Open
			}
			stopDist := engine.StopDistance(bar.ATR)
			stop := entry - stopDist
			if signals[i].Direction < 0 {
				stop = entry + stopDist
			}
			row.EntryPrice = round2(entry)
			row.StopLoss = formatPrice(round2(stop))
			row.ExitCondition = exitCondition
			row.Target = target
		}
		rows = append(rows, row)
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
