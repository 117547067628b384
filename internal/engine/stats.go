package engine

import (
	"math"

	"swingbot-go/internal/market"
)

const tradingDaysPerYear = 252

// Summary reduces an equity curve and trade ledger to scalar metrics.
// A run with no processed bars summarizes to the zero value, never an error.
type Summary struct {
	TotalPnL       float64
	ReturnPct      float64
	Sharpe         float64
	MaxDrawdownPct float64 // negative percentage
	Trades         int     // completed round trips (EXIT rows)
	WinRatePct     float64
}

// Summarize computes performance statistics from the replay output.
func Summarize(initialCapital float64, equity []EquityPoint, trades []Trade) Summary {
	if len(equity) == 0 {
		return Summary{}
	}

	final := equity[len(equity)-1].Equity
	totalPnL := final - initialCapital
	returnPct := 0.0
	if initialCapital != 0 {
		returnPct = totalPnL / initialCapital * 100
	}

	curve := make([]float64, len(equity))
	for i, p := range equity {
		curve[i] = p.Equity
	}

	var exits, wins int
	for _, t := range trades {
		if t.Type != TradeExit {
			continue
		}
		exits++
		if t.PnL > 0 {
			wins++
		}
	}
	winRate := 0.0
	if exits > 0 {
		winRate = float64(wins) / float64(exits) * 100
	}

	return Summary{
		TotalPnL:       totalPnL,
		ReturnPct:      returnPct,
		Sharpe:         annualizedSharpe(curve),
		MaxDrawdownPct: maxDrawdownPct(curve),
		Trades:         exits,
		WinRatePct:     winRate,
	}
}

// Benchmark holds buy-and-hold statistics over the same slice for the run
// summary's alpha comparison.
type Benchmark struct {
	ReturnPct      float64
	ReturnAbs      float64
	MaxDrawdownPct float64
	Sharpe         float64
}

// BuyHold marks a notional holding of the asset from the first close to the
// last, scaled to the reference capital.
func BuyHold(bars []market.Bar, referenceCapital float64) Benchmark {
	if len(bars) == 0 || bars[0].Close == 0 {
		return Benchmark{}
	}
	start := bars[0].Close
	end := bars[len(bars)-1].Close

	curve := make([]float64, len(bars))
	for i, b := range bars {
		curve[i] = b.Close / start * referenceCapital
	}

	retPct := (end - start) / start * 100
	return Benchmark{
		ReturnPct:      retPct,
		ReturnAbs:      retPct / 100 * referenceCapital,
		MaxDrawdownPct: maxDrawdownPct(curve),
		Sharpe:         annualizedSharpe(curve),
	}
}

// annualizedSharpe is mean(daily return) / sample std(daily return) * sqrt(252),
// zero when the deviation is zero or undefined.
func annualizedSharpe(curve []float64) float64 {
	if len(curve) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			return 0
		}
		rets = append(rets, curve[i]/curve[i-1]-1)
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	variance := 0.0
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets) - 1)
	std := math.Sqrt(variance)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdownPct is the minimum of (equity - runningPeak) / runningPeak as a
// percentage. Always <= 0.
func maxDrawdownPct(curve []float64) float64 {
	peak := math.Inf(-1)
	minDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (v - peak) / peak
		if dd < minDD {
			minDD = dd
		}
	}
	return minDD * 100
}
