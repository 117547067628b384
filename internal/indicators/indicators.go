// Package indicators annotates raw daily bars with the derived statistics the
// signal and filter stages consume.
//
// All helpers return slices aligned to the input; indices without enough
// trailing history hold NaN. Annotate trims those rows off, so the output is
// a strictly smaller, date-contiguous series.
package indicators

import (
	"math"

	"swingbot-go/internal/market"
)

const (
	rsiPeriod  = 14
	atrPeriod  = 14
	smaPeriod  = 20
	bandPeriod = 20
	bandWidth  = 2.0
)

// Annotate computes RSI(14), SMA(20), ATR(14), and Bollinger(20, 2σ) for the
// given bars and returns a new slice holding only the rows where every column
// is defined. Interior gaps (an undefined oscillator on a flat stretch) are
// forward-filled; leading rows without history are dropped. The input is not
// mutated.
func Annotate(bars []market.Bar) []market.Bar {
	if len(bars) == 0 {
		return nil
	}

	rsi := rsiSeries(bars, rsiPeriod)
	sma := smaSeries(bars, smaPeriod)
	atr := atrSeries(bars, atrPeriod)
	mid, std := bollingerSeries(bars, bandPeriod)

	columns := [][]float64{rsi, sma, atr, mid, std}
	for _, col := range columns {
		forwardFill(col)
	}

	out := make([]market.Bar, 0, len(bars))
	for i, bar := range bars {
		if math.IsNaN(rsi[i]) || math.IsNaN(sma[i]) || math.IsNaN(atr[i]) ||
			math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		bar.RSI = rsi[i]
		bar.SMA20 = sma[i]
		bar.SMA50 = sma[i] // 20-period proxy, kept for output parity
		bar.ATR = atr[i]
		bar.BBMid = mid[i]
		bar.BBStd = std[i]
		bar.BBUpper = mid[i] + bandWidth*std[i]
		bar.BBLower = mid[i] - bandWidth*std[i]
		out = append(out, bar)
	}
	return out
}

// rsiSeries is the n-period average-gain/average-loss oscillator scaled to
// [0,100], using plain rolling means.
func rsiSeries(bars []market.Bar, n int) []float64 {
	out := nanSlice(len(bars))
	if len(bars) < n+1 {
		return out
	}
	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		d := bars[i].Close - bars[i-1].Close
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	var gainSum, lossSum float64
	for i := 1; i < len(bars); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > n {
			gainSum -= gains[i-n]
			lossSum -= losses[i-n]
		}
		if i < n {
			continue
		}
		avgGain := gainSum / float64(n)
		avgLoss := lossSum / float64(n)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat stretch: undefined, forward-filled by the caller
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - (100 / (1 + rs))
		}
	}
	return out
}

// smaSeries is the n-period simple moving average of Close.
func smaSeries(bars []market.Bar, n int) []float64 {
	out := nanSlice(len(bars))
	var sum float64
	for i := range bars {
		sum += bars[i].Close
		if i >= n {
			sum -= bars[i-n].Close
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// atrSeries is the n-period mean of the true range, where true range is
// max(high-low, |high-prevClose|, |low-prevClose|). The first bar has no
// prior close, so its true range (and the first n averages) are undefined.
func atrSeries(bars []market.Bar, n int) []float64 {
	out := nanSlice(len(bars))
	tr := nanSlice(len(bars))
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	var sum float64
	for i := 1; i < len(bars); i++ {
		sum += tr[i]
		if i > n {
			sum -= tr[i-n]
		}
		if i >= n {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// bollingerSeries returns the n-period rolling mean and sample standard
// deviation of Close.
func bollingerSeries(bars []market.Bar, n int) (mid, std []float64) {
	mid = nanSlice(len(bars))
	std = nanSlice(len(bars))
	if n < 2 {
		return mid, std
	}
	var sum, sumSq float64
	for i := range bars {
		x := bars[i].Close
		sum += x
		sumSq += x * x
		if i >= n {
			y := bars[i-n].Close
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			// sample variance (n-1 denominator)
			variance := (sumSq - float64(n)*mean*mean) / float64(n-1)
			mid[i] = mean
			std[i] = math.Sqrt(math.Max(variance, 0))
		}
	}
	return mid, std
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// forwardFill replaces interior NaNs with the most recent defined value.
// Leading NaNs are left in place.
func forwardFill(col []float64) {
	last := math.NaN()
	for i, v := range col {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				col[i] = last
			}
			continue
		}
		last = v
	}
}
