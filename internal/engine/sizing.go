package engine

import "math"

// stopATRMultiple scales the volatility unit into a stop distance. Sizing is
// therefore instrument-volatility-adaptive rather than a fixed price offset.
const stopATRMultiple = 1.2

// StopDistance converts an ATR reading into the risk unit used for sizing
// and stop placement.
func StopDistance(atr float64) float64 { return stopATRMultiple * atr }

// Quantity sizes a position as floor(riskFraction * capital / stopDistance),
// in whole shares. Capital is current (compounding) capital, not initial.
// A non-positive or undefined ATR yields zero, which callers treat as
// "skip the entry".
func Quantity(riskFraction, capital, atr float64) int {
	if atr <= 0 || math.IsNaN(atr) {
		return 0
	}
	qty := int(riskFraction * capital / StopDistance(atr))
	if qty < 0 {
		return 0
	}
	return qty
}
