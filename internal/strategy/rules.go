// Package strategy maps annotated bars to directional signals by fixed
// threshold rules. No state is carried across bars.
package strategy

import (
	"swingbot-go/internal/market"
	"swingbot-go/internal/metrics"
)

// Classifier derives LONG/SHORT/FLAT decisions from the moving average and
// the oscillator gates.
type Classifier struct {
	overbought float64
	oversold   float64
}

// NewClassifier builds a rule classifier with the given oscillator gates.
func NewClassifier(overbought, oversold float64) *Classifier {
	if overbought <= 0 {
		overbought = 70
	}
	if oversold <= 0 {
		oversold = 30
	}
	return &Classifier{overbought: overbought, oversold: oversold}
}

// Name returns the configured identifier for logging.
func (c *Classifier) Name() string { return "RuleClassifier" }

// Evaluate classifies one bar:
// LONG when close is above the moving average with room to run (not
// overbought), SHORT when below it with room to fall (not oversold),
// FLAT otherwise.
func (c *Classifier) Evaluate(bar market.Bar) market.Signal {
	direction := 0
	switch {
	case bar.Close > bar.SMA20 && bar.RSI < c.overbought:
		direction = 1
	case bar.Close < bar.SMA20 && bar.RSI > c.oversold:
		direction = -1
	}
	return market.NewSignal(bar.Date, direction)
}

// Generate classifies every bar, producing one signal per bar in order.
func (c *Classifier) Generate(bars []market.Bar) []market.Signal {
	signals := make([]market.Signal, len(bars))
	for i, bar := range bars {
		signals[i] = c.Evaluate(bar)
		metrics.SignalsTotal.WithLabelValues(string(signals[i].Label)).Inc()
	}
	return signals
}
