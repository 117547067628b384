// Package filter implements the rolling logistic veto: a walk-forward loop
// that retrains a small probability model on a trailing, causally-lagged
// window and forces low-confidence directional signals to FLAT.
package filter

import (
	"math"

	"github.com/rs/zerolog"

	"swingbot-go/internal/market"
)

const (
	featDim      = 4
	minTrainRows = 5
)

// Config tunes the rolling veto loop. CausalityLagDays must be at least 2:
// the training target (next-bar direction) is only observable one bar after
// it occurs, so a 1-bar gap would still leak.
type Config struct {
	WarmupDays       int
	WindowDays       int
	LagSlackDays     int
	CausalityLagDays int
	VetoThreshold    float64
	L2               float64
	LearningRate     float64
	Epochs           int
}

// SkipReason says why a retrain attempt left the previous model in place.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipTooFewRows  SkipReason = "too_few_rows"
	SkipSingleClass SkipReason = "single_class"
)

// TrainResult is the outcome of one retrain attempt. When Trained is false
// the prior model state is retained wholesale, never partially updated.
type TrainResult struct {
	Trained bool
	Reason  SkipReason
	Rows    int
}

// ScoreResult carries the model's upward-class probability for one bar, or a
// neutral 0.5 when the filter is untrained or the features are unusable.
type ScoreResult struct {
	Neutral bool
	PUp     float64
}

// Prob returns the usable probability, neutral scores included.
func (r ScoreResult) Prob() float64 {
	if r.Neutral {
		return 0.5
	}
	return r.PUp
}

// Filter owns the current model state across retrains.
type Filter struct {
	cfg   Config
	log   zerolog.Logger
	model *logit
}

// New builds an untrained filter.
func New(cfg Config, log zerolog.Logger) *Filter {
	if cfg.VetoThreshold <= 0 || cfg.VetoThreshold >= 1 {
		cfg.VetoThreshold = 0.35
	}
	if cfg.CausalityLagDays < 2 {
		cfg.CausalityLagDays = 2
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 200
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.L2 <= 0 {
		cfg.L2 = 1e-3
	}
	return &Filter{cfg: cfg, log: log}
}

// Trained reports whether a model has been fit at least once.
func (f *Filter) Trained() bool { return f.model != nil }

// Train fits a fresh model on the window and swaps it in atomically. Too few
// valid rows or a single target class skip the retrain and keep the prior
// model (stale but consistent).
func (f *Filter) Train(window []market.Bar) TrainResult {
	feats, labels := buildTrainingSet(window)
	if len(feats) < minTrainRows {
		return TrainResult{Reason: SkipTooFewRows, Rows: len(feats)}
	}
	if singleClass(labels) {
		return TrainResult{Reason: SkipSingleClass, Rows: len(feats)}
	}
	model := newLogit(featDim, f.cfg.L2)
	model.fit(feats, labels, f.cfg.LearningRate, f.cfg.Epochs)
	f.model = model
	return TrainResult{Trained: true, Rows: len(feats)}
}

// Score returns P(up) for one bar. Untrained state and uncomputable features
// both degrade to a neutral result rather than an error.
func (f *Filter) Score(bar market.Bar) ScoreResult {
	if f.model == nil {
		return ScoreResult{Neutral: true}
	}
	x, ok := features(bar)
	if !ok {
		return ScoreResult{Neutral: true}
	}
	return ScoreResult{PUp: f.model.predict(x)}
}

// Veto applies the asymmetric policy to one signal: a LONG is vetoed when
// P(up) < threshold, a SHORT when P(up) > 1-threshold. FLAT passes through.
// The asymmetry around 0.5 is intentional and preserved as configured.
func (f *Filter) Veto(sig market.Signal, pUp float64) bool {
	switch {
	case sig.Direction > 0:
		return pUp < f.cfg.VetoThreshold
	case sig.Direction < 0:
		return pUp > 1-f.cfg.VetoThreshold
	default:
		return false
	}
}

// features builds the fixed model input for one bar:
// oscillator, volatility unit, normalized moving-average deviation, band width.
func features(bar market.Bar) ([]float64, bool) {
	if bar.SMA20 == 0 {
		return nil, false
	}
	x := []float64{
		bar.RSI,
		bar.ATR,
		(bar.Close - bar.SMA20) / bar.SMA20,
		bar.BBStd,
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return x, true
}

// buildTrainingSet labels each row with the sign of the next close move,
// using only rows inside the window. The last row has no observable target
// and is dropped; rows with uncomputable features are dropped too.
func buildTrainingSet(window []market.Bar) ([][]float64, []float64) {
	var feats [][]float64
	var labels []float64
	for i := 0; i+1 < len(window); i++ {
		x, ok := features(window[i])
		if !ok {
			continue
		}
		up := 0.0
		if window[i+1].Close > window[i].Close {
			up = 1.0
		}
		feats = append(feats, x)
		labels = append(labels, up)
	}
	return feats, labels
}

func singleClass(labels []float64) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, l := range labels[1:] {
		if l != first {
			return false
		}
	}
	return true
}
