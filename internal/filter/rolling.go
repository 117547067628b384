package filter

import (
	"time"

	"swingbot-go/internal/market"
	"swingbot-go/internal/metrics"
)

// Decision records what the rolling loop did on one evaluation date. The
// window bounds are the dates of the rows actually used for the retrain, so
// the causal gap is auditable after the fact.
type Decision struct {
	Date        time.Time
	Prob        float64
	Vetoed      bool
	Retrained   bool
	SkipReason  SkipReason
	TrainRows   int
	WindowStart time.Time
	WindowEnd   time.Time
}

// Result is the output of one walk-forward pass: the veto-filtered signal
// sequence (same length and order as the input) plus the per-date trace.
type Result struct {
	Signals []market.Signal
	Trace   []Decision
	Vetoes  int
}

// Run walks the bars in strictly increasing date order, once per evaluation
// date at or after firstDate+WarmupDays. Each visit retrains on the trailing
// window [T-(WindowDays+LagSlackDays), T-CausalityLagDays] and scores the
// current bar exactly once. No row dated after T-CausalityLagDays can enter
// the training set for T's decision.
func (f *Filter) Run(bars []market.Bar, signals []market.Signal) Result {
	out := Result{Signals: append([]market.Signal(nil), signals...)}
	if len(bars) == 0 || len(bars) != len(signals) {
		return out
	}

	evalStart := bars[0].Date.AddDate(0, 0, f.cfg.WarmupDays)
	for i, bar := range bars {
		if bar.Date.Before(evalStart) {
			continue
		}

		trainEnd := bar.Date.AddDate(0, 0, -f.cfg.CausalityLagDays)
		trainStart := bar.Date.AddDate(0, 0, -(f.cfg.WindowDays + f.cfg.LagSlackDays))
		window := sliceWindow(bars, trainStart, trainEnd)

		decision := Decision{Date: bar.Date, Prob: 0.5}
		if len(window) > 0 {
			decision.WindowStart = window[0].Date
			decision.WindowEnd = window[len(window)-1].Date
		}

		if len(window) < minTrainRows {
			metrics.RetrainsTotal.WithLabelValues("window_too_small").Inc()
			decision.SkipReason = SkipTooFewRows
			out.Trace = append(out.Trace, decision)
			continue
		}

		tr := f.Train(window)
		decision.Retrained = tr.Trained
		decision.SkipReason = tr.Reason
		decision.TrainRows = tr.Rows
		if tr.Trained {
			metrics.RetrainsTotal.WithLabelValues("trained").Inc()
		} else {
			metrics.RetrainsTotal.WithLabelValues(string(tr.Reason)).Inc()
			f.log.Debug().Time("date", bar.Date).Str("reason", string(tr.Reason)).
				Int("rows", tr.Rows).Msg("retrain skipped, keeping prior model")
		}

		score := f.Score(bar)
		decision.Prob = score.Prob()

		if f.Veto(out.Signals[i], decision.Prob) {
			metrics.VetoesTotal.WithLabelValues(string(out.Signals[i].Label)).Inc()
			decision.Vetoed = true
			out.Signals[i] = out.Signals[i].Flatten()
			out.Vetoes++
		}
		out.Trace = append(out.Trace, decision)
	}
	return out
}

// sliceWindow returns the bars with dates in [start, end], relying on the
// input being date-ordered.
func sliceWindow(bars []market.Bar, start, end time.Time) []market.Bar {
	var out []market.Bar
	for _, b := range bars {
		if b.Date.Before(start) {
			continue
		}
		if b.Date.After(end) {
			break
		}
		out = append(out, b)
	}
	return out
}
