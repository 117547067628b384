package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"swingbot-go/internal/config"
	"swingbot-go/internal/engine"
	"swingbot-go/internal/feed"
	"swingbot-go/internal/filter"
	"swingbot-go/internal/indicators"
	"swingbot-go/internal/logx"
	"swingbot-go/internal/market"
	"swingbot-go/internal/metrics"
	"swingbot-go/internal/plan"
	"swingbot-go/internal/report"
	"swingbot-go/internal/strategy"
)

const dateLayout = "2006-01-02"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML configuration")
	flag.Parse()

	_ = godotenv.Load() // best-effort credential bundle

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logx.New("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logx.New(cfg.App.LogLevel).With().Str("run_id", uuid.NewString()).Logger()

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start, err := time.Parse(dateLayout, cfg.Data.Start)
	if err != nil {
		log.Fatal().Err(err).Msg("parse data.start")
	}
	end, err := time.Parse(dateLayout, cfg.Data.End)
	if err != nil {
		log.Fatal().Err(err).Msg("parse data.end")
	}

	barFeed := newFeed(cfg, log)

	log.Info().Str("ticker", cfg.Data.Ticker).Str("start", cfg.Data.Start).Str("end", cfg.Data.End).Msg("loading bars")
	raw := barFeed.Fetch(ctx, start, end)
	if len(raw) == 0 {
		log.Error().Msg("no historical data available; ending run")
		return
	}

	bars := indicators.Annotate(raw)
	log.Info().Int("raw", len(raw)).Int("annotated", len(bars)).Msg("feature stage complete")
	if len(bars) == 0 {
		log.Error().Msg("no rows survived the indicator warmup; ending run")
		return
	}

	classifier := strategy.NewClassifier(cfg.Strategy.Overbought, cfg.Strategy.Oversold)
	signals := classifier.Generate(bars)

	vetoFilter := filter.New(filterConfig(cfg), log)
	rolled := vetoFilter.Run(bars, signals)
	log.Info().Int("evaluated", len(rolled.Trace)).Int("vetoes", rolled.Vetoes).Msg("rolling walk-forward complete")

	eng := engine.New(cfg.Risk.InitialCapital, cfg.Risk.RiskPerTrade, cfg.Engine.HoldHorizonBars, log)
	res := eng.Run(bars, rolled.Signals)
	sum := engine.Summarize(cfg.Risk.InitialCapital, res.Equity, res.Trades)

	log.Info().
		Float64("total_pnl", sum.TotalPnL).
		Float64("return_pct", sum.ReturnPct).
		Float64("sharpe", sum.Sharpe).
		Float64("max_drawdown_pct", sum.MaxDrawdownPct).
		Int("trades", sum.Trades).
		Float64("win_rate_pct", sum.WinRatePct).
		Msg("performance")

	bench := engine.BuyHold(bars, cfg.Risk.InitialCapital)
	log.Info().
		Float64("return_pct", bench.ReturnPct).
		Float64("return_abs", bench.ReturnAbs).
		Float64("max_drawdown_pct", bench.MaxDrawdownPct).
		Float64("sharpe", bench.Sharpe).
		Float64("alpha_pct", sum.ReturnPct-bench.ReturnPct).
		Msg("buy and hold comparison")

	persistLedger(cfg, log, res.Trades)

	if cfg.Plan.Start != "" && cfg.Plan.End != "" {
		generatePlan(ctx, cfg, log, barFeed, classifier, eng, bars, start)
	}

	log.Info().Msg("run complete")
}

func newFeed(cfg *config.Config, log zerolog.Logger) *feed.Feed {
	creds := feed.Credentials{
		AppID:       os.Getenv(cfg.Data.Broker.AppIDEnv),
		AccessToken: os.Getenv(cfg.Data.Broker.TokenEnv),
	}
	return feed.New(cfg.Data.Ticker, cfg.Data.Providers, log,
		feed.WithBroker(cfg.Data.Broker.BaseURL, cfg.Data.Broker.Resolution, creds),
		feed.WithChartURL(cfg.Data.ChartURL),
		feed.WithCSVPath(cfg.Data.CSVPath),
		feed.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Data.Broker.TimeoutSecs) * time.Second}),
	)
}

func filterConfig(cfg *config.Config) filter.Config {
	return filter.Config{
		WarmupDays:       cfg.Filter.WarmupDays,
		WindowDays:       cfg.Filter.WindowDays,
		LagSlackDays:     cfg.Filter.LagSlackDays,
		CausalityLagDays: cfg.Filter.CausalityLagDays,
		VetoThreshold:    cfg.Filter.VetoThreshold,
		L2:               cfg.Filter.L2,
		LearningRate:     cfg.Filter.LearningRate,
		Epochs:           cfg.Filter.Epochs,
	}
}

func persistLedger(cfg *config.Config, log zerolog.Logger, trades []engine.Trade) {
	ledgerPath := filepath.Join(cfg.Report.Dir, "trade_log.csv")
	if err := report.WriteTradeLog(ledgerPath, trades); err != nil {
		log.Warn().Err(err).Str("path", ledgerPath).Msg("persist trade log failed")
	} else {
		log.Info().Str("path", ledgerPath).Int("rows", len(trades)).Msg("trade log saved")
	}

	recorder, err := report.NewJSONLRecorder(filepath.Join(cfg.Report.Dir, "trades.jsonl"))
	if err != nil {
		log.Warn().Err(err).Msg("open trade recorder failed")
		return
	}
	defer recorder.Close()
	for _, t := range trades {
		recorder.Record(t)
	}
}

// generatePlan trains a single-shot model on the full backtest slice, vetoes
// the forward signals with it, and projects the trade plan.
func generatePlan(ctx context.Context, cfg *config.Config, log zerolog.Logger, barFeed *feed.Feed,
	classifier *strategy.Classifier, eng *engine.Engine, history []market.Bar, historyStart time.Time) {

	planStart, err := time.Parse(dateLayout, cfg.Plan.Start)
	if err != nil {
		log.Warn().Err(err).Msg("parse plan.start; skipping plan")
		return
	}
	planEnd, err := time.Parse(dateLayout, cfg.Plan.End)
	if err != nil {
		log.Warn().Err(err).Msg("parse plan.end; skipping plan")
		return
	}

	final := filter.New(filterConfig(cfg), log)
	tr := final.Train(history)
	log.Info().Bool("trained", tr.Trained).Int("rows", tr.Rows).Str("reason", string(tr.Reason)).
		Msg("final full-history fit")

	forwardRaw := barFeed.Fetch(ctx, historyStart, planEnd)
	forwardBars := indicators.Annotate(forwardRaw)
	if len(forwardBars) == 0 {
		log.Warn().Msg("no forward bars available; skipping plan")
		return
	}
	forwardSignals := classifier.Generate(forwardBars)

	// Inspect and veto the forward window with the single-shot model.
	for i, bar := range forwardBars {
		if bar.Date.Before(planStart) || bar.Date.After(planEnd) {
			continue
		}
		sig := forwardSignals[i]
		prob := final.Score(bar).Prob()
		status := "PASS"
		switch {
		case sig.Direction == 0:
			status = "NO_SIGNAL"
		case final.Veto(sig, prob):
			status = "VETO"
			forwardSignals[i] = sig.Flatten()
		}
		log.Info().Str("date", bar.Date.Format(dateLayout)).Int("raw", sig.Direction).
			Float64("prob", prob).Str("status", status).Msg("forward signal")
	}

	projector := plan.New(eng.InitialCapital(), eng.RiskFraction())
	rows := projector.Generate(forwardBars, forwardSignals, planStart, planEnd)

	planPath := filepath.Join(cfg.Report.Dir, fmt.Sprintf("trade_plan_%s_%s.csv", cfg.Plan.Start, cfg.Plan.End))
	if err := report.WritePlan(planPath, rows); err != nil {
		log.Warn().Err(err).Str("path", planPath).Msg("persist trade plan failed")
		return
	}
	log.Info().Str("path", planPath).Int("rows", len(rows)).Msg("trade plan saved")
}
