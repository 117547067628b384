// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Broker describes the primary historical-data API endpoint and which
// environment variables carry its credential bundle.
type Broker struct {
	BaseURL     string `yaml:"base_url"`
	AppIDEnv    string `yaml:"app_id_env"`
	TokenEnv    string `yaml:"token_env"`
	Resolution  string `yaml:"resolution"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Data selects the asset, the backtest slice, and the bar providers to try in order.
type Data struct {
	Ticker    string   `yaml:"ticker"`
	Start     string   `yaml:"start"` // YYYY-MM-DD inclusive
	End       string   `yaml:"end"`   // YYYY-MM-DD inclusive
	Providers []string `yaml:"providers"`
	CSVPath   string   `yaml:"csv_path"`
	Broker    Broker   `yaml:"broker"`
	ChartURL  string   `yaml:"chart_url"`
}

// Strategy holds the oscillator gates for the rule-based signal stage.
type Strategy struct {
	Overbought float64 `yaml:"overbought"`
	Oversold   float64 `yaml:"oversold"`
}

// Risk encodes starting capital and the fraction of it put at risk per trade.
type Risk struct {
	InitialCapital float64 `yaml:"initial_capital"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"`
}

// Filter tunes the rolling logistic veto loop.
type Filter struct {
	WarmupDays       int     `yaml:"warmup_days"`
	WindowDays       int     `yaml:"window_days"`
	LagSlackDays     int     `yaml:"lag_slack_days"`
	CausalityLagDays int     `yaml:"causality_lag_days"`
	VetoThreshold    float64 `yaml:"veto_threshold"`
	L2               float64 `yaml:"l2"`
	LearningRate     float64 `yaml:"learning_rate"`
	Epochs           int     `yaml:"epochs"`
}

// Engine controls the replay simulation.
type Engine struct {
	HoldHorizonBars int `yaml:"hold_horizon_bars"`
}

// Plan selects the forward date range the trade plan is projected for.
type Plan struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Report points persisted artifacts at a results directory.
type Report struct {
	Dir string `yaml:"dir"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Data     Data     `yaml:"data"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Filter   Filter   `yaml:"filter"`
	Engine   Engine   `yaml:"engine"`
	Plan     Plan     `yaml:"plan"`
	Report   Report   `yaml:"report"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Strategy.Overbought == 0 {
		c.Strategy.Overbought = 70
	}
	if c.Strategy.Oversold == 0 {
		c.Strategy.Oversold = 30
	}
	if c.Risk.InitialCapital == 0 {
		c.Risk.InitialCapital = 100000
	}
	if c.Risk.RiskPerTrade == 0 {
		c.Risk.RiskPerTrade = 0.0125
	}
	if c.Filter.WarmupDays == 0 {
		c.Filter.WarmupDays = 20
	}
	if c.Filter.WindowDays == 0 {
		c.Filter.WindowDays = 20
	}
	if c.Filter.LagSlackDays == 0 {
		c.Filter.LagSlackDays = 10
	}
	if c.Filter.CausalityLagDays == 0 {
		c.Filter.CausalityLagDays = 2
	}
	if c.Filter.VetoThreshold == 0 {
		c.Filter.VetoThreshold = 0.35
	}
	if c.Filter.L2 == 0 {
		c.Filter.L2 = 1e-3
	}
	if c.Filter.LearningRate == 0 {
		c.Filter.LearningRate = 0.1
	}
	if c.Filter.Epochs == 0 {
		c.Filter.Epochs = 200
	}
	if c.Engine.HoldHorizonBars == 0 {
		c.Engine.HoldHorizonBars = 1
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "backtest_results"
	}
	if c.Data.Broker.TimeoutSecs == 0 {
		c.Data.Broker.TimeoutSecs = 10
	}
	if c.Data.Broker.Resolution == "" {
		c.Data.Broker.Resolution = "D"
	}
}

func (c *Config) validate() error {
	if c.Data.Ticker == "" {
		return fmt.Errorf("data.ticker is required")
	}
	if c.Filter.CausalityLagDays < 2 {
		return fmt.Errorf("filter.causality_lag_days must be >= 2, got %d", c.Filter.CausalityLagDays)
	}
	if c.Filter.VetoThreshold <= 0 || c.Filter.VetoThreshold >= 1 {
		return fmt.Errorf("filter.veto_threshold must be in (0,1), got %.2f", c.Filter.VetoThreshold)
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade >= 1 {
		return fmt.Errorf("risk.risk_per_trade must be in (0,1), got %.4f", c.Risk.RiskPerTrade)
	}
	if c.Engine.HoldHorizonBars < 1 {
		return fmt.Errorf("engine.hold_horizon_bars must be >= 1, got %d", c.Engine.HoldHorizonBars)
	}
	return nil
}
