package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Count of historical bars loaded"},
		[]string{"provider"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Raw signals generated by the rule stage"},
		[]string{"signal"},
	)
	RetrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "retrains_total", Help: "Rolling filter retrain attempts"},
		[]string{"result"},
	)
	VetoesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vetoes_total", Help: "Signals forced to FLAT by the model filter"},
		[]string{"side"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Simulated trade events"},
		[]string{"type"},
	)
	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "equity", Help: "Mark-to-market equity of the simulation"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, SignalsTotal, RetrainsTotal, VetoesTotal, TradesTotal, Equity)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
