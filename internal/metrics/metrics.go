// Package metrics exposes Prometheus counters and gauges updated during
// operation and served at /metrics by the webhook server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_ticks_total",
			Help: "Price ticks received from the market feed",
		},
	)

	signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_signals_total",
			Help: "Signal evaluations by outcome (Long|Short|None)",
		},
		[]string{"signal"},
	)

	proposals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_proposals_total",
			Help: "Trade proposals by status (sent|approved|expired)",
		},
		[]string{"status"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Order submissions by side and result (ok|error)",
		},
		[]string{"side", "result"},
	)

	equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_usd",
			Help: "Last observed account equity in USD",
		},
	)
)

func init() {
	prometheus.MustRegister(ticks, signals, proposals, orders, equity)
}

func IncTick() { ticks.Inc() }

func IncSignal(signal string) { signals.WithLabelValues(signal).Inc() }

func IncProposal(status string) { proposals.WithLabelValues(status).Inc() }

func IncOrder(side, result string) { orders.WithLabelValues(side, result).Inc() }

func SetEquity(v float64) { equity.Set(v) }
