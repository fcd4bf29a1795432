package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	once sync.Once

	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	fetchAttempts   *prometheus.CounterVec
	chartCaptures   *prometheus.CounterVec
)

// Init registers all collectors with the default registry. Safe to call repeatedly.
func Init() {
	once.Do(func() {
		commandsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_commands_total",
				Help: "Commands handled, by command and outcome",
			},
			[]string{"command", "outcome"},
		)
		commandDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickerbot_command_duration_seconds",
				Help:    "Wall time from receipt to delivery",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"command"},
		)
		fetchAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_fetch_attempts_total",
				Help: "Outbound HTTP attempts, by outcome",
			},
			[]string{"outcome"},
		)
		chartCaptures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_chart_captures_total",
				Help: "Chart screenshot captures, by result",
			},
			[]string{"result"},
		)

		_ = prometheus.Register(commandsTotal)
		_ = prometheus.Register(commandDuration)
		_ = prometheus.Register(fetchAttempts)
		_ = prometheus.Register(chartCaptures)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveCommand records one finished command.
func ObserveCommand(command, outcome string, took time.Duration) {
	Init()
	commandsTotal.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(took.Seconds())
}

// ObserveFetchAttempt records one outbound HTTP attempt; outcome is "ok" or a failure kind.
func ObserveFetchAttempt(outcome string) {
	Init()
	fetchAttempts.WithLabelValues(outcome).Inc()
}

// ObserveChartCapture records one screenshot; result is "complete", "short" or "error".
func ObserveChartCapture(result string) {
	Init()
	chartCaptures.WithLabelValues(result).Inc()
}
