package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "coastal_alerts"

// Metrics holds the Prometheus counters, histograms, and gauges for alert passes.
type Metrics struct {
	RowsEvaluated         prometheus.Counter
	AlertsTriggered       *prometheus.CounterVec // labels: group, tier
	DispatchAttempts      *prometheus.CounterVec // labels: channel, outcome={success,failure}
	RecipientLookupErrors prometheus.Counter
	Passes                *prometheus.CounterVec // labels: outcome={success,failure}
	PassDuration          prometheus.Histogram
	LastSuccessTimestamp  prometheus.Gauge
	ReportPublishErrors   *prometheus.CounterVec // labels: publisher
	SchedulerRunning      prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_evaluated_total",
			Help:      "Total metric rows run through the rule engine.",
		}),
		AlertsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Advisories triggered by rule group and tier.",
		}, []string{"group", "tier"}),
		DispatchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_attempts_total",
			Help:      "Outbound message attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		RecipientLookupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipient_lookup_errors_total",
			Help:      "Recipient lookups that failed, skipping the alert.",
		}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed passes by outcome.",
		}, []string{"outcome"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a complete fetch-evaluate-dispatch pass.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pass.",
		}),
		ReportPublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Alert report publish failures by publisher.",
		}, []string{"publisher"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the daily scheduler is active, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsEvaluated,
		m.AlertsTriggered,
		m.DispatchAttempts,
		m.RecipientLookupErrors,
		m.Passes,
		m.PassDuration,
		m.LastSuccessTimestamp,
		m.ReportPublishErrors,
		m.SchedulerRunning,
	}
}

// Push sends the default registry to a Prometheus Pushgateway. One-shot runs
// exit before a scrape could happen, so they push instead.
func Push(url string) error {
	return push.New(url, namespace).Gatherer(prometheus.DefaultGatherer).Push()
}
