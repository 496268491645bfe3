package cleanup

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records housekeeping passes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	passesTotal   *prometheus.CounterVec
	entriesTotal  *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	lastSuccessTS *prometheus.GaugeVec
}

// NewMetrics creates the housekeeping metrics and registers them with reg,
// or with the default registerer when reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_total",
				Help:      "Total number of housekeeping passes",
			},
			[]string{"mode", "status"},
		),
		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_total",
				Help:      "Entries examined by housekeeping passes, by outcome",
			},
			[]string{"mode", "outcome"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of housekeeping passes",
				Buckets:   []float64{.001, .01, .1, .5, 1, 5, 30, 120},
			},
			[]string{"mode"},
		),
		lastSuccessTS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful pass",
			},
			[]string{"mode"},
		),
	}

	reg.MustRegister(
		m.passesTotal,
		m.entriesTotal,
		m.passDuration,
		m.lastSuccessTS,
	)

	return m
}

// ObservePass records the outcome of one pass.
func (m *Metrics) ObservePass(mode Mode, stats Stats, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	label := string(mode)

	m.passesTotal.WithLabelValues(label, status).Inc()
	m.passDuration.WithLabelValues(label).Observe(stats.Duration.Seconds())

	m.entriesTotal.WithLabelValues(label, "acted").Add(float64(stats.Acted))
	m.entriesTotal.WithLabelValues(label, string(ReasonDefaultIgnore)).Add(float64(stats.SkippedDefault))
	m.entriesTotal.WithLabelValues(label, string(ReasonPattern)).Add(float64(stats.SkippedPattern))
	m.entriesTotal.WithLabelValues(label, string(ReasonTooYoung)).Add(float64(stats.SkippedAge))

	if err == nil {
		m.lastSuccessTS.WithLabelValues(label).SetToCurrentTime()
	}
}
