// Package metrics exposes service counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "delegate"

// Metrics implements registry.Metrics and credential.Metrics on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	ledgerWrites       *prometheus.CounterVec
	ledgerWriteSeconds *prometheus.HistogramVec
	ledgerReads        *prometheus.CounterVec
	ledgerReadSeconds  *prometheus.HistogramVec

	credentialsIssued   *prometheus.CounterVec
	credentialIssueTime prometheus.Histogram
	verifications       *prometheus.CounterVec

	kvPurged prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ledgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "writes_total",
			Help:      "Registry write transactions by method and outcome.",
		}, []string{"method", "outcome"}),
		ledgerWriteSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "write_duration_seconds",
			Help:      "Time from submission to finality, including the wait for the sender lock.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 15, 30, 60, 120},
		}, []string{"method"}),
		ledgerReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reads_total",
			Help:      "Registry queries by method and outcome.",
		}, []string{"method", "outcome"}),
		ledgerReadSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "read_duration_seconds",
			Help:      "Registry query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		credentialsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credential",
			Name:      "issued_total",
			Help:      "Credential issue attempts by outcome.",
		}, []string{"outcome"}),
		credentialIssueTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "credential",
			Name:      "issue_duration_seconds",
			Help:      "Credential issue latency, dominated by the signing call.",
			Buckets:   prometheus.DefBuckets,
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credential",
			Name:      "verifications_total",
			Help:      "Credential verifications by result.",
		}, []string{"valid"}),
		kvPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "purged_total",
			Help:      "Expired session entries removed by housekeeping.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ledgerWrites,
		m.ledgerWriteSeconds,
		m.ledgerReads,
		m.ledgerReadSeconds,
		m.credentialsIssued,
		m.credentialIssueTime,
		m.verifications,
		m.kvPurged,
	)
	return m
}

func (m *Metrics) ObserveWrite(method, outcome string, d time.Duration) {
	m.ledgerWrites.WithLabelValues(method, outcome).Inc()
	m.ledgerWriteSeconds.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) ObserveRead(method, outcome string, d time.Duration) {
	m.ledgerReads.WithLabelValues(method, outcome).Inc()
	m.ledgerReadSeconds.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) ObserveIssue(outcome string, d time.Duration) {
	m.credentialsIssued.WithLabelValues(outcome).Inc()
	m.credentialIssueTime.Observe(d.Seconds())
}

func (m *Metrics) ObserveVerify(valid bool) {
	m.verifications.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

func (m *Metrics) ObservePurged(n int64) {
	if n > 0 {
		m.kvPurged.Add(float64(n))
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
