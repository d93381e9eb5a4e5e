// Package metrics holds the Prometheus collectors of the datasource service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sparqlds"

// Query statuses.
const (
	StatusSuccess = "success"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Metrics holds the collectors for validation and query execution. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	validationsTotal *prometheus.CounterVec
	queriesTotal     *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	gatherer         prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing a nil
// registry returns nil, which disables metrics.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of query validations by result",
			},
			[]string{"result"},
		),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of query executions by status",
			},
			[]string{"status"},
		),
		queryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of SPARQL requests against datasource endpoints",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.validationsTotal, m.queriesTotal, m.queryDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordValidation counts a validation outcome such as "valid" or "parse_error".
func (m *Metrics) RecordValidation(result string) {
	if m == nil {
		return
	}
	m.validationsTotal.WithLabelValues(result).Inc()
}

// RecordQuery counts a query by outcome.
func (m *Metrics) RecordQuery(status string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(status).Inc()
}

// ObserveQueryDuration records the round trip of a query sent to an
// endpoint. Queries that never left the executor are not observed.
func (m *Metrics) ObserveQueryDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
