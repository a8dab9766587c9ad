// Package monitoring exposes Prometheus counters for geocoding, enrichment
// and merge activity.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome and action label values.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"

	ActionUpdated  = "updated"
	ActionAppended = "appended"
	ActionDeleted  = "deleted"
)

// Metrics holds the process counters. A nil *Metrics is valid and records
// nothing, so library callers can skip instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	geocodeRequests *prometheus.CounterVec
	cacheHits       prometheus.Counter
	enrichRows      *prometheus.CounterVec
	mergeRows       *prometheus.CounterVec
}

// NewMetrics registers the counters on a fresh registry along with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmgeo_geocode_requests_total",
			Help: "Geocoding service calls by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crmgeo_geocode_cache_hits_total",
			Help: "Geocode lookups answered from the cache.",
		}),
		enrichRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmgeo_enrich_rows_total",
			Help: "Rows processed by enrichment runs by outcome.",
		}, []string{"outcome"}),
		mergeRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmgeo_merge_rows_total",
			Help: "Rows touched by merges by action.",
		}, []string{"action"}),
	}
	m.registry.MustRegister(
		m.geocodeRequests,
		m.cacheHits,
		m.enrichRows,
		m.mergeRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GeocodeRequest counts one call to the geocoding service.
func (m *Metrics) GeocodeRequest(matched bool) {
	if m == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(outcome(matched)).Inc()
}

// CacheHit counts one lookup served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// EnrichRow counts one row processed by an enrichment run.
func (m *Metrics) EnrichRow(matched bool) {
	if m == nil {
		return
	}
	m.enrichRows.WithLabelValues(outcome(matched)).Inc()
}

// MergeRows adds n rows for action.
func (m *Metrics) MergeRows(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mergeRows.WithLabelValues(action).Add(float64(n))
}

func outcome(matched bool) string {
	if matched {
		return OutcomeResolved
	}
	return OutcomeUnresolved
}
