package goserdes

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics bundles the registry/cache instrumentation for one handle. A
// handle built without a Registerer gets a metrics value backed by
// freestanding (unregistered) collectors, so every call site can record
// unconditionally without a nil check.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheEntries    prometheus.Gauge
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	schemasPurged   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serdes_registry_requests_total",
			Help: "Schema registry HTTP requests by method and outcome.",
		}, []string{"method", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "serdes_registry_request_duration_seconds",
			Help: "Schema registry HTTP request latency by method.",
		}, []string{"method"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serdes_cache_entries",
			Help: "Number of schema entries currently cached.",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serdes_cache_hits_total",
			Help: "Cache lookups served without a registry round trip, by kind.",
		}, []string{"kind"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serdes_cache_misses_total",
			Help: "Cache lookups that required a registry round trip, by kind.",
		}, []string{"kind"}),
		schemasPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serdes_schemas_purged_total",
			Help: "Schema entries removed by age-based purge.",
		}),
	}
	if reg != nil {
		// Registration failures (duplicate registration against a shared
		// registry) are not fatal to the handle; the collectors still
		// work standalone, they just won't be scraped twice.
		_ = reg.Register(m.requestsTotal)
		_ = reg.Register(m.requestDuration)
		_ = reg.Register(m.cacheEntries)
		_ = reg.Register(m.cacheHits)
		_ = reg.Register(m.cacheMisses)
		_ = reg.Register(m.schemasPurged)
	}
	return m
}
