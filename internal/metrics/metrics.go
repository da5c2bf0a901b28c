// internal/metrics/metrics.go
// Package metrics defines the Prometheus instruments used across the service.
// Registration is idempotent so packages can be constructed more than once
// in tests without duplicate-collector panics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the Prometheus collectors for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal        *prometheus.CounterVec
	CacheMissesTotal      *prometheus.CounterVec
	CacheDegradedTotal    *prometheus.CounterVec
	CacheInvalidatedTotal *prometheus.CounterVec

	// Domain metrics
	ProfileDecisionsTotal  *prometheus.CounterVec
	DocumentDecisionsTotal *prometheus.CounterVec
	PurchasesTotal         *prometheus.CounterVec
	EventsPublishedTotal   *prometheus.CounterVec
}

// New creates the set of collectors on the given registerer. Collectors that
// already exist on the registerer are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_http_requests_total",
			Help: "Total number of HTTP requests by route, method, and status code.",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notes_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_cache_hits_total",
			Help: "Cache hits by key family.",
		}, []string{"family"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_cache_misses_total",
			Help: "Cache misses by key family.",
		}, []string{"family"}),
		CacheDegradedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_cache_degraded_total",
			Help: "Cache operations that fell through because the cache was unavailable.",
		}, []string{"op"}),
		CacheInvalidatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_cache_invalidated_total",
			Help: "Cache keys invalidated after durable writes.",
		}, []string{"family"}),
		ProfileDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_profile_decisions_total",
			Help: "Contributor profile decisions by outcome.",
		}, []string{"outcome"}),
		DocumentDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_document_decisions_total",
			Help: "Document publish decisions by outcome.",
		}, []string{"outcome"}),
		PurchasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_purchases_total",
			Help: "Purchase confirmations by result.",
		}, []string{"result"}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_events_published_total",
			Help: "Domain events published by type.",
		}, []string{"type"}),
	}

	m.HTTPRequestsTotal = registerOrGetCounterVec(reg, m.HTTPRequestsTotal)
	m.HTTPRequestDuration = registerOrGetHistogramVec(reg, m.HTTPRequestDuration)
	m.CacheHitsTotal = registerOrGetCounterVec(reg, m.CacheHitsTotal)
	m.CacheMissesTotal = registerOrGetCounterVec(reg, m.CacheMissesTotal)
	m.CacheDegradedTotal = registerOrGetCounterVec(reg, m.CacheDegradedTotal)
	m.CacheInvalidatedTotal = registerOrGetCounterVec(reg, m.CacheInvalidatedTotal)
	m.ProfileDecisionsTotal = registerOrGetCounterVec(reg, m.ProfileDecisionsTotal)
	m.DocumentDecisionsTotal = registerOrGetCounterVec(reg, m.DocumentDecisionsTotal)
	m.PurchasesTotal = registerOrGetCounterVec(reg, m.PurchasesTotal)
	m.EventsPublishedTotal = registerOrGetCounterVec(reg, m.EventsPublishedTotal)
	return m
}

func registerOrGetCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if asAlreadyRegistered(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}

func registerOrGetHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if asAlreadyRegistered(err, &are) {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	return h
}

func asAlreadyRegistered(err error, target *prometheus.AlreadyRegisteredError) bool {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		*target = are
		return true
	}
	return false
}
