// Package observability provides Prometheus metrics for the content
// pipeline: upstream call counts per content kind and cache hit/miss
// counters. The upstream counter doubles as the call-count
// instrumentation the content service tests assert against.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the content pipeline counters.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
}

// NewMetrics registers the counters with reg. Tests pass a fresh
// prometheus.NewRegistry to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gtahub_upstream_requests_total",
			Help: "Upstream content API calls issued, by content kind.",
		}, []string{"kind"}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gtahub_upstream_errors_total",
			Help: "Upstream content API calls that failed, by content kind.",
		}, []string{"kind"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gtahub_cache_hits_total",
			Help: "Response cache hits served without an upstream call, by content kind.",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gtahub_cache_misses_total",
			Help: "Response cache misses (absent or stale), by content kind.",
		}, []string{"kind"}),
	}
}
