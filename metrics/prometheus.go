// Package metrics provides a Prometheus-backed implementation of the cache's
// Metrics interface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics counts cache events as Prometheus counters. It satisfies
// types.Metrics.
type CacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	removals  prometheus.Counter
}

// New creates and registers the cache counters with the provided registry.
func New(reg prometheus.Registerer) *CacheMetrics {
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodecache_hits_total",
		Help: "Total cache hits",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodecache_misses_total",
		Help: "Total cache misses",
	})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodecache_evictions_total",
		Help: "Total entries evicted under capacity or memory pressure",
	})
	removals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodecache_removals_total",
		Help: "Total entries removed explicitly (remove, invalidation, clear)",
	})

	reg.MustRegister(hits, misses, evictions, removals)

	return &CacheMetrics{
		hits:      hits,
		misses:    misses,
		evictions: evictions,
		removals:  removals,
	}
}

func (m *CacheMetrics) Hit()      { m.hits.Inc() }
func (m *CacheMetrics) Miss()     { m.misses.Inc() }
func (m *CacheMetrics) Eviction() { m.evictions.Inc() }
func (m *CacheMetrics) Removal()  { m.removals.Inc() }
