// Package metrics exposes the Prometheus collectors for the lead pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesCrawled tracks the number of listing pages visited.
	PagesCrawled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadharvest_pages_crawled_total",
		Help: "The total number of listing pages visited.",
	})
	// RecordsExtracted tracks the number of job records pulled from listing pages.
	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadharvest_records_extracted_total",
		Help: "The total number of job records extracted from listing pages.",
	})
	// CacheHits tracks contact lookups served from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadharvest_cache_hits_total",
		Help: "The total number of contact lookups served from the cache.",
	})
	// CacheMisses tracks contact lookups that had to go to the provider.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadharvest_cache_misses_total",
		Help: "The total number of contact lookups not found in the cache.",
	})
	// ProviderCalls tracks outbound calls per external provider.
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadharvest_provider_calls_total",
		Help: "The total number of calls to external providers.",
	}, []string{"provider"})
	// EnrichmentDuration observes the wall time of a single company enrichment.
	EnrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadharvest_enrichment_duration_seconds",
		Help:    "The wall time spent enriching a single company.",
		Buckets: prometheus.DefBuckets,
	})
	// SessionsSaved tracks the number of completed search sessions persisted.
	SessionsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadharvest_sessions_saved_total",
		Help: "The total number of search sessions persisted.",
	})
)
