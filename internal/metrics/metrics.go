package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts platform API calls by resource and outcome
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Platform API requests issued by the gateway",
	}, []string{"resource", "method", "outcome"})

	// UpstreamDuration observes platform API call latency
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_upstream_request_duration_seconds",
		Help:    "Platform API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "method"})

	// CacheHits counts query cache hits by resource
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_cache_hits_total",
		Help: "Query cache hits",
	}, []string{"resource"})

	// CacheMisses counts query cache misses by resource
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_cache_misses_total",
		Help: "Query cache misses",
	}, []string{"resource"})

	// FallbackActivations counts pages rendered from demo defaults
	FallbackActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_fallback_activations_total",
		Help: "Page renders served from fallback default data",
	}, []string{"resource"})
)
