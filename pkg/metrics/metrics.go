package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache effectiveness per feed ("fx" or "crypto")
var (
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxcrypto_cache_hits_total",
			Help: "Number of requests served from the TTL cache",
		},
		[]string{"feed"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxcrypto_cache_misses_total",
			Help: "Number of requests that required an upstream fetch",
		},
		[]string{"feed"},
	)
)

// Upstream call volume and failures per provider ("rates" or "prices")
var (
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxcrypto_upstream_requests_total",
			Help: "Number of HTTP requests issued to upstream providers",
		},
		[]string{"provider"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxcrypto_upstream_errors_total",
			Help: "Number of upstream requests that failed or returned unusable data",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(CacheHits, CacheMisses)
	prometheus.MustRegister(UpstreamRequests, UpstreamErrors)
}
