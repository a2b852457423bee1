package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_cache_lookups_total",
		Help: "Object cache lookups, partitioned by result (hit, miss, error)",
	}, []string{"result"})

	CacheFills = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_cache_fills_total",
		Help: "Cache population attempts, partitioned by outcome (stored, shared, origin_error, store_error)",
	}, []string{"outcome"})

	OriginFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_gateway_origin_fetch_duration_seconds",
		Help:    "Time spent fetching from an origin, partitioned by origin and status code (0 for network failures)",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"origin", "code"})

	SignatureFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_gateway_signature_failures_total",
		Help: "Requests rejected by capability token verification, partitioned by scheme",
	}, []string{"scheme"})
)

func init() {
	prometheus.MustRegister(CacheLookups, CacheFills, OriginFetchDuration, SignatureFailures)
}

func ObserveOriginFetch(origin string, code int, start time.Time) {
	OriginFetchDuration.WithLabelValues(origin, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}
