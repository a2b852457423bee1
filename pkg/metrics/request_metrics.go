// Taken from https://github.com/zsais/go-gin-prometheus/blob/master/middleware.go, didn't need all the bells
// and whistles, all props goes to @zsais

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var reqCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "media_gateway_http_requests_total",
	Help: "How many HTTP requests processed, partitioned by status code and HTTP method",
}, []string{"code", "method", "url"})

var reqDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "media_gateway_http_request_duration_seconds",
	Help:    "The HTTP request latencies in seconds",
	Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
}, []string{"code", "method", "url"})

var respSize = prometheus.NewSummary(prometheus.SummaryOpts{
	Name: "media_gateway_http_response_size_bytes",
	Help: "The HTTP response sizes in bytes",
})

var reqSize = prometheus.NewSummary(prometheus.SummaryOpts{
	Name: "media_gateway_http_request_size_bytes",
	Help: "The HTTP request sizes in bytes",
})

func init() {
	prometheus.MustRegister(reqCount, reqDur, respSize, reqSize)
}

// requestPathMapper labels requests by route so unmatched paths can't blow up
// label cardinality.
func requestPathMapper(c *gin.Context) string {
	if url := c.FullPath(); url != "" {
		return url
	}
	return "unmatched"
}

func PromReqMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqSz := float64(computeApproximateRequestSize(c.Request))

		c.Next()

		if c.Request.URL.Path == "/healthz" {
			return
		}

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Second)
		resSz := float64(c.Writer.Size())

		url := requestPathMapper(c)
		reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		reqCount.WithLabelValues(status, c.Request.Method, url).Inc()
		reqSize.Observe(reqSz)
		if resSz > 0 {
			respSize.Observe(resSz)
		}
	}
}

func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}

	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)

	// N.B. r.Form and r.MultipartForm are assumed to be included in r.URL.

	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
