package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the stock ledger collectors.
	Registry = prometheus.NewRegistry()

	adjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "adjustments_total",
			Help:      "Stock adjustments by outcome.",
		},
		[]string{"outcome"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "registrations_total",
			Help:      "Successful user and product registrations.",
		},
		[]string{"kind"},
	)

	storeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "store_failures_total",
			Help:      "Key-value store reads or writes that failed and were recovered locally.",
		},
		[]string{"key", "op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		adjustments,
		registrations,
		storeFailures,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordAdjustment(outcome string) {
	adjustments.WithLabelValues(outcome).Inc()
}

func RecordRegistration(kind string) {
	registrations.WithLabelValues(kind).Inc()
}

// RecordStoreFailure counts a swallowed store error. op is "load" or "save".
func RecordStoreFailure(key, op string) {
	storeFailures.WithLabelValues(key, op).Inc()
}
