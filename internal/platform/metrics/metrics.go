package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP level Prometheus metrics for the application.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// New creates and registers all HTTP Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodia_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
	}
}

// ObserveRequest records a completed request. Safe to call on a nil receiver
// so handlers can run without a metrics registry.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
