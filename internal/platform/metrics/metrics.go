package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics. Feature packages register
// their own metrics next to their services.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates and registers all process-wide Prometheus metrics
func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route pattern and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		HTTPInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPInFlight.Inc()
	return m.HTTPInFlight.Dec
}
