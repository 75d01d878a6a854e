package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "registrar/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit event publishing.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Sampled         prometheus.Counter
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
	SinkFailures    prometheus.Counter
}

// NewMetrics creates a Metrics instance with audit metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_audit_emitted_total",
			Help: "Total number of audit events accepted for delivery, by category",
		}, []string{"category"}),
		Sampled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_audit_sampled_total",
			Help: "Total number of operations audit events dropped by sampling",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_audit_dropped_total",
			Help: "Total number of audit events dropped because the async buffer was full",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_audit_persist_failures_total",
			Help: "Total number of audit event store write failures",
		}),
		SinkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_audit_sink_failures_total",
			Help: "Total number of audit event sink mirror failures",
		}),
	}
}

// IncEmitted increments the emitted counter for a category.
func (m *Metrics) IncEmitted(category audit.EventCategory) {
	m.Emitted.WithLabelValues(string(category)).Inc()
}

// IncSampled increments the sampled counter.
func (m *Metrics) IncSampled() {
	m.Sampled.Inc()
}

// IncDropped increments the buffer-full drop counter.
func (m *Metrics) IncDropped() {
	m.Dropped.Inc()
}

// IncPersistFailures increments the store failure counter.
func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// IncSinkFailures increments the sink failure counter.
func (m *Metrics) IncSinkFailures() {
	m.SinkFailures.Inc()
}
