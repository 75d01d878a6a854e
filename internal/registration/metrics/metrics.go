package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	// Certificate numbers assigned, by book numeral
	Assigned *prometheus.CounterVec

	// Assignments rejected because the number was already taken
	DuplicatesRejected prometheus.Counter

	// Live-preview encodes, split by whether the form was complete
	Previews *prometheus.CounterVec

	// Verification decodes by detected format and outcome
	Verifications *prometheus.CounterVec

	// Decodes that degraded to the defaults value
	DecodeDefaults prometheus.Counter

	// Full assignment latency including the duplicate check and store write
	AssignLatency prometheus.Histogram
}

// New creates a Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		Assigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_numbers_assigned_total",
			Help: "Total certificate numbers assigned, by book numeral",
		}, []string{"book"}),

		DuplicatesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_duplicates_rejected_total",
			Help: "Total assignment attempts rejected because the number was already assigned",
		}),

		Previews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_previews_total",
			Help: "Total live-preview encodes, by completeness of the form",
		}, []string{"complete"}),

		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_verifications_total",
			Help: "Total verification decodes by detected format and outcome",
		}, []string{"format", "outcome"}), // outcome: "registered", "unregistered", "defaulted"

		DecodeDefaults: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_decode_defaults_total",
			Help: "Total decodes that absorbed malformed input into the defaults value",
		}),

		AssignLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_assign_duration_seconds",
			Help:    "Duration of number assignment including duplicate check and persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementAssigned records a successful assignment.
func (m *Metrics) IncrementAssigned(book string) {
	if m != nil {
		m.Assigned.WithLabelValues(book).Inc()
	}
}

// IncrementDuplicateRejected records an assignment refused as a duplicate.
func (m *Metrics) IncrementDuplicateRejected() {
	if m != nil {
		m.DuplicatesRejected.Inc()
	}
}

// IncrementPreview records a live-preview encode.
func (m *Metrics) IncrementPreview(complete bool) {
	if m != nil {
		label := "false"
		if complete {
			label = "true"
		}
		m.Previews.WithLabelValues(label).Inc()
	}
}

// IncrementVerification records a verification decode.
func (m *Metrics) IncrementVerification(format, outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(format, outcome).Inc()
	}
}

// IncrementDecodeDefaulted records a decode that fell back to defaults.
func (m *Metrics) IncrementDecodeDefaulted() {
	if m != nil {
		m.DecodeDefaults.Inc()
	}
}

// ObserveAssignLatency records the duration of a full assignment.
func (m *Metrics) ObserveAssignLatency(d time.Duration) {
	if m != nil {
		m.AssignLatency.Observe(d.Seconds())
	}
}
