package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for invoice generation.
type Metrics struct {
	// Generation attempts by format and terminal state
	Generations *prometheus.CounterVec

	// Collaborator failures by collaborator
	CollaboratorFailures *prometheus.CounterVec

	// Validation findings by format and kind (error, warning)
	ValidationFindings *prometheus.CounterVec

	// Full generation latency
	GenerateLatency prometheus.Histogram
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "einvoice_generations_total",
			Help: "Total generation attempts by format and terminal state",
		}, []string{"format", "state"}),

		CollaboratorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "einvoice_collaborator_failures_total",
			Help: "Failed calls to external collaborators",
		}, []string{"collaborator"}), // collaborator: "signature", "store", "transmission", "settings"

		ValidationFindings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "einvoice_validation_findings_total",
			Help: "Structural validation findings by format and kind",
		}, []string{"format", "kind"}),

		GenerateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "einvoice_generate_duration_seconds",
			Help:    "Duration of a full generation attempt including collaborator calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementGeneration records a finished generation attempt.
func (m *Metrics) IncrementGeneration(format, state string) {
	if m != nil {
		m.Generations.WithLabelValues(format, state).Inc()
	}
}

// IncrementCollaboratorFailure records a failed collaborator call.
func (m *Metrics) IncrementCollaboratorFailure(collaborator string) {
	if m != nil {
		m.CollaboratorFailures.WithLabelValues(collaborator).Inc()
	}
}

// AddValidationFindings records the findings of one validation.
func (m *Metrics) AddValidationFindings(format string, errors, warnings int) {
	if m != nil {
		m.ValidationFindings.WithLabelValues(format, "error").Add(float64(errors))
		m.ValidationFindings.WithLabelValues(format, "warning").Add(float64(warnings))
	}
}

// ObserveGenerateLatency records the total generation duration.
func (m *Metrics) ObserveGenerateLatency(d time.Duration) {
	if m != nil {
		m.GenerateLatency.Observe(d.Seconds())
	}
}
