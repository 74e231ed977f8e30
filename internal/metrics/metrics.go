package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inspection"

// Metrics holds the service's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Submitted          *prometheus.CounterVec
	DraftsSaved        prometheus.Counter
	ValidationFailures prometheus.Counter
	DraftConflicts     prometheus.Counter
	Exports            *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_total",
			Help:      "Completed inspections by cavad result.",
		}, []string{"result"}),
		DraftsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_saved_total",
			Help:      "Draft saves, including repeated saves of the same draft.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Submissions rejected for missing required fields.",
		}),
		DraftConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_conflicts_total",
			Help:      "Saves rejected because a device was held by another draft.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Generated exports by format.",
		}, []string{"format"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_notifications_total",
			Help:      "Web push deliveries by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submitted,
		m.DraftsSaved,
		m.ValidationFailures,
		m.DraftConflicts,
		m.Exports,
		m.Notifications,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveSubmit(passed bool) {
	if m == nil {
		return
	}
	result := "passed"
	if !passed {
		result = "failed"
	}
	m.Submitted.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDraft() {
	if m != nil {
		m.DraftsSaved.Inc()
	}
}

func (m *Metrics) ObserveValidationFailure() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}

func (m *Metrics) ObserveDraftConflict() {
	if m != nil {
		m.DraftConflicts.Inc()
	}
}

func (m *Metrics) ObserveExport(format string) {
	if m != nil {
		m.Exports.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) ObserveNotification(outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(outcome).Inc()
	}
}
