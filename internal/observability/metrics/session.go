package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks the page containers: collection sizes, sidebar
// transitions and creation outcomes.
type SessionMetrics struct {
	collectionSize *prometheus.GaugeVec
	transitions    *prometheus.CounterVec
	submissions    *prometheus.CounterVec
}

// NewSessionMetrics creates and registers the page container metrics.
func NewSessionMetrics(registry *prometheus.Registry) (*SessionMetrics, error) {
	m := &SessionMetrics{
		collectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "session_collection_records",
				Help: "Number of records held per page and kind",
			},
			[]string{"page", "kind"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_sidebar_transitions_total",
				Help: "Sidebar events by type and whether they were accepted",
			},
			[]string{"event", "result"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_submissions_total",
				Help: "Creation form submissions by kind and outcome",
			},
			[]string{"kind", "status"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register session metrics: %w", err)
	}
	return m, nil
}

// SetCollectionSize records the current size of one collection.
func (m *SessionMetrics) SetCollectionSize(page, kind string, n int) {
	m.collectionSize.WithLabelValues(page, kind).Set(float64(n))
}

// RecordTransition counts a sidebar event. accepted is false when the
// machine rejected it.
func (m *SessionMetrics) RecordTransition(event string, accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.transitions.WithLabelValues(event, result).Inc()
}

// RecordSubmission counts a creation attempt.
func (m *SessionMetrics) RecordSubmission(kind, status string) {
	m.submissions.WithLabelValues(kind, status).Inc()
}

// Describe implements prometheus.Collector.
func (m *SessionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.collectionSize.Describe(ch)
	m.transitions.Describe(ch)
	m.submissions.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *SessionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.collectionSize.Collect(ch)
	m.transitions.Collect(ch)
	m.submissions.Collect(ch)
}
