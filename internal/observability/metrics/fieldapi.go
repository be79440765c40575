package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// FieldAPIMetrics tracks calls to the collaborator API.
type FieldAPIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	membersCache    *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewFieldAPIMetrics creates and registers the collaborator API metrics.
func NewFieldAPIMetrics(registry *prometheus.Registry) (*FieldAPIMetrics, error) {
	m := &FieldAPIMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register field API metrics: %w", err)
	}
	return m, nil
}

func (m *FieldAPIMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldapi_requests_total",
			Help: "Total number of collaborator API requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldapi_request_duration_seconds",
			Help:    "Round trip time of collaborator API requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldapi_errors_total",
			Help: "Total number of collaborator API errors by category",
		},
		[]string{"operation", "error_type"},
	)

	m.membersCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldapi_members_cache_total",
			Help: "Member list lookups by cache result",
		},
		[]string{"result"},
	)
}

// RecordOperation implements Recorder.
func (m *FieldAPIMetrics) RecordOperation(operation, status string) {
	m.requestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *FieldAPIMetrics) RecordDuration(operation string, seconds float64) {
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *FieldAPIMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordCacheResult counts a member list lookup as hit, miss or shared.
func (m *FieldAPIMetrics) RecordCacheResult(result string) {
	m.membersCache.WithLabelValues(result).Inc()
}

// Describe implements prometheus.Collector.
func (m *FieldAPIMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.membersCache.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *FieldAPIMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.membersCache.Collect(ch)
}
