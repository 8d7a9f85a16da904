package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TasksCreated       prometheus.Counter
	AuditRecordsTotal  *prometheus.CounterVec
	AuthFailures       prometheus.Counter
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_tasks_created_total",
			Help: "Total number of tasks created",
		}),
		AuditRecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_audit_records_total",
			Help: "Audit records written, labeled by operation",
		}, []string{"operation"}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_auth_failures_total",
			Help: "Failed login attempts",
		}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementAuditRecords increments the audit counter for an operation kind.
func (m *Metrics) IncrementAuditRecords(operation string) {
	if m == nil {
		return
	}
	m.AuditRecordsTotal.WithLabelValues(operation).Inc()
}

// IncrementTasksCreated increments the tasks created counter by 1.
func (m *Metrics) IncrementTasksCreated() {
	if m == nil {
		return
	}
	m.TasksCreated.Inc()
}

// IncrementAuthFailures increments the failed login counter by 1.
func (m *Metrics) IncrementAuthFailures() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}
