// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package metrics

import (
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Shared metrics. Component-specific metrics (vault, workqueue) live in their
// own packages next to the code that records them.
var (
	// Audit Service Metrics
	AuditRecordsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_submitted_total",
			Help: "Total number of audit records accepted by the audit service",
		},
		[]string{"category", "event_code"},
	)

	AuditRecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_rejected_total",
			Help: "Total number of audit records ignored by the audit service",
		},
		[]string{"reason"}, // "closed", "invalid", "not_permitted"
	)

	AuditSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_sink_failures_total",
			Help: "Total number of failed audit record hand-offs per sink",
		},
		[]string{"sink"}, // "vault", "syslog", "email", "history", "format"
	)

	AuditServiceOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_service_open",
			Help: "Whether the audit service is open (1) or closed (0)",
		},
	)

	// StatisticsCounter is the generic named counter behind the Statistics interface.
	StatisticsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_statistics_total",
			Help: "Named application statistics",
		},
		[]string{"name"},
	)

	// Syslog Transport Metrics
	SyslogSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_syslog_sends_total",
			Help: "Total number of syslog send attempts per target",
		},
		[]string{"target", "result"}, // result: "success", "failure", "rejected"
	)

	SyslogSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_syslog_send_duration_seconds",
			Help:    "Syslog send duration per target",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"target"},
	)

	// Alert Email Metrics
	EmailSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_email_sends_total",
			Help: "Total number of alert email send attempts",
		},
		[]string{"result"}, // "success", "failure", "throttled"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_start_time_seconds",
			Help: "Unix time at which the process started",
		},
	)
)

// RecordAuditSubmitted records an accepted audit record.
func RecordAuditSubmitted(category, eventCode string) {
	AuditRecordsSubmitted.WithLabelValues(category, eventCode).Inc()
}

// RecordAuditRejected records a record the service did not process.
func RecordAuditRejected(reason string) {
	AuditRecordsRejected.WithLabelValues(reason).Inc()
}

// RecordSinkFailure records a failed hand-off to one sink.
func RecordSinkFailure(sink string) {
	AuditSinkFailures.WithLabelValues(sink).Inc()
}

// SetServiceOpen reflects the audit service state.
func SetServiceOpen(open bool) {
	if open {
		AuditServiceOpen.Set(1)
	} else {
		AuditServiceOpen.Set(0)
	}
}

// RecordSyslogSend records one send attempt against a syslog target.
func RecordSyslogSend(target, result string, duration time.Duration) {
	SyslogSends.WithLabelValues(target, result).Inc()
	if result != "rejected" {
		SyslogSendDuration.WithLabelValues(target).Observe(duration.Seconds())
	}
}

// RecordEmailSend records an alert email outcome.
func RecordEmailSend(result string) {
	EmailSends.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetAppInfo publishes build information and the process start time.
func SetAppInfo(version string, started time.Time) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	AppStartTime.Set(float64(started.Unix()))
}

// Statistics is a sink for named event counters.
type Statistics interface {
	Increment(name string)
}

// Well-known statistic names.
const (
	StatAuditEvents  = "AUDIT_EVENTS"
	StatVaultWrites  = "AUDIT_VAULT_WRITES"
	StatSyslogEvents = "SYSLOG_MESSAGES_SENT"
	StatEmailsSent   = "AUDIT_EMAILS_SENT"
)

// PrometheusStatistics implements Statistics on the audit_statistics_total
// counter and keeps an in-process copy for reporting.
type PrometheusStatistics struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// NewPrometheusStatistics creates an empty statistics sink.
func NewPrometheusStatistics() *PrometheusStatistics {
	return &PrometheusStatistics{counts: make(map[string]uint64)}
}

// Increment adds one to the named statistic.
func (s *PrometheusStatistics) Increment(name string) {
	StatisticsCounter.WithLabelValues(name).Inc()
	s.mu.Lock()
	s.counts[name]++
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters recorded by this process.
func (s *PrometheusStatistics) Snapshot() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
