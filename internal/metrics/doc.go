// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

/*
Package metrics provides shared Prometheus metrics and the Statistics sink
used by the audit service.

# Metrics Endpoint

Metrics are exposed by the admin API at /metrics in Prometheus text format:

	curl http://localhost:8514/metrics

# Available Metrics

Audit Service:
  - audit_records_submitted_total: Accepted records (counter)
    Labels: category, event_code
  - audit_records_rejected_total: Ignored records (counter)
    Labels: reason (closed, invalid, not_permitted)
  - audit_sink_failures_total: Failed hand-offs (counter)
    Labels: sink (vault, syslog, email, history, format)
  - audit_service_open: 1 while the service accepts records (gauge)
  - audit_statistics_total: Named statistics (counter)
    Labels: name

Syslog and Email:
  - audit_syslog_sends_total: Send attempts per target (counter)
    Labels: target, result (success, failure, rejected)
  - audit_syslog_send_duration_seconds: Send latency (histogram)
  - audit_email_sends_total: Alert email outcomes (counter)
    Labels: result (success, failure, throttled)

Circuit Breaker:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

HTTP:
  - api_requests_total, api_request_duration_seconds, api_active_requests

The vault (audit_vault_*) and delivery queue (audit_queue_*) packages register
their own metrics.

# Usage Example

	stats := metrics.NewPrometheusStatistics()
	stats.Increment(metrics.StatAuditEvents)

	metrics.RecordSyslogSend("tcp,collector,601", "success", 4*time.Millisecond)

# Prometheus Alerting Rules

	groups:
	  - name: audittrail
	    rules:
	      - alert: AuditSyslogFailing
	        expr: rate(audit_syslog_sends_total{result="failure"}[5m]) > 0
	        for: 10m
	        annotations:
	          summary: "Syslog target {{ $labels.target }} is failing"

	      - alert: AuditQueueBacklog
	        expr: audit_queue_depth > 500
	        for: 15m
*/
package metrics
