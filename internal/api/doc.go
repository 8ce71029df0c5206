// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

/*
Package api serves the read-only admin HTTP interface of the audit service.

Routes:

	GET /api/v1/health/live        process liveness, always 200
	GET /api/v1/health             health records; 503 when overall status is WARN
	GET /api/v1/audit/stats        service state, vault size and queue depth
	GET /api/v1/audit/events       the event catalog and which codes are permitted
	GET /api/v1/audit/vault.csv    vault export; ?lang=de&header=false
	GET /metrics                   Prometheus exposition

JSON bodies use the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}

Every request gets an X-Request-ID (incoming values are kept) which is also
attached to the request context as the logging correlation ID.
*/
package api
