// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package main is the entry point for the Audittrail server.
//
// The server records security audit events into a durable local vault,
// forwards them to syslog collectors through a persistent delivery queue,
// sends alert mail and keeps per-user history.
//
// # Startup
//
//  1. Configuration: defaults, then config.yaml, then environment (koanf v2)
//  2. Components: localdb, vault, syslog client and queue, mailer, user history
//  3. Audit service: opened, then a STARTUP event is recorded
//  4. Supervisor tree: health monitor (audit layer) and admin HTTP API (api layer)
//
// Storage failures do not stop the process. The audit service stays CLOSED,
// health reports WARN and the admin API keeps serving.
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree, record a SHUTDOWN event, drain
// the syslog queue within its close timeout and close storage.
//
// # Example
//
//	export SYSLOG_TARGETS="tls,siem.example.com,6514"
//	export SYSLOG_OUTPUT_TYPE=cef
//	export STORAGE_PATH=/var/lib/audittrail/localdb
//	./audittrail
package main
