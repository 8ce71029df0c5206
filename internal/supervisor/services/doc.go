// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package services adapts long-running components to suture.Service.
//
// LifecycleService wraps anything with Start(ctx)/Stop() methods, such as
// the vault trimmer and the delivery queue worker. HTTPServerService wraps
// an *http.Server with graceful shutdown.
package services
