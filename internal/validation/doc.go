// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide (it caches struct
// metadata) and carries two domain validators:
//
//   - eventcode: the string is an audit catalog code, or "ALL"
//   - syslogtarget: the string parses as "protocol,host,port"
//
// Errors are translated to short human-readable messages:
//
//	type ExportRequest struct {
//	    Lang string `validate:"omitempty,bcp47_language_tag"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
//	}
package validation
