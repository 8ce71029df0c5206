// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package format

import (
	"github.com/tomtom215/audittrail/internal/audit"
)

// JSONFormatter emits "<AppName> " followed by the stored JSON form of the record.
type JSONFormatter struct {
	prefix string
	maxLen int
	marker string
}

// NewJSON creates a JSON formatter.
func NewJSON(cfg Config, meta Metadata) *JSONFormatter {
	prefix := ""
	if meta.AppName != "" {
		prefix = meta.AppName + " "
	}
	return &JSONFormatter{
		prefix: prefix,
		maxLen: cfg.MaxMessageLength,
		marker: cfg.TruncationMarker,
	}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(r *audit.Record) (string, error) {
	return fit(r, f.maxLen, f.marker, f.render)
}

func (f *JSONFormatter) render(r *audit.Record) (string, error) {
	data, err := audit.Marshal(r)
	if err != nil {
		return "", err
	}
	return f.prefix + string(data), nil
}
