// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package auditsvc

import (
	"fmt"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/mailer"
	"github.com/tomtom215/audittrail/internal/supervisor"
)

// Settings is the resolved, read-only service configuration.
type Settings struct {
	// AppName is used in CSV comments and alert subjects.
	AppName string
	// InstanceID identifies this process in SYSTEM records.
	InstanceID string
	// ReadOnly keeps the service CLOSED; submissions are discarded.
	ReadOnly bool

	// PermittedEvents lists the codes that are recorded. Others are ignored.
	PermittedEvents []audit.EventCode

	// AlertFrom enables alert email when set.
	AlertFrom string
	// SystemAlertTo receives SYSTEM events; UserAlertTo receives USER and HELPDESK events.
	SystemAlertTo []string
	UserAlertTo   []string

	// SyslogErrorWindow is how long a delivery failure stays visible in Health.
	SyslogErrorWindow time.Duration
	// QueueBacklogWarning is the queue depth above which Health reports a backlog.
	QueueBacklogWarning int

	// Supervision configures the supervisor of the background services.
	Supervision supervisor.TreeConfig
}

// DefaultSettings returns settings with every catalog event permitted.
func DefaultSettings() Settings {
	return Settings{
		AppName:             "Audittrail",
		PermittedEvents:     audit.Codes(),
		SyslogErrorWindow:   30 * time.Minute,
		QueueBacklogWarning: 100,
		Supervision:         supervisor.DefaultTreeConfig(),
	}
}

// Validate checks event codes and alert addresses.
func (s *Settings) Validate() error {
	for _, code := range s.PermittedEvents {
		if _, ok := audit.Lookup(code); !ok {
			return &ConfigError{Field: "PermittedEvents", Message: fmt.Sprintf("unknown event code %q", code)}
		}
	}
	if s.AlertFrom != "" {
		if err := mailer.ValidateAddress(s.AlertFrom); err != nil {
			return &ConfigError{Field: "AlertFrom", Message: err.Error()}
		}
	}
	for _, addr := range append(append([]string(nil), s.SystemAlertTo...), s.UserAlertTo...) {
		if err := mailer.ValidateAddress(addr); err != nil {
			return &ConfigError{Field: "AlertTo", Message: err.Error()}
		}
	}
	if s.SyslogErrorWindow < 0 {
		return &ConfigError{Field: "SyslogErrorWindow", Message: "must not be negative"}
	}
	if s.QueueBacklogWarning < 0 {
		return &ConfigError{Field: "QueueBacklogWarning", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "audit service config error: " + e.Field + ": " + e.Message
}
