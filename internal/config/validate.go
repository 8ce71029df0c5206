// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package config

import (
	"fmt"

	"github.com/tomtom215/audittrail/internal/validation"
)

// Validate checks struct tags first, then the rules each component owns,
// then cross-section rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	componentChecks := []struct {
		section string
		check   func() error
	}{
		{"storage", c.Storage.Validate},
		{"vault", c.Vault.Validate},
		{"syslog.transport", c.Syslog.Transport.Validate},
		{"syslog.queue", c.Syslog.Queue.Validate},
		{"history", c.validateHistory},
		{"alerts", c.validateAlerts},
		{"server", c.validateServer},
	}
	for _, cc := range componentChecks {
		if err := cc.check(); err != nil {
			return fmt.Errorf("%s: %w", cc.section, err)
		}
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required when HISTORY_ENABLED=true")
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if c.Alerts.From == "" {
		return nil
	}
	if !c.Alerts.SMTP.Enabled() {
		return fmt.Errorf("SMTP_HOST is required when ALERT_FROM is set")
	}
	if len(c.Alerts.SystemTo) == 0 && len(c.Alerts.UserTo) == 0 {
		return fmt.Errorf("ALERT_FROM is set but no alert recipients are configured")
	}
	return c.Alerts.SMTP.Validate()
}

func (c *Config) validateServer() error {
	if c.Server.Enabled && c.Server.Listen == "" {
		return fmt.Errorf("ADMIN_LISTEN is required when the admin API is enabled")
	}
	return nil
}
