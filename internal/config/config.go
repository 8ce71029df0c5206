// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/auditsvc"
	"github.com/tomtom215/audittrail/internal/format"
	"github.com/tomtom215/audittrail/internal/history"
	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/mailer"
	"github.com/tomtom215/audittrail/internal/supervisor"
	"github.com/tomtom215/audittrail/internal/syslog"
	"github.com/tomtom215/audittrail/internal/vault"
	"github.com/tomtom215/audittrail/internal/workqueue"
)

// Config is the complete application configuration.
type Config struct {
	App        AppConfig             `koanf:"app"`
	Storage    localdb.Config        `koanf:"storage"`
	Vault      vault.Config          `koanf:"vault"`
	Syslog     SyslogConfig          `koanf:"syslog"`
	Alerts     AlertsConfig          `koanf:"alerts"`
	History    history.Config        `koanf:"history"`
	Events     EventsConfig          `koanf:"events"`
	Server     ServerConfig          `koanf:"server"`
	Supervisor supervisor.TreeConfig `koanf:"supervisor"`
	Logging    logging.Config        `koanf:"logging"`
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name         string `koanf:"name" validate:"required"`
	Version      string `koanf:"version"`
	Vendor       string `koanf:"vendor"`
	SiteHostname string `koanf:"site_hostname"`
	// InstanceID defaults to the host name.
	InstanceID string `koanf:"instance_id"`
	// ReadOnly keeps the audit service closed.
	ReadOnly bool   `koanf:"read_only"`
	Timezone string `koanf:"timezone"`

	// HealthCheckInterval is how often health is polled for HEALTH_CHANGE events.
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`
}

// SyslogConfig groups the syslog transport, payload format and delivery queue.
type SyslogConfig struct {
	Transport syslog.Config    `koanf:"transport"`
	Format    format.Config    `koanf:"format"`
	Queue     workqueue.Config `koanf:"queue"`

	// ErrorWindow is how long a delivery failure is reported by health.
	ErrorWindow time.Duration `koanf:"error_window"`
	// BacklogWarning is the queue depth reported as a backlog.
	BacklogWarning int `koanf:"backlog_warning" validate:"min=0"`
}

// AlertsConfig controls audit alert email.
type AlertsConfig struct {
	// From enables alerts when set.
	From     string        `koanf:"from" validate:"omitempty,email"`
	SystemTo []string      `koanf:"system_to" validate:"dive,email"`
	UserTo   []string      `koanf:"user_to" validate:"dive,email"`
	SMTP     mailer.Config `koanf:"smtp"`
}

// EventsConfig selects the recorded events.
type EventsConfig struct {
	// Permitted lists event codes; "ALL" selects the whole catalog.
	Permitted []string `koanf:"permitted" validate:"dive,eventcode"`
}

// ServerConfig is the admin HTTP API.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Listen          string        `koanf:"listen" validate:"omitempty,hostname_port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RateLimit is requests per minute per client IP on the audit routes. Zero disables it.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
}

// Metadata returns the header metadata for formatters.
func (c *Config) Metadata() format.Metadata {
	return format.Metadata{
		AppName:      c.App.Name,
		AppVersion:   c.App.Version,
		Vendor:       c.App.Vendor,
		SiteHostname: c.App.SiteHostname,
		InstanceID:   c.InstanceID(),
	}
}

// InstanceID returns the configured instance id or the host name.
func (c *Config) InstanceID() string {
	if c.App.InstanceID != "" {
		return c.App.InstanceID
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "audittrail"
}

// FormatConfig returns the formatter settings with the application timezone
// applied. The length bound covers the framed syslog line, so the largest
// frame header is taken off the formatter budget.
func (c *Config) FormatConfig() format.Config {
	fc := c.Syslog.Format
	if fc.Timezone == "" {
		fc.Timezone = c.App.Timezone
	}
	if fc.MaxMessageLength > 0 {
		tc := c.TransportConfig()
		fc.MaxMessageLength = max(fc.MaxMessageLength-tc.MaxFrameOverhead(), 1)
	}
	return fc
}

// TransportConfig returns the syslog transport settings. Hostname and
// AppName default to the site hostname and the application name.
func (c *Config) TransportConfig() syslog.Config {
	tc := c.Syslog.Transport
	if tc.Hostname == "" {
		tc.Hostname = c.App.SiteHostname
	}
	if tc.Hostname == "" {
		tc.Hostname = c.InstanceID()
	}
	if tc.AppName == "" {
		tc.AppName = c.App.Name
	}
	return tc
}

// AuditSettings resolves the audit service settings.
func (c *Config) AuditSettings() (auditsvc.Settings, error) {
	codes, err := audit.ParseEventCodes(c.Events.Permitted)
	if err != nil {
		return auditsvc.Settings{}, fmt.Errorf("events.permitted: %w", err)
	}
	return auditsvc.Settings{
		AppName:             c.App.Name,
		InstanceID:          c.InstanceID(),
		ReadOnly:            c.App.ReadOnly,
		PermittedEvents:     codes,
		AlertFrom:           c.Alerts.From,
		SystemAlertTo:       c.Alerts.SystemTo,
		UserAlertTo:         c.Alerts.UserTo,
		SyslogErrorWindow:   c.Syslog.ErrorWindow,
		QueueBacklogWarning: c.Syslog.BacklogWarning,
		Supervision:         c.Supervisor,
	}, nil
}
