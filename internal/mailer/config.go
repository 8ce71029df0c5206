// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package mailer

import (
	"fmt"
	"net/mail"
	"time"
)

// Config holds SMTP and alert throttling settings.
type Config struct {
	Host     string `koanf:"smtp_host"`
	Port     int    `koanf:"smtp_port" validate:"omitempty,min=1,max=65535"`
	Username string `koanf:"smtp_username"`
	Password string `koanf:"smtp_password"`
	StartTLS bool   `koanf:"smtp_starttls"`

	// FromName is the display name on alert emails.
	FromName string `koanf:"from_name"`

	Timeout time.Duration `koanf:"timeout"`

	// RatePerMinute and Burst throttle alert emails. Alerts beyond the
	// limit are dropped, not delayed.
	RatePerMinute float64 `koanf:"rate_per_minute"`
	Burst         int     `koanf:"burst"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Port:          25,
		FromName:      "Audit Trail",
		Timeout:       30 * time.Second,
		RatePerMinute: 30,
		Burst:         10,
	}
}

// Enabled reports whether an SMTP host is configured.
func (c *Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Message: "must be between 1 and 65535"}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Message: "must be positive"}
	}
	if c.RatePerMinute <= 0 || c.Burst < 1 {
		return &ConfigError{Field: "RatePerMinute", Message: "rate and burst must be positive"}
	}
	return nil
}

// ValidateAddress checks a single email address.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("email address is empty")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return fmt.Errorf("invalid email address %q: %w", addr, err)
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mailer config error: %s: %s", e.Field, e.Message)
}
