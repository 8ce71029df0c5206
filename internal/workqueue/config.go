// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package workqueue

import (
	"fmt"
	"time"
)

// Config holds delivery queue settings.
type Config struct {
	// MaxQueueSize bounds the backlog. Submitting beyond it drops the oldest items.
	MaxQueueSize int `koanf:"max_queue_size"`

	// RetryInterval is the wait after a Retry result before the same item is attempted again.
	RetryInterval time.Duration `koanf:"retry_interval"`

	// DiscardAge is how long an undelivered item may stay queued. Zero disables discarding.
	DiscardAge time.Duration `koanf:"discard_age"`

	// PollInterval bounds how long an idle worker sleeps when it misses a wakeup.
	PollInterval time.Duration `koanf:"poll_interval"`

	// CloseTimeout bounds the final drain performed by Close.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:  1000,
		RetryInterval: 30 * time.Second,
		DiscardAge:    24 * time.Hour,
		PollInterval:  5 * time.Second,
		CloseTimeout:  5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxQueueSize < 1 {
		return &ConfigError{Field: "MaxQueueSize", Message: "must be at least 1"}
	}
	if c.RetryInterval <= 0 {
		return &ConfigError{Field: "RetryInterval", Message: "must be positive"}
	}
	if c.DiscardAge < 0 {
		return &ConfigError{Field: "DiscardAge", Message: "must not be negative"}
	}
	if c.PollInterval <= 0 {
		return &ConfigError{Field: "PollInterval", Message: "must be positive"}
	}
	if c.CloseTimeout < 0 {
		return &ConfigError{Field: "CloseTimeout", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("workqueue config error: %s: %s", e.Field, e.Message)
}
