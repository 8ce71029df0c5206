// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package vault

import (
	"fmt"
	"time"
)

// Config holds vault retention and trimmer settings.
type Config struct {
	// MaxRecordCount is the hard cap on stored records. Add trims back to it synchronously.
	MaxRecordCount int `koanf:"max_record_count" validate:"min=1"`

	// MaxRecordAge is the retention age. Zero keeps records regardless of age.
	MaxRecordAge time.Duration `koanf:"max_record_age"`

	// TrimInterval is the time between trimmer runs.
	TrimInterval time.Duration `koanf:"trim_interval"`

	// TrimTargetDuration is the wall-clock time one trimmer pass aims for.
	// It is also the pause between consecutive passes of one run.
	TrimTargetDuration time.Duration `koanf:"trim_target_duration"`

	// MinBatch and MaxBatch bound the adaptive records-per-pass figure.
	MinBatch int `koanf:"min_batch"`
	MaxBatch int `koanf:"max_batch"`

	// ReadPageSize is how many entries ReadVault loads per read transaction.
	ReadPageSize int `koanf:"read_page_size"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRecordCount:     80000,
		MaxRecordAge:       90 * 24 * time.Hour,
		TrimInterval:       10 * time.Minute,
		TrimTargetDuration: 100 * time.Millisecond,
		MinBatch:           3,
		MaxBatch:           5000,
		ReadPageSize:       256,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxRecordCount < 1 {
		return &ConfigError{Field: "MaxRecordCount", Message: "must be at least 1"}
	}
	if c.MaxRecordAge < 0 {
		return &ConfigError{Field: "MaxRecordAge", Message: "must not be negative"}
	}
	if c.TrimInterval <= 0 {
		return &ConfigError{Field: "TrimInterval", Message: "must be positive"}
	}
	if c.TrimTargetDuration <= 0 {
		return &ConfigError{Field: "TrimTargetDuration", Message: "must be positive"}
	}
	if c.MinBatch < 1 || c.MaxBatch < c.MinBatch {
		return &ConfigError{Field: "MaxBatch", Message: "batch bounds must satisfy 1 <= MinBatch <= MaxBatch"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vault config error: %s: %s", e.Field, e.Message)
}
