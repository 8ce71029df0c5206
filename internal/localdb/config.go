// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package localdb

import (
	"fmt"
	"time"
)

// Config holds BadgerDB settings for the local durable store.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Should be on a durable filesystem (not tmpfs).
	Path string `koanf:"path" validate:"required"`

	// SyncWrites forces fsync after every write. Audit records are
	// security evidence, so this defaults to true.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy compression of stored values.
	Compression bool `koanf:"compression"`

	// MemTableSize is the size of each memtable in bytes.
	MemTableSize int64 `koanf:"mem_table_size"`

	// ValueLogFileSize is the size of each value log file in bytes.
	ValueLogFileSize int64 `koanf:"value_log_file_size"`

	// NumCompactors is the number of compaction workers (BadgerDB minimum: 2).
	NumCompactors int `koanf:"num_compactors"`

	// GCRatio is the discard ratio for value log garbage collection.
	GCRatio float64 `koanf:"gc_ratio"`

	// GCInterval is the time between value log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// CloseTimeout bounds how long Close waits for BadgerDB.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/audittrail/localdb",
		SyncWrites:       true,
		Compression:      true,
		MemTableSize:     32 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		GCRatio:          0.5,
		GCInterval:       10 * time.Minute,
		CloseTimeout:     30 * time.Second,
	}
}

// TestConfig returns a small-footprint configuration rooted at dir.
func TestConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.SyncWrites = false
	cfg.MemTableSize = 16 * 1024 * 1024
	cfg.ValueLogFileSize = 16 * 1024 * 1024
	cfg.CloseTimeout = 10 * time.Second
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "local database path is required"}
	}
	if c.MemTableSize < 1024*1024 {
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}
	if c.ValueLogFileSize < 1024*1024 {
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}
	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2 (BadgerDB requirement)"}
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return &ConfigError{Field: "GCRatio", Message: "must be between 0 and 1 exclusive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("localdb config error: %s: %s", e.Field, e.Message)
}
