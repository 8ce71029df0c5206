// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/audittrail/config.yaml",
	"/etc/audittrail/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
//
// Later layers override earlier ones. The result is validated.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split into slices when they come from the
// environment. Syslog targets contain commas themselves, so they are
// separated by semicolons.
var sliceConfigPaths = map[string]string{
	"syslog.transport.targets":      ";",
	"syslog.transport.certificates": ";",
	"alerts.system_to":              ",",
	"alerts.user_to":                ",",
	"events.permitted":              ",",
}

func processSliceFields(k *koanf.Koanf) error {
	for path, sep := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, sep)
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Application
	"app_name":              "app.name",
	"app_version":           "app.version",
	"app_vendor":            "app.vendor",
	"site_hostname":         "app.site_hostname",
	"instance_id":           "app.instance_id",
	"read_only":             "app.read_only",
	"timezone":              "app.timezone",
	"health_check_interval": "app.health_check_interval",

	// Local storage (BadgerDB)
	"storage_path":          "storage.path",
	"storage_sync_writes":   "storage.sync_writes",
	"storage_compression":   "storage.compression",
	"storage_gc_interval":   "storage.gc_interval",
	"storage_gc_ratio":      "storage.gc_ratio",
	"storage_close_timeout": "storage.close_timeout",

	// Vault
	"vault_max_records":          "vault.max_record_count",
	"vault_max_age":              "vault.max_record_age",
	"vault_trim_interval":        "vault.trim_interval",
	"vault_trim_target_duration": "vault.trim_target_duration",

	// Syslog
	"syslog_targets":             "syslog.transport.targets",
	"syslog_certificates":        "syslog.transport.certificates",
	"syslog_facility":            "syslog.transport.facility",
	"syslog_hostname":            "syslog.transport.hostname",
	"syslog_dial_timeout":        "syslog.transport.dial_timeout",
	"syslog_write_timeout":       "syslog.transport.write_timeout",
	"syslog_output_type":         "syslog.format.output_type",
	"syslog_max_message_length":  "syslog.format.max_message_length",
	"syslog_max_extension_chars": "syslog.format.max_extension_chars",
	"syslog_truncation_marker":   "syslog.format.truncation_marker",
	"syslog_cef_vendor":          "syslog.format.cef_vendor",
	"syslog_cef_product":         "syslog.format.cef_product",
	"syslog_cef_version":         "syslog.format.cef_version",
	"syslog_queue_size":          "syslog.queue.max_queue_size",
	"syslog_retry_interval":      "syslog.queue.retry_interval",
	"syslog_discard_age":         "syslog.queue.discard_age",
	"syslog_error_window":        "syslog.error_window",
	"syslog_backlog_warning":     "syslog.backlog_warning",

	// Alerts
	"alert_from":          "alerts.from",
	"alert_system_to":     "alerts.system_to",
	"alert_user_to":       "alerts.user_to",
	"alert_rate":          "alerts.smtp.rate_per_minute",
	"smtp_host":           "alerts.smtp.smtp_host",
	"smtp_port":           "alerts.smtp.smtp_port",
	"smtp_username":       "alerts.smtp.smtp_username",
	"smtp_password":       "alerts.smtp.smtp_password",
	"smtp_starttls":       "alerts.smtp.smtp_starttls",
	"smtp_timeout":        "alerts.smtp.timeout",
	"alert_from_name":     "alerts.smtp.from_name",
	"history_enabled":     "history.enabled",
	"history_path":        "history.path",
	"history_max_entries": "history.max_entries_per_user",

	// Events
	"audit_events": "events.permitted",

	// Admin API
	"admin_enabled":          "server.enabled",
	"admin_listen":           "server.listen",
	"admin_shutdown_timeout": "server.shutdown_timeout",
	"admin_rate_limit":       "server.rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a koanf path, or ""
// to skip it.
//
// Examples:
//   - SYSLOG_TARGETS -> syslog.transport.targets
//   - VAULT_MAX_AGE -> vault.max_record_age
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
