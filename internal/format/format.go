// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package format renders audit records into single-line syslog payloads.
//
// Two variants exist, selected by OutputType: JSON ("<AppName> {...}") and
// ArcSight CEF. Both respect a maximum message length. When a record does
// not fit, the free-text message and narrative are shrunk together under a
// shared per-field cap, each truncated field ending in the configured
// marker, until the rendered line fits.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/audittrail/internal/audit"
)

// OutputType selects the formatter variant.
type OutputType string

const (
	OutputJSON OutputType = "json"
	OutputCEF  OutputType = "cef"
)

var (
	// ErrUnknownOutputType is returned by New for an unsupported OutputType.
	ErrUnknownOutputType = errors.New("unknown syslog output type")

	// ErrMessageTooLong is returned when a record does not fit even with
	// message and narrative removed.
	ErrMessageTooLong = errors.New("audit record exceeds maximum message length")
)

// Formatter turns a record into a transport-safe string.
type Formatter interface {
	Format(r *audit.Record) (string, error)
}

// Config holds formatter settings.
type Config struct {
	OutputType OutputType `koanf:"output_type" validate:"oneof=json cef"`

	// MaxMessageLength bounds the rendered line in bytes. Zero disables the bound.
	MaxMessageLength int `koanf:"max_message_length" validate:"min=0"`

	// MaxExtensionChars bounds each CEF extension value in characters, before escaping.
	MaxExtensionChars int `koanf:"max_extension_chars" validate:"min=0"`

	// TruncationMarker is appended to a shortened message or narrative.
	TruncationMarker string `koanf:"truncation_marker"`

	// CEF header templates. @AppName@, @AppVersion@, @Vendor@,
	// @SiteHostname@ and @InstanceID@ are expanded once at construction.
	CEFVendor  string `koanf:"cef_vendor"`
	CEFProduct string `koanf:"cef_product"`
	CEFVersion string `koanf:"cef_version"`

	// Timezone is emitted as the CEF dtz extension when set.
	Timezone string `koanf:"timezone"`
}

// DefaultConfig returns defaults suitable for a 1 KiB syslog frame budget.
func DefaultConfig() Config {
	return Config{
		OutputType:        OutputJSON,
		MaxMessageLength:  1024,
		MaxExtensionChars: 1023,
		TruncationMarker:  "[truncated]",
		CEFVendor:         "@Vendor@",
		CEFProduct:        "@AppName@",
		CEFVersion:        "@AppVersion@",
	}
}

// Metadata is static application information used in headers and prefixes.
type Metadata struct {
	AppName      string
	AppVersion   string
	Vendor       string
	SiteHostname string
	InstanceID   string
}

func (m Metadata) expand(template string) string {
	if !strings.Contains(template, "@") {
		return template
	}
	return strings.NewReplacer(
		"@AppName@", m.AppName,
		"@AppVersion@", m.AppVersion,
		"@Vendor@", m.Vendor,
		"@SiteHostname@", m.SiteHostname,
		"@InstanceID@", m.InstanceID,
	).Replace(template)
}

// New returns the formatter selected by cfg.OutputType.
func New(cfg Config, meta Metadata) (Formatter, error) {
	switch cfg.OutputType {
	case OutputJSON:
		return NewJSON(cfg, meta), nil
	case OutputCEF:
		return NewCEF(cfg, meta), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutputType, cfg.OutputType)
	}
}
