// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package syslog

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Protocol is a syslog transport.
type Protocol string

const (
	ProtocolUDP Protocol = "udp"
	ProtocolTCP Protocol = "tcp"
	ProtocolTLS Protocol = "tls"
)

// ErrInvalidTarget is returned for a malformed target specification.
var ErrInvalidTarget = errors.New("invalid syslog target")

// Target is one syslog collector.
type Target struct {
	Protocol Protocol
	Host     string
	Port     int
}

// ParseTarget parses "proto,host,port", for example "tls,collector.example.com,6514".
func ParseTarget(spec string) (Target, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return Target{}, fmt.Errorf("%w %q: expected proto,host,port", ErrInvalidTarget, spec)
	}

	proto := Protocol(strings.ToLower(strings.TrimSpace(parts[0])))
	switch proto {
	case ProtocolUDP, ProtocolTCP, ProtocolTLS:
	default:
		return Target{}, fmt.Errorf("%w %q: unknown protocol %q", ErrInvalidTarget, spec, parts[0])
	}

	host := strings.TrimSpace(parts[1])
	if host == "" {
		return Target{}, fmt.Errorf("%w %q: empty host", ErrInvalidTarget, spec)
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("%w %q: bad port %q", ErrInvalidTarget, spec, parts[2])
	}
	return Target{Protocol: proto, Host: host, Port: port}, nil
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String returns the target in its configuration form.
func (t Target) String() string {
	return fmt.Sprintf("%s,%s,%d", t.Protocol, t.Host, t.Port)
}

// Config holds syslog transport settings.
type Config struct {
	// Targets are tried in order for every message.
	Targets []string `koanf:"targets"`

	// Facility is the RFC 5424 facility code (0-23). Default 13 (log audit).
	Facility int `koanf:"facility" validate:"min=0,max=23"`

	// Hostname and AppName fill the RFC 5424 header. Empty values become "-".
	Hostname string `koanf:"hostname"`
	AppName  string `koanf:"app_name"`

	DialTimeout  time.Duration `koanf:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// Certificates are PEM certificates accepted as TLS leaf certificates
	// in addition to those that chain to the system roots.
	Certificates []string `koanf:"certificates"`

	// BreakerFailures is the number of consecutive failures that opens a
	// target's circuit. BreakerTimeout is how long it stays open.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Facility:        13,
		DialTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}
}

// ParseTargets parses every configured target.
func (c *Config) ParseTargets() ([]Target, error) {
	targets := make([]Target, 0, len(c.Targets))
	for _, spec := range c.Targets {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		t, err := ParseTarget(spec)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Facility < 0 || c.Facility > 23 {
		return &ConfigError{Field: "Facility", Message: "must be between 0 and 23"}
	}
	if _, err := c.ParseTargets(); err != nil {
		return &ConfigError{Field: "Targets", Message: err.Error()}
	}
	if c.DialTimeout <= 0 || c.WriteTimeout <= 0 {
		return &ConfigError{Field: "DialTimeout", Message: "timeouts must be positive"}
	}
	if c.BreakerFailures == 0 {
		return &ConfigError{Field: "BreakerFailures", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("syslog config error: %s: %s", e.Field, e.Message)
}
