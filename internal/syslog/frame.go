// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package syslog

import (
	"strconv"
	"strings"

	"github.com/tomtom215/audittrail/internal/audit"
)

// RFC 5424 severities used for audit events.
const (
	SeverityWarning       = 4
	SeverityNotice        = 5
	SeverityInformational = 6
)

const rfc5424Time = "2006-01-02T15:04:05.000Z07:00"

// SeverityFor maps an event outcome to a syslog severity.
func SeverityFor(r *audit.Record) int {
	info, _ := r.Info()
	switch info.Outcome {
	case audit.OutcomeFailure:
		return SeverityWarning
	case audit.OutcomeSuccess:
		return SeverityInformational
	default:
		return SeverityNotice
	}
}

// Frame wraps a formatted audit message in an RFC 5424 header:
//
//	<PRI>1 TIMESTAMP HOSTNAME APP-NAME - MSGID - MSG
//
// The record supplies the timestamp, the severity and the MSGID (event code),
// so a frame built at submission time keeps the event time through retries.
func (c *Config) Frame(r *audit.Record, msg string) string {
	pri := c.Facility*8 + SeverityFor(r)

	var b strings.Builder
	b.Grow(len(msg) + 96)
	b.WriteByte('<')
	b.WriteString(strconv.Itoa(pri))
	b.WriteString(">1 ")
	b.WriteString(r.Timestamp.UTC().Format(rfc5424Time))
	b.WriteByte(' ')
	b.WriteString(headerField(c.Hostname, 255))
	b.WriteByte(' ')
	b.WriteString(headerField(c.AppName, 48))
	b.WriteString(" - ")
	b.WriteString(headerField(string(r.EventCode), 32))
	b.WriteString(" - ")
	b.WriteString(msg)
	return b.String()
}

// MaxFrameOverhead returns the longest header Frame can put in front of a
// message for this configuration.
func (c *Config) MaxFrameOverhead() int {
	return len("<191>1 ") + len("2006-01-02T15:04:05.000Z") + 1 +
		len(headerField(c.Hostname, 255)) + 1 +
		len(headerField(c.AppName, 48)) + len(" - ") + 32 + len(" - ")
}

// headerField returns s restricted to printable US-ASCII without spaces and
// clipped to limit, or the nil value "-".
func headerField(s string, limit int) string {
	clean := strings.Map(func(r rune) rune {
		if r < 33 || r > 126 {
			return -1
		}
		return r
	}, s)
	if clean == "" {
		return "-"
	}
	if len(clean) > limit {
		clean = clean[:limit]
	}
	return clean
}
