// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package auditsvc

import (
	"fmt"
	"time"
)

// HealthStatus orders health severities: GOOD < CAUTION < WARN.
type HealthStatus string

const (
	HealthGood    HealthStatus = "GOOD"
	HealthCaution HealthStatus = "CAUTION"
	HealthWarn    HealthStatus = "WARN"
)

func (h HealthStatus) rank() int {
	switch h {
	case HealthWarn:
		return 2
	case HealthCaution:
		return 1
	default:
		return 0
	}
}

// HealthRecord is one health finding.
type HealthRecord struct {
	Status  HealthStatus `json:"status"`
	Topic   string       `json:"topic"`
	Message string       `json:"message"`
}

// Health topics.
const (
	TopicAudit  = "Audit"
	TopicSyslog = "Syslog"
)

// Health reports problems with the service. An empty result means healthy.
func (s *Service) Health() []HealthRecord {
	var out []HealthRecord

	if s.State() != StateOpen {
		msg := "audit service is closed, audit events are not being recorded"
		switch {
		case s.settings.ReadOnly:
			msg = "host is read-only, audit events are not being recorded"
		case s.deps.Vault == nil:
			msg = "no durable storage available, audit events are not being recorded"
		}
		out = append(out, HealthRecord{Status: HealthWarn, Topic: TopicAudit, Message: msg})
	}

	if at, err := s.lastSyslogError(); err != nil && s.settings.SyslogErrorWindow > 0 {
		if s.now().Sub(at) < s.settings.SyslogErrorWindow {
			out = append(out, HealthRecord{
				Status:  HealthWarn,
				Topic:   TopicSyslog,
				Message: fmt.Sprintf("syslog delivery failed at %s: %v", at.UTC().Format(time.RFC3339), err),
			})
		}
	}

	if s.deps.Queue != nil && s.settings.QueueBacklogWarning > 0 {
		if n := s.deps.Queue.Len(); n > s.settings.QueueBacklogWarning {
			out = append(out, HealthRecord{
				Status:  HealthCaution,
				Topic:   TopicSyslog,
				Message: fmt.Sprintf("%d syslog messages are waiting for delivery", n),
			})
		}
	}
	return out
}

// OverallHealth returns the worst status in records, GOOD when empty.
func OverallHealth(records []HealthRecord) HealthStatus {
	worst := HealthGood
	for _, r := range records {
		if r.Status.rank() > worst.rank() {
			worst = r.Status
		}
	}
	return worst
}
