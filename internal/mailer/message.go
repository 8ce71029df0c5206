// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// AuditMessage builds the alert email for r.
func AuditMessage(r *audit.Record, appName, from string, to []string) Message {
	info, _ := r.Info()

	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-16s %s\n", label+":", value)
		}
	}

	line("Event", fmt.Sprintf("%s (%s)", info.Name, r.EventCode))
	line("Type", string(r.Category))
	line("Time", r.Timestamp.UTC().Format(time.RFC3339))
	line("GUID", r.GUID)
	line("Message", r.Message)
	line("Narrative", r.Narrative)
	line("Perpetrator ID", r.PerpetratorID)
	line("Perpetrator DN", r.PerpetratorDN)
	line("Target ID", r.TargetID)
	line("Target DN", r.TargetDN)
	line("Source Address", r.SourceAddress)
	line("Source Host", r.SourceHost)
	line("Instance", r.Instance)
	line("Domain", r.Domain)

	return Message{
		From:    from,
		To:      append([]string(nil), to...),
		Subject: fmt.Sprintf("%s - Audit Event - %s", appName, r.EventCode),
		Body:    b.String(),
	}
}

// build renders m with headers. Header values are stripped of CR and LF.
func (m Message) build(fromName string, now time.Time) string {
	var msg strings.Builder

	from := m.From
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", headerValue(fromName), m.From)
	}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", headerValue(from)))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(strings.Join(m.To, ", "))))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", headerValue(m.Subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", now.Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	return msg.String()
}

func headerValue(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}
