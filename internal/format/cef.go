// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package format

import (
	"strconv"
	"strings"

	"github.com/tomtom215/audittrail/internal/audit"
)

// defaultCEFSeverity is used for codes that are no longer in the catalog.
const defaultCEFSeverity = 5

// CEFFormatter emits ArcSight Common Event Format lines:
//
//	CEF:0|Vendor|Product|Version|EventClassID|Name|Severity|ext1=v1 ext2=v2
type CEFFormatter struct {
	headerPrefix string
	hostname     string
	timezone     string
	maxLen       int
	maxExt       int
	marker       string
}

// NewCEF creates a CEF formatter. Header templates are expanded against meta here.
func NewCEF(cfg Config, meta Metadata) *CEFFormatter {
	prefix := "CEF:0|" +
		escapeHeader(meta.expand(cfg.CEFVendor)) + "|" +
		escapeHeader(meta.expand(cfg.CEFProduct)) + "|" +
		escapeHeader(meta.expand(cfg.CEFVersion)) + "|"

	return &CEFFormatter{
		headerPrefix: prefix,
		hostname:     meta.SiteHostname,
		timezone:     cfg.Timezone,
		maxLen:       cfg.MaxMessageLength,
		maxExt:       cfg.MaxExtensionChars,
		marker:       cfg.TruncationMarker,
	}
}

// Format implements Formatter.
func (f *CEFFormatter) Format(r *audit.Record) (string, error) {
	return fit(r, f.maxLen, f.marker, f.render)
}

func (f *CEFFormatter) render(r *audit.Record) (string, error) {
	name := string(r.EventCode)
	severity := defaultCEFSeverity
	var outcome, taxonomy string
	if info, ok := r.Info(); ok {
		name = info.Name
		severity = info.Severity
		outcome = info.Outcome
		taxonomy = info.Taxonomy
	}

	var b strings.Builder
	b.Grow(len(f.headerPrefix) + 256)
	b.WriteString(f.headerPrefix)
	b.WriteString(escapeHeader(string(r.EventCode)))
	b.WriteByte('|')
	b.WriteString(escapeHeader(name))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(severity))
	b.WriteByte('|')

	ext := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(escapeExtension(clip(value, f.maxExt)))
		b.WriteByte(' ')
	}

	ext("cat", string(r.Category))
	ext("act", string(r.EventCode))
	ext("rt", strconv.FormatInt(r.Timestamp.UnixMilli(), 10))
	ext("msg", r.Message)
	ext("reason", r.Narrative)
	ext("suid", r.PerpetratorID)
	ext("suser", r.PerpetratorDN)
	ext("src", r.SourceAddress)
	ext("srchost", r.SourceHost)
	ext("duid", r.TargetID)
	ext("duser", r.TargetDN)
	ext("dvchost", f.hostname)
	ext("dtz", f.timezone)
	ext("outcome", outcome)
	if taxonomy != "" {
		ext("cs1Label", "Taxonomy")
		ext("cs1", taxonomy)
	}
	if r.Instance != "" {
		ext("cs2Label", "Instance")
		ext("cs2", r.Instance)
	}
	if r.Domain != "" {
		ext("cs3Label", "Domain")
		ext("cs3", r.Domain)
	}
	ext("externalId", r.GUID)

	return strings.TrimSuffix(b.String(), " "), nil
}

// escapeExtension escapes a CEF extension value. Backslash must go first,
// otherwise the escapes added for '=' and '|' would be doubled.
func escapeExtension(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "=", `\=`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

// escapeHeader escapes a CEF header field. Line breaks are not allowed in headers.
func escapeHeader(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
