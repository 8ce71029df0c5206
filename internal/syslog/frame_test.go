// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package syslog

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
)

func TestFrame(t *testing.T) {
	t.Parallel()

	rec, err := audit.New(audit.EventAuthenticateFailure, audit.Fields{
		Message:     "bad password",
		Perpetrator: audit.Identity{ID: "jdoe"},
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	})
	if err != nil {
		t.Fatalf("audit.New failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Hostname = "idp01"
	cfg.AppName = "Audit Trail"

	got := cfg.Frame(rec, "CEF:0|x")
	want := "<108>1 2026-01-02T03:04:05.006Z idp01 AuditTrail - " + string(rec.EventCode) + " - CEF:0|x"
	if got != want {
		t.Errorf("Frame =\n%s\nwant\n%s", got, want)
	}
}

func TestFrameNilValues(t *testing.T) {
	t.Parallel()

	rec, _ := audit.NewSystemRecord(audit.EventStartup, "", "i1")
	cfg := Config{Facility: 1}
	got := cfg.Frame(rec, "msg")
	if !strings.HasPrefix(got, "<14>1 ") {
		t.Errorf("unexpected PRI in %s", got)
	}
	if !strings.Contains(got, " - - - STARTUP - msg") {
		t.Errorf("expected nil host and app fields in %s", got)
	}
}

func TestSeverityFor(t *testing.T) {
	t.Parallel()

	ok, _ := audit.NewSystemRecord(audit.EventStartup, "", "i1")
	fail, _ := audit.NewSystemRecord(audit.EventFatalEvent, "", "i1")
	health, _ := audit.NewSystemRecord(audit.EventHealthChange, "", "i1")

	if SeverityFor(ok) != SeverityInformational {
		t.Error("success outcome should be informational")
	}
	if SeverityFor(fail) != SeverityWarning {
		t.Error("failure outcome should be warning")
	}
	if SeverityFor(health) != SeverityNotice {
		t.Error("unknown outcome should be notice")
	}
}

func TestHeaderField(t *testing.T) {
	t.Parallel()
	if got := headerField("a b\tc", 10); got != "abc" {
		t.Errorf("headerField = %q", got)
	}
	if got := headerField(strings.Repeat("x", 60), 48); len(got) != 48 {
		t.Errorf("len = %d, want 48", len(got))
	}
	if got := headerField("   ", 10); got != "-" {
		t.Errorf("headerField = %q, want -", got)
	}
}

func TestMaxFrameOverheadBoundsFrame(t *testing.T) {
	t.Parallel()

	rec, err := audit.New(audit.EventAuthenticateFailure, audit.Fields{
		Perpetrator: audit.Identity{ID: "jdoe"},
		Timestamp:   time.Date(2026, 12, 31, 23, 59, 59, 999_000_000, time.UTC),
	})
	if err != nil {
		t.Fatalf("audit.New failed: %v", err)
	}

	for _, cfg := range []Config{
		{Facility: 23, Hostname: strings.Repeat("h", 300), AppName: strings.Repeat("a", 60)},
		{Facility: 13, Hostname: "idp01", AppName: "Audit Trail"},
		{},
	} {
		msg := strings.Repeat("m", 100)
		overhead := len(cfg.Frame(rec, msg)) - len(msg)
		if overhead > cfg.MaxFrameOverhead() {
			t.Errorf("frame header %d bytes exceeds MaxFrameOverhead %d", overhead, cfg.MaxFrameOverhead())
		}
	}
}
