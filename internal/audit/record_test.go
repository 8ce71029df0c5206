// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package audit

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewUserRecord(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC()
	rec, err := NewUserRecord(EventChangePassword,
		Identity{ID: "jdoe", DN: "uid=jdoe,ou=people", LdapProfile: "default"},
		Source{Address: "10.0.0.7", Host: "ws-07"},
		"password changed", "example")
	if err != nil {
		t.Fatalf("NewUserRecord failed: %v", err)
	}

	if rec.Category != CategoryUser {
		t.Errorf("Category = %s, want USER", rec.Category)
	}
	if rec.GUID == "" {
		t.Error("expected GUID to be assigned")
	}
	if rec.Timestamp.Before(before) || rec.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want UTC at or after %v", rec.Timestamp, before)
	}
	if rec.Narrative != "jdoe changed their password" {
		t.Errorf("Narrative = %q", rec.Narrative)
	}
	if rec.TargetDN != "" || rec.Instance != "" {
		t.Error("USER record must not carry target or instance")
	}
	if rec.SubjectDN() != "uid=jdoe,ou=people" {
		t.Errorf("SubjectDN = %q", rec.SubjectDN())
	}
}

func TestNewSystemRecordUsesSystemDomain(t *testing.T) {
	t.Parallel()

	rec, err := New(EventStartup, Fields{
		Instance:    "node-1",
		Domain:      "tenant-a",
		Perpetrator: Identity{ID: "ignored", DN: "cn=ignored"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if rec.Domain != SystemDomain {
		t.Errorf("Domain = %q, want %q", rec.Domain, SystemDomain)
	}
	if rec.PerpetratorID != "" || rec.PerpetratorDN != "" {
		t.Error("SYSTEM record must not carry actor fields")
	}
	if rec.Narrative != "Application instance node-1 started" {
		t.Errorf("Narrative = %q", rec.Narrative)
	}
	if rec.SubjectDN() != "" {
		t.Errorf("SubjectDN = %q, want empty", rec.SubjectDN())
	}
}

func TestNewHelpdeskRecordSubjectIsTarget(t *testing.T) {
	t.Parallel()

	rec, err := NewHelpdeskRecord(EventHelpdeskSetPassword,
		Identity{ID: "admin", DN: "uid=admin"},
		Identity{ID: "jdoe", DN: "uid=jdoe"},
		Source{Address: "10.1.1.1"}, "", "example")
	if err != nil {
		t.Fatalf("NewHelpdeskRecord failed: %v", err)
	}
	if rec.Narrative != "admin set the password of jdoe" {
		t.Errorf("Narrative = %q", rec.Narrative)
	}
	if rec.SubjectDN() != "uid=jdoe" {
		t.Errorf("SubjectDN = %q, want uid=jdoe", rec.SubjectDN())
	}
}

func TestConstructorErrors(t *testing.T) {
	t.Parallel()

	if _, err := New("", Fields{}); !errors.Is(err, ErrMissingEventCode) {
		t.Errorf("New(\"\") = %v, want ErrMissingEventCode", err)
	}
	if _, err := New("NOT_A_CODE", Fields{}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("New(unknown) = %v, want ErrUnknownEvent", err)
	}
	if _, err := NewSystemRecord(EventChangePassword, "", ""); !errors.Is(err, ErrCategoryMismatch) {
		t.Errorf("NewSystemRecord(user code) = %v, want ErrCategoryMismatch", err)
	}
	if _, err := NewUserRecord(EventHelpdeskAction, Identity{}, Source{}, "", ""); !errors.Is(err, ErrCategoryMismatch) {
		t.Errorf("NewUserRecord(helpdesk code) = %v, want ErrCategoryMismatch", err)
	}
}

func TestGUIDUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		rec, err := New(EventAuthenticate, Fields{Perpetrator: Identity{ID: "u"}})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, dup := seen[rec.GUID]; dup {
			t.Fatalf("duplicate GUID %s after %d records", rec.GUID, i)
		}
		seen[rec.GUID] = struct{}{}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)
	tests := []struct {
		name   string
		code   EventCode
		fields Fields
	}{
		{"system minimal", EventShutdown, Fields{Timestamp: ts}},
		{"system full", EventFatalEvent, Fields{Timestamp: ts, Instance: "n1", Message: "disk\nfull"}},
		{"user no source", EventAuthenticate, Fields{Timestamp: ts, Perpetrator: Identity{ID: "a"}}},
		{"user full", EventChangePassword, Fields{
			Timestamp:   ts,
			Message:     `quote " and | and = and \`,
			Perpetrator: Identity{ID: "a", DN: "uid=a", LdapProfile: "p"},
			Source:      Source{Address: "::1", Host: "h"},
			Domain:      "d",
		}},
		{"helpdesk full", EventHelpdeskDeleteUser, Fields{
			Timestamp:   ts,
			Perpetrator: Identity{ID: "a", DN: "uid=a"},
			Target:      Identity{ID: "b", DN: "uid=b", LdapProfile: "q"},
			Source:      Source{Address: "1.2.3.4"},
			Domain:      "d",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := New(tt.code, tt.fields)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			data, err := Marshal(rec)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !got.Timestamp.Equal(rec.Timestamp) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
			}
			got.Timestamp = rec.Timestamp
			if !reflect.DeepEqual(got, rec) {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, rec)
			}
		})
	}
}

func TestUnmarshalRejectsBadEntries(t *testing.T) {
	t.Parallel()

	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := Unmarshal([]byte(`{"guid":"x"}`)); !errors.Is(err, ErrMissingEventCode) {
		t.Errorf("missing code = %v, want ErrMissingEventCode", err)
	}
	if _, err := Unmarshal([]byte(`{"eventCode":"GONE"}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("unknown code without category = %v, want ErrUnknownEvent", err)
	}

	rec, err := Unmarshal([]byte(`{"eventCode":"GONE","type":"USER","guid":"g"}`))
	if err != nil {
		t.Fatalf("retired code with stored category should parse: %v", err)
	}
	if rec.Category != CategoryUser {
		t.Errorf("Category = %s, want USER", rec.Category)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	t.Parallel()

	rec, _ := New(EventAuthenticate, Fields{Perpetrator: Identity{ID: "jdoe"}, Source: Source{Address: "10.0.0.1"}})

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().EmbedObject(rec).Msg("audit")

	out := buf.String()
	for _, want := range []string{`"event_code":"AUTHENTICATE"`, `"perpetrator_id":"jdoe"`, `"source_address":"10.0.0.1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "target_dn") {
		t.Errorf("unexpected empty field in %s", out)
	}
}
