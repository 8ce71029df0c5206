// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package audit

import (
	"errors"
	"testing"
)

func TestCatalogEntriesAreComplete(t *testing.T) {
	t.Parallel()

	for _, code := range Codes() {
		info, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%s) missing", code)
		}
		if info.Code != code {
			t.Errorf("%s: Code = %s", code, info.Code)
		}
		switch info.Category {
		case CategorySystem, CategoryUser, CategoryHelpdesk:
		default:
			t.Errorf("%s: bad category %q", code, info.Category)
		}
		if info.MessageKey == "" || info.Name == "" || info.Taxonomy == "" {
			t.Errorf("%s: incomplete metadata %+v", code, info)
		}
		if info.Severity < 0 || info.Severity > 10 {
			t.Errorf("%s: severity %d out of CEF range", code, info.Severity)
		}
	}
}

func TestCodesForPartitionsCatalog(t *testing.T) {
	t.Parallel()

	total := len(CodesFor(CategorySystem)) + len(CodesFor(CategoryUser)) + len(CodesFor(CategoryHelpdesk))
	if total != len(Codes()) {
		t.Errorf("category partition covers %d codes, catalog has %d", total, len(Codes()))
	}
	if CategoryOf(EventChangePassword) != CategoryUser {
		t.Errorf("CategoryOf(CHANGE_PASSWORD) = %s", CategoryOf(EventChangePassword))
	}
	if CategoryOf("NOPE") != "" {
		t.Error("expected empty category for unknown code")
	}
}

func TestParseEventCodes(t *testing.T) {
	t.Parallel()

	codes, err := ParseEventCodes([]string{" change_password", "AUTHENTICATE", "", "CHANGE_PASSWORD"})
	if err != nil {
		t.Fatalf("ParseEventCodes failed: %v", err)
	}
	if len(codes) != 2 || codes[0] != EventChangePassword || codes[1] != EventAuthenticate {
		t.Errorf("codes = %v", codes)
	}

	all, err := ParseEventCodes([]string{"all"})
	if err != nil || len(all) != len(Codes()) {
		t.Errorf("ALL = %d codes, err %v", len(all), err)
	}

	if _, err := ParseEventCodes([]string{"BOGUS"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("BOGUS = %v, want ErrUnknownEvent", err)
	}
}
