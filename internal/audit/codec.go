// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package audit

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Marshal serializes r in the stored JSON form.
func Marshal(r *Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record %s: %w", r.GUID, err)
	}
	return data, nil
}

// Unmarshal parses a stored record. Entries written before a code was
// retired keep their stored category; entries without a category fall
// back to the catalog.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal audit record: %w", err)
	}
	if r.EventCode == "" {
		return nil, ErrMissingEventCode
	}
	if r.Category == "" {
		r.Category = CategoryOf(r.EventCode)
		if r.Category == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, r.EventCode)
		}
	}
	return &r, nil
}
