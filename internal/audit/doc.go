// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

/*
Package audit defines the audit record and the static event catalog.

A Record is a single security or administrative event. Every record has an
EventCode, and the catalog maps each code to a Category:

  - SYSTEM: lifecycle events of the running instance (startup, shutdown,
    intruder lockouts of the whole system). Records carry Instance and use
    the reserved "system" domain.
  - USER: actions a user performed on their own account (authenticate,
    change password, set recovery answers). Records carry the perpetrator
    identity and the session source.
  - HELPDESK: actions an operator performed on someone else's account.
    Records carry perpetrator, target, and source.

# Construction

Records are built once and never mutated:

	rec, err := audit.New(audit.EventChangePassword, audit.Fields{
	    Perpetrator: audit.Identity{ID: "jdoe", DN: "uid=jdoe,ou=people,dc=example,dc=com"},
	    Source:      audit.Source{Address: "10.0.0.7", Host: "ws-07"},
	})

New assigns a random GUID and a UTC timestamp, clears the fields that do
not belong to the record's category, and expands the catalog narrative
template. Placeholders such as %perpetratorID% or %targetDN% are resolved
against the record's own fields.

# Serialization

Marshal and Unmarshal use a stable JSON form that the vault stores and the
JSON syslog formatter emits. Optional fields are omitted when empty, so a
record round-trips to an equal value for every field combination.

# SIEM Metadata

Each catalog entry carries a taxonomy path, an outcome, and a CEF severity.
These are fixed per event code and independent of the free-text message,
so collectors can correlate events without parsing prose.
*/
package audit
