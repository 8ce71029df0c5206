// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SystemDomain is the reserved domain of SYSTEM records.
const SystemDomain = "system"

var (
	// ErrMissingEventCode is returned when a record has no event code.
	ErrMissingEventCode = errors.New("audit record has no event code")

	// ErrUnknownEvent is returned for codes absent from the catalog.
	ErrUnknownEvent = errors.New("unknown audit event code")

	// ErrCategoryMismatch is returned when a typed constructor gets a code of another category.
	ErrCategoryMismatch = errors.New("event code does not match record category")
)

// Identity is a directory identity that performed or received an action.
type Identity struct {
	ID          string
	DN          string
	LdapProfile string
}

// Source is the network origin of a user session.
type Source struct {
	Address string
	Host    string
}

// Fields are the inputs of New. Fields that do not apply to the event's
// category are dropped.
type Fields struct {
	Message     string
	Perpetrator Identity
	Target      Identity
	Source      Source
	Instance    string
	Domain      string

	// Timestamp defaults to the current time when zero.
	Timestamp time.Time
}

// Record is one immutable audit event.
type Record struct {
	Category  Category  `json:"type"`
	EventCode EventCode `json:"eventCode"`
	GUID      string    `json:"guid"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Narrative string    `json:"narrative,omitempty"`

	PerpetratorID          string `json:"perpetratorID,omitempty"`
	PerpetratorDN          string `json:"perpetratorDN,omitempty"`
	PerpetratorLdapProfile string `json:"perpetratorLdapProfile,omitempty"`
	SourceAddress          string `json:"sourceAddress,omitempty"`
	SourceHost             string `json:"sourceHost,omitempty"`

	TargetID          string `json:"targetID,omitempty"`
	TargetDN          string `json:"targetDN,omitempty"`
	TargetLdapProfile string `json:"targetLdapProfile,omitempty"`

	Instance string `json:"instance,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// New builds a record for code. It assigns a fresh GUID, fixes the
// timestamp in UTC and expands the catalog narrative.
func New(code EventCode, f Fields) (*Record, error) {
	if code == "" {
		return nil, ErrMissingEventCode
	}
	info, ok := catalog[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, code)
	}

	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	r := &Record{
		Category:  info.Category,
		EventCode: code,
		GUID:      uuid.NewString(),
		Timestamp: ts.UTC(),
		Message:   f.Message,
		Domain:    f.Domain,
	}

	switch info.Category {
	case CategorySystem:
		r.Instance = f.Instance
		r.Domain = SystemDomain
	case CategoryHelpdesk:
		r.TargetID = f.Target.ID
		r.TargetDN = f.Target.DN
		r.TargetLdapProfile = f.Target.LdapProfile
		fallthrough
	case CategoryUser:
		r.PerpetratorID = f.Perpetrator.ID
		r.PerpetratorDN = f.Perpetrator.DN
		r.PerpetratorLdapProfile = f.Perpetrator.LdapProfile
		r.SourceAddress = f.Source.Address
		r.SourceHost = f.Source.Host
	}

	r.Narrative = r.expand(info.Narrative)
	return r, nil
}

// NewSystemRecord builds a SYSTEM record.
func NewSystemRecord(code EventCode, message, instance string) (*Record, error) {
	if err := expectCategory(code, CategorySystem); err != nil {
		return nil, err
	}
	return New(code, Fields{Message: message, Instance: instance})
}

// NewUserRecord builds a USER record.
func NewUserRecord(code EventCode, perpetrator Identity, source Source, message, domain string) (*Record, error) {
	if err := expectCategory(code, CategoryUser); err != nil {
		return nil, err
	}
	return New(code, Fields{Message: message, Perpetrator: perpetrator, Source: source, Domain: domain})
}

// NewHelpdeskRecord builds a HELPDESK record.
func NewHelpdeskRecord(code EventCode, perpetrator, target Identity, source Source, message, domain string) (*Record, error) {
	if err := expectCategory(code, CategoryHelpdesk); err != nil {
		return nil, err
	}
	return New(code, Fields{
		Message:     message,
		Perpetrator: perpetrator,
		Target:      target,
		Source:      source,
		Domain:      domain,
	})
}

func expectCategory(code EventCode, want Category) error {
	info, ok := catalog[code]
	if !ok {
		if code == "" {
			return ErrMissingEventCode
		}
		return fmt.Errorf("%w: %s", ErrUnknownEvent, code)
	}
	if info.Category != want {
		return fmt.Errorf("%w: %s is %s, not %s", ErrCategoryMismatch, code, info.Category, want)
	}
	return nil
}

// expand resolves %field% placeholders against r. Unknown placeholders are left as-is.
func (r *Record) expand(template string) string {
	if !strings.Contains(template, "%") {
		return template
	}
	return strings.NewReplacer(
		"%perpetratorID%", r.PerpetratorID,
		"%perpetratorDN%", r.PerpetratorDN,
		"%perpetratorLdapProfile%", r.PerpetratorLdapProfile,
		"%sourceAddress%", r.SourceAddress,
		"%sourceHost%", r.SourceHost,
		"%targetID%", r.TargetID,
		"%targetDN%", r.TargetDN,
		"%targetLdapProfile%", r.TargetLdapProfile,
		"%instance%", r.Instance,
		"%domain%", r.Domain,
		"%message%", r.Message,
		"%eventCode%", string(r.EventCode),
	).Replace(template)
}

// Info returns the catalog entry of the record's event code.
func (r *Record) Info() (EventInfo, bool) {
	return Lookup(r.EventCode)
}

// SubjectDN returns the DN whose history this record belongs to: the target
// for helpdesk actions, otherwise the perpetrator. Empty for SYSTEM records.
func (r *Record) SubjectDN() string {
	if r.Category == CategoryHelpdesk && r.TargetDN != "" {
		return r.TargetDN
	}
	return r.PerpetratorDN
}

// WithText returns a shallow copy carrying a different message and narrative.
// Formatters use it while shrinking a record to fit a length budget.
func (r *Record) WithText(message, narrative string) *Record {
	c := *r
	c.Message = message
	c.Narrative = narrative
	return &c
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r *Record) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(r.Category)).
		Str("event_code", string(r.EventCode)).
		Str("guid", r.GUID).
		Time("timestamp", r.Timestamp)
	if r.Message != "" {
		e.Str("message", r.Message)
	}
	if r.Narrative != "" {
		e.Str("narrative", r.Narrative)
	}
	if r.PerpetratorID != "" {
		e.Str("perpetrator_id", r.PerpetratorID)
	}
	if r.PerpetratorDN != "" {
		e.Str("perpetrator_dn", r.PerpetratorDN)
	}
	if r.SourceAddress != "" {
		e.Str("source_address", r.SourceAddress)
	}
	if r.TargetID != "" {
		e.Str("target_id", r.TargetID)
	}
	if r.TargetDN != "" {
		e.Str("target_dn", r.TargetDN)
	}
	if r.Instance != "" {
		e.Str("instance", r.Instance)
	}
	if r.Domain != "" {
		e.Str("domain", r.Domain)
	}
}
