// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package auditsvc is the entry point for audit records.
//
// A Service accepts records from producers, drops events that are not
// permitted, and hands each accepted record to every configured sink:
//
//   - the audit vault (durable local copy)
//   - alert email
//   - per-user history
//   - the syslog delivery queue
//
// Sinks are independent. A failing sink is logged and counted but never
// prevents delivery to the others and never surfaces an error to the
// producer. The service starts CLOSED, becomes OPEN on Open, and returns to
// CLOSED on Close. A read-only host or a missing vault keeps it CLOSED.
package auditsvc

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/format"
	"github.com/tomtom215/audittrail/internal/history"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/mailer"
	"github.com/tomtom215/audittrail/internal/metrics"
	"github.com/tomtom215/audittrail/internal/supervisor"
	"github.com/tomtom215/audittrail/internal/supervisor/services"
)

// ErrNotOpen is returned by operations that need an open service.
var ErrNotOpen = errors.New("audit service is not open")

// State is the service lifecycle state.
type State int32

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// Vault is the durable record store.
type Vault interface {
	Add(ctx context.Context, r *audit.Record) error
	Size() int
	OldestRecord() (time.Time, bool)
	ReadVault(ctx context.Context) iter.Seq[*audit.Record]
	Close() error
}

// Queue is the syslog delivery queue.
type Queue interface {
	Submit(ctx context.Context, item string) error
	Len() int
	Close(ctx context.Context) error
}

// Framer wraps a formatted payload for the wire.
type Framer interface {
	Frame(r *audit.Record, msg string) string
}

// DeliveryStatus reports the most recent transport failure.
type DeliveryStatus interface {
	LastError() (time.Time, error)
}

// Background is a long-running component supervised while the service is open.
type Background struct {
	Name      string
	Component services.StartStopper
}

// Deps are the collaborators of a Service. Every field is optional; a nil
// Vault keeps the service CLOSED.
type Deps struct {
	Vault     Vault
	Queue     Queue
	Formatter format.Formatter
	Framer    Framer
	Transport DeliveryStatus

	Mailer     mailer.Sender
	History    history.UserHistoryStore
	Statistics metrics.Statistics

	Background []Background
}

// Service records audit events.
type Service struct {
	settings  Settings
	deps      Deps
	permitted map[audit.EventCode]struct{}
	logger    zerolog.Logger
	now       func() time.Time

	state atomic.Int32

	// lifecycle guards Open/Close and the supervisor handles.
	lifecycle sync.Mutex
	supCancel context.CancelFunc
	supDone   <-chan error

	errMu     sync.Mutex
	lastErr   error
	lastErrAt time.Time
}

// New creates a CLOSED service.
func New(settings Settings, deps Deps) (*Service, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if deps.Statistics == nil {
		deps.Statistics = noopStatistics{}
	}

	permitted := make(map[audit.EventCode]struct{}, len(settings.PermittedEvents))
	for _, code := range settings.PermittedEvents {
		permitted[code] = struct{}{}
	}

	return &Service{
		settings:  settings,
		deps:      deps,
		permitted: permitted,
		logger:    logging.WithComponent("auditsvc"),
		now:       time.Now,
	}, nil
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Settings returns the service settings.
func (s *Service) Settings() Settings {
	return s.settings
}

// Open starts the background services and moves the service to OPEN. On a
// read-only host or without a vault the service stays CLOSED and Open
// returns nil: audit is degraded, not fatal.
func (s *Service) Open(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State() == StateOpen {
		return nil
	}
	if s.settings.ReadOnly {
		s.logger.Warn().Msg("Host is read-only, audit service stays closed")
		return nil
	}
	if s.deps.Vault == nil {
		s.logger.Warn().Msg("No durable storage available, audit service stays closed")
		return nil
	}

	sup := supervisor.New("audit-service", logging.NewSlogLogger(), s.settings.Supervision)
	for _, bg := range s.deps.Background {
		sup.Add(services.NewLifecycleService(bg.Name, bg.Component))
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.supCancel = cancel
	s.supDone = sup.ServeBackground(runCtx)

	s.state.Store(int32(StateOpen))
	metrics.SetServiceOpen(true)

	s.logger.Info().
		Int("permitted_events", len(s.permitted)).
		Int("vault_size", s.deps.Vault.Size()).
		Bool("syslog", s.deps.Queue != nil).
		Bool("alerts", s.alertsEnabled()).
		Bool("user_history", s.deps.History != nil).
		Int("background_services", len(s.deps.Background)).
		Msg("Audit service opened")
	return nil
}

// Close moves the service to CLOSED, stops the background services, drains
// the delivery queue within its close timeout and closes the vault.
func (s *Service) Close(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		return nil
	}
	metrics.SetServiceOpen(false)

	if s.supCancel != nil {
		s.supCancel()
		if err := <-s.supDone; err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("Audit background services stopped with error")
		}
		s.supCancel, s.supDone = nil, nil
	}

	var errs []error
	if s.deps.Queue != nil {
		if err := s.deps.Queue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close delivery queue: %w", err))
		}
	}
	if err := s.deps.Vault.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close vault: %w", err))
	}

	s.logger.Info().Msg("Audit service closed")
	return errors.Join(errs...)
}

// Submit records r. It never returns an error: every sink failure is
// logged and counted, and the remaining sinks are still attempted.
func (s *Service) Submit(ctx context.Context, r *audit.Record) {
	log := logging.Ctx(ctx)

	if s.State() != StateOpen {
		metrics.RecordAuditRejected("closed")
		if r != nil {
			log.Debug().Str("event_code", string(r.EventCode)).Msg("Audit service closed, discarding record")
		}
		return
	}
	if r == nil || r.EventCode == "" {
		metrics.RecordAuditRejected("missing_event_code")
		log.Error().Msg("Discarding audit record without event code")
		return
	}
	if _, ok := s.permitted[r.EventCode]; !ok {
		metrics.RecordAuditRejected("not_permitted")
		log.Debug().Str("event_code", string(r.EventCode)).Msg("Audit event not permitted, skipping")
		return
	}

	log.Info().Object("audit", r).Msg("Audit event")

	s.addToVault(ctx, r)
	s.sendAlert(ctx, r)
	s.updateHistory(ctx, r)
	s.enqueueSyslog(ctx, r)

	s.deps.Statistics.Increment(metrics.StatAuditEvents)
	metrics.RecordAuditSubmitted(string(r.Category), string(r.EventCode))
}

func (s *Service) addToVault(ctx context.Context, r *audit.Record) {
	if err := s.deps.Vault.Add(ctx, r); err != nil {
		metrics.RecordSinkFailure("vault")
		logging.Ctx(ctx).Warn().Err(err).Str("guid", r.GUID).Msg("Failed to write audit record to vault")
		return
	}
	s.deps.Statistics.Increment(metrics.StatVaultWrites)
}

func (s *Service) alertsEnabled() bool {
	return s.settings.AlertFrom != "" && s.deps.Mailer != nil
}

func (s *Service) sendAlert(ctx context.Context, r *audit.Record) {
	if !s.alertsEnabled() {
		return
	}
	to := s.settings.UserAlertTo
	if r.Category == audit.CategorySystem {
		to = s.settings.SystemAlertTo
	}
	if len(to) == 0 {
		return
	}

	msg := mailer.AuditMessage(r, s.settings.AppName, s.settings.AlertFrom, to)
	if err := s.deps.Mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrThrottled) {
			return
		}
		metrics.RecordSinkFailure("email")
		logging.Ctx(ctx).Warn().Err(err).Str("guid", r.GUID).Msg("Failed to send audit alert email")
		return
	}
	s.deps.Statistics.Increment(metrics.StatEmailsSent)
}

func (s *Service) updateHistory(ctx context.Context, r *audit.Record) {
	if s.deps.History == nil {
		return
	}
	if r.SubjectDN() == "" {
		logging.Ctx(ctx).Trace().Str("guid", r.GUID).Msg("No subject DN, skipping user history")
		return
	}
	if err := s.deps.History.UpdateUserHistory(ctx, r); err != nil {
		metrics.RecordSinkFailure("history")
		logging.Ctx(ctx).Warn().Err(err).Str("guid", r.GUID).Msg("Failed to update user history")
	}
}

func (s *Service) enqueueSyslog(ctx context.Context, r *audit.Record) {
	if s.deps.Queue == nil || s.deps.Formatter == nil {
		return
	}
	msg, err := s.deps.Formatter.Format(r)
	if err != nil {
		metrics.RecordSinkFailure("format")
		logging.Ctx(ctx).Warn().Err(err).Str("guid", r.GUID).Msg("Failed to format audit record for syslog")
		return
	}
	if s.deps.Framer != nil {
		msg = s.deps.Framer.Frame(r, msg)
	}
	if err := s.deps.Queue.Submit(ctx, msg); err != nil {
		metrics.RecordSinkFailure("syslog")
		s.setLastError(err)
		logging.Ctx(ctx).Warn().Err(err).Str("guid", r.GUID).Msg("Failed to queue audit record for syslog")
		return
	}
	s.deps.Statistics.Increment(metrics.StatSyslogEvents)
}

func (s *Service) setLastError(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.lastErrAt = s.now()
	s.errMu.Unlock()
}

// lastSyslogError returns the most recent syslog failure seen either while
// queueing or by the transport.
func (s *Service) lastSyslogError() (time.Time, error) {
	s.errMu.Lock()
	at, err := s.lastErrAt, s.lastErr
	s.errMu.Unlock()

	if s.deps.Transport != nil {
		if tAt, tErr := s.deps.Transport.LastError(); tErr != nil && tAt.After(at) {
			at, err = tAt, tErr
		}
	}
	return at, err
}

// ReadVault yields vault records newest first. The sequence is empty when
// the service has no vault.
func (s *Service) ReadVault(ctx context.Context) iter.Seq[*audit.Record] {
	if s.deps.Vault == nil {
		return func(func(*audit.Record) bool) {}
	}
	return s.deps.Vault.ReadVault(ctx)
}

// Stats is a point-in-time summary of the service.
type Stats struct {
	State        string     `json:"state"`
	VaultSize    int        `json:"vault_size"`
	OldestRecord *time.Time `json:"oldest_record,omitempty"`
	QueueDepth   int        `json:"queue_depth"`
}

// Stats returns the current summary.
func (s *Service) Stats() Stats {
	st := Stats{State: s.State().String()}
	if s.deps.Vault != nil {
		st.VaultSize = s.deps.Vault.Size()
		if oldest, ok := s.deps.Vault.OldestRecord(); ok {
			st.OldestRecord = &oldest
		}
	}
	if s.deps.Queue != nil {
		st.QueueDepth = s.deps.Queue.Len()
	}
	return st
}

type noopStatistics struct{}

func (noopStatistics) Increment(string) {}
