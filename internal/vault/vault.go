// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package vault is the durable, bounded store of raw audit records.
//
// Records are appended in submission order to a localdb.List and only ever
// removed from the head. Two retention policies apply independently:
//
//   - Count: Add trims the head back to MaxRecordCount before returning.
//   - Age: a background Trimmer removes head records older than MaxRecordAge
//     in passes whose size adapts to a target pass duration.
//
// The timestamp of the head record is cached and refreshed after every
// removal, so OldestRecord is cheap and always consistent with the store.
package vault

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/logging"
)

// ListName is the localdb list holding vault records.
const ListName = "auditvault"

var (
	// ErrVaultClosed is returned by Add after Close.
	ErrVaultClosed = errors.New("audit vault is closed")

	// ErrNilRecord is returned when Add is given a nil record.
	ErrNilRecord = errors.New("audit record cannot be nil")
)

// unreadableTimestamp stands in for the timestamp of a head entry that
// cannot be parsed, so the age policy removes it on the next pass.
var unreadableTimestamp = time.Unix(0, 0).UTC()

// Vault stores audit records.
type Vault struct {
	list   *localdb.List
	config Config
	logger zerolog.Logger

	// mu serializes appends with head removal and guards the cached head timestamp.
	mu        sync.Mutex
	oldest    time.Time
	hasOldest bool
	closed    bool

	trimmer *Trimmer
}

// Open attaches a vault to db.
func Open(db *localdb.DB, cfg Config) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vault config: %w", err)
	}
	list, err := db.List(ListName)
	if err != nil {
		return nil, fmt.Errorf("open vault list: %w", err)
	}

	v := &Vault{
		list:   list,
		config: cfg,
		logger: logging.WithComponent("vault"),
	}
	v.mu.Lock()
	v.refreshOldestLocked()
	v.mu.Unlock()
	v.trimmer = newTrimmer(v)

	UpdateVaultSize(list.Len())
	v.logger.Info().
		Int("size", list.Len()).
		Int("max_records", cfg.MaxRecordCount).
		Dur("max_age", cfg.MaxRecordAge).
		Msg("Audit vault opened")
	return v, nil
}

// Add appends r at the tail. If the vault then holds more than
// MaxRecordCount records, the excess is removed from the head before Add returns.
func (v *Vault) Add(ctx context.Context, r *audit.Record) error {
	if r == nil {
		return ErrNilRecord
	}
	data, err := audit.Marshal(r)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrVaultClosed
	}

	wasEmpty := v.list.Len() == 0
	if _, err := v.list.Append(data); err != nil {
		RecordVaultWriteFailure()
		return fmt.Errorf("append audit record %s: %w", r.GUID, err)
	}
	RecordVaultWrite()
	if wasEmpty {
		v.oldest = r.Timestamp
		v.hasOldest = true
	}

	if over := v.list.Len() - v.config.MaxRecordCount; over > 0 {
		if _, err := v.removeHeadLocked(over, trimReasonCount); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("excess", over).Msg("Vault count trim failed")
		}
	}

	UpdateVaultSize(v.list.Len())
	return nil
}

// Size returns the current record count.
func (v *Vault) Size() int {
	return v.list.Len()
}

// OldestRecord returns the timestamp of the head record, or false if the vault is empty.
func (v *Vault) OldestRecord() (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.oldest, v.hasOldest
}

// Config returns the vault configuration.
func (v *Vault) Config() Config {
	return v.config
}

// Trimmer returns the background retention trimmer.
func (v *Vault) Trimmer() *Trimmer {
	return v.trimmer
}

// ReadVault yields records newest first. Entries that cannot be parsed are
// logged and skipped; a storage error ends the sequence.
func (v *Vault) ReadVault(ctx context.Context) iter.Seq[*audit.Record] {
	return func(yield func(*audit.Record) bool) {
		for entry, err := range v.list.Descending(ctx, v.config.ReadPageSize) {
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Vault read aborted")
				return
			}
			rec, err := audit.Unmarshal(entry.Value)
			if err != nil {
				RecordVaultSkippedEntry()
				v.logger.Warn().Err(err).Uint64("seq", entry.Seq).Msg("Skipping unreadable vault entry")
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// removeHead removes up to n head records under the vault lock.
func (v *Vault) removeHead(n int, reason string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.removeHeadLocked(n, reason)
}

func (v *Vault) removeHeadLocked(n int, reason string) (int, error) {
	removed, err := v.list.RemoveHead(n)
	if removed > 0 {
		RecordVaultTrimmed(reason, removed)
		UpdateVaultSize(v.list.Len())
	}
	v.refreshOldestLocked()
	return removed, err
}

// refreshOldestLocked re-reads the head timestamp. Caller holds v.mu.
func (v *Vault) refreshOldestLocked() {
	head, ok, err := v.list.Peek()
	if err != nil {
		v.logger.Warn().Err(err).Msg("Failed to read vault head")
		return
	}
	if !ok {
		v.oldest, v.hasOldest = time.Time{}, false
		return
	}
	rec, err := audit.Unmarshal(head.Value)
	if err != nil {
		v.logger.Warn().Err(err).Uint64("seq", head.Seq).Msg("Vault head is unreadable, treating it as expired")
		v.oldest, v.hasOldest = unreadableTimestamp, true
		return
	}
	v.oldest, v.hasOldest = rec.Timestamp, true
}

// Close stops the trimmer and rejects further writes. The underlying
// localdb is owned by the caller and stays open.
func (v *Vault) Close() error {
	v.trimmer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.logger.Info().Int("size", v.list.Len()).Msg("Audit vault closed")
	return nil
}
