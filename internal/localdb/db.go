// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package localdb wraps the BadgerDB instance shared by the audit vault and
// the syslog delivery queue.
//
// Each consumer gets its own List, a durable FIFO addressed by a key prefix
// and a monotonically increasing sequence number. Values are appended at the
// tail and only ever removed from the head, which is exactly the access
// pattern both the vault and the delivery queue need.
package localdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/audittrail/internal/logging"
)

var (
	// ErrClosed is returned when the database has been closed.
	ErrClosed = errors.New("local database is closed")

	// ErrGCRunning is returned by Start when the GC loop is already active.
	ErrGCRunning = errors.New("value log GC loop already running")
)

// DB is the local BadgerDB store.
type DB struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool
	lists  map[string]*List

	gcMu      sync.Mutex
	gcCancel  context.CancelFunc
	gcWG      sync.WaitGroup
	gcRunning bool
}

// Open opens (or creates) the BadgerDB directory described by cfg.
func Open(cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid localdb config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Local database opened")

	return &DB{
		db:     db,
		config: cfg,
		lists:  make(map[string]*List),
	}, nil
}

// List returns the durable list stored under name, recovering its head and
// tail positions from disk the first time it is requested.
func (d *DB) List(name string) (*List, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if l, ok := d.lists[name]; ok {
		return l, nil
	}

	l := &List{db: d.db, name: name, prefix: []byte(name + ":")}
	if err := l.recover(); err != nil {
		return nil, fmt.Errorf("recover list %s: %w", name, err)
	}
	d.lists[name] = l

	logging.Debug().
		Str("list", name).
		Int("size", l.Len()).
		Msg("Local list recovered")
	return l, nil
}

// RunGC runs value log garbage collection until nothing more can be rewritten.
func (d *DB) RunGC() error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	d.mu.RUnlock()

	for {
		err := d.db.RunValueLogGC(d.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Start launches the periodic value log GC loop.
func (d *DB) Start(ctx context.Context) error {
	d.gcMu.Lock()
	defer d.gcMu.Unlock()

	if d.gcRunning {
		return ErrGCRunning
	}

	interval := d.config.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	gcCtx, cancel := context.WithCancel(ctx)
	d.gcCancel = cancel
	d.gcRunning = true

	d.gcWG.Add(1)
	go func() {
		defer d.gcWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gcCtx.Done():
				return
			case <-ticker.C:
				if err := d.RunGC(); err != nil && !errors.Is(err, ErrClosed) {
					logging.Warn().Err(err).Msg("Value log GC failed")
				}
			}
		}
	}()
	return nil
}

// Stop halts the GC loop and waits for it to exit.
func (d *DB) Stop() {
	d.gcMu.Lock()
	if !d.gcRunning {
		d.gcMu.Unlock()
		return
	}
	d.gcCancel()
	d.gcRunning = false
	d.gcMu.Unlock()

	d.gcWG.Wait()
}

// IsRunning reports whether the GC loop is active.
func (d *DB) IsRunning() bool {
	d.gcMu.Lock()
	defer d.gcMu.Unlock()
	return d.gcRunning
}

// Close stops the GC loop and closes BadgerDB, giving up after CloseTimeout.
func (d *DB) Close() error {
	d.Stop()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	timeout := d.config.CloseTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- d.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Local database closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
