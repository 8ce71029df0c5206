// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package workqueue provides a durable FIFO of opaque string items delivered
// by a single background worker.
//
// Items survive restarts because they live in a localdb.List. The worker
// always attempts the oldest item; a Retry result blocks the queue for
// RetryInterval so delivery order is preserved. Items that stay undelivered
// longer than DiscardAge are dropped, as are the oldest items once the backlog
// exceeds MaxQueueSize.
package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/logging"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("delivery queue is closed")

// Result is the outcome of one delivery attempt.
type Result int

const (
	// Success removes the item from the queue.
	Success Result = iota
	// Retry keeps the item at the head and waits RetryInterval before trying again.
	Retry
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Retry:
		return "retry"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Processor delivers a single item.
type Processor interface {
	Process(ctx context.Context, item string) Result
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, item string) Result

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, item string) Result {
	return f(ctx, item)
}

// envelope is the stored form of an item.
type envelope struct {
	ID       string    `json:"id"`
	Item     string    `json:"item"`
	Enqueued time.Time `json:"enqueued"`
}

// step is the outcome of one worker iteration.
type step int

const (
	stepIdle step = iota
	stepDelivered
	stepDropped
	stepRetry
	stepFailed
)

// Queue is a durable delivery queue.
type Queue struct {
	name   string
	list   *localdb.List
	proc   Processor
	config Config
	logger zerolog.Logger
	now    func() time.Time

	// submitMu serializes append and overflow trimming.
	submitMu sync.Mutex
	closed   bool

	// workMu keeps the background worker and the closing drain from
	// attempting the same head concurrently.
	workMu sync.Mutex

	wake chan struct{}

	mu       sync.Mutex
	running  bool
	stopping bool
	cancel   context.CancelFunc
	stopDone chan struct{}
}

// Open attaches a queue named name to db. Items left over from a previous
// run are delivered once the worker is started.
func Open(db *localdb.DB, name string, proc Processor, cfg Config) (*Queue, error) {
	if proc == nil {
		return nil, errors.New("workqueue: processor is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue config: %w", err)
	}
	list, err := db.List("queue." + name)
	if err != nil {
		return nil, fmt.Errorf("open queue list %s: %w", name, err)
	}

	q := &Queue{
		name:   name,
		list:   list,
		proc:   proc,
		config: cfg,
		logger: logging.WithComponent("workqueue").With().Str("queue", name).Logger(),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
	UpdateQueueDepth(name, list.Len())
	if n := list.Len(); n > 0 {
		q.logger.Info().Int("pending", n).Msg("Recovered undelivered queue items")
	}
	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Len returns the number of undelivered items.
func (q *Queue) Len() int { return q.list.Len() }

// Submit durably appends item and returns without waiting for delivery.
func (q *Queue) Submit(ctx context.Context, item string) error {
	data, err := json.Marshal(envelope{
		ID:       uuid.New().String(),
		Item:     item,
		Enqueued: q.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode queue item: %w", err)
	}

	q.submitMu.Lock()
	if q.closed {
		q.submitMu.Unlock()
		return ErrQueueClosed
	}
	if _, err := q.list.Append(data); err != nil {
		q.submitMu.Unlock()
		return fmt.Errorf("append to queue %s: %w", q.name, err)
	}
	RecordQueueSubmit(q.name)

	if over := q.list.Len() - q.config.MaxQueueSize; over > 0 {
		dropped, err := q.list.RemoveHead(over)
		if dropped > 0 {
			RecordQueueDropped(q.name, dropOverflow, dropped)
			logging.Ctx(ctx).Warn().
				Str("queue", q.name).
				Int("dropped", dropped).
				Int("max_size", q.config.MaxQueueSize).
				Msg("Delivery queue full, dropped oldest items")
		}
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("queue", q.name).Msg("Failed to trim delivery queue")
		}
	}
	UpdateQueueDepth(q.name, q.list.Len())
	q.submitMu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the worker. It runs until Stop, Close, or ctx cancellation.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	for q.stopping {
		done := q.stopDone
		q.mu.Unlock()
		<-done
		q.mu.Lock()
	}
	if q.running {
		q.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.running = true
	q.stopDone = make(chan struct{})
	done := q.stopDone
	q.mu.Unlock()

	go q.run(runCtx, done)

	q.logger.Info().
		Dur("retry_interval", q.config.RetryInterval).
		Dur("discard_age", q.config.DiscardAge).
		Msg("Delivery queue worker started")
	return nil
}

// Stop halts the worker and waits for an in-flight attempt to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running || q.stopping {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.running = false
	q.stopping = true
	done := q.stopDone
	q.mu.Unlock()

	<-done

	q.mu.Lock()
	q.stopping = false
	q.mu.Unlock()

	q.logger.Info().Msg("Delivery queue worker stopped")
}

// IsRunning reports whether the worker is active.
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Close rejects further submissions, stops the worker, and makes one final
// attempt to drain the backlog within CloseTimeout or ctx, whichever ends
// first. Items still queued afterwards remain stored for the next run.
func (q *Queue) Close(ctx context.Context) error {
	q.submitMu.Lock()
	if q.closed {
		q.submitMu.Unlock()
		return nil
	}
	q.closed = true
	q.submitMu.Unlock()

	q.Stop()

	if q.config.CloseTimeout > 0 {
		drainCtx, cancel := context.WithTimeout(ctx, q.config.CloseTimeout)
		defer cancel()
		delivered := q.drain(drainCtx)
		if delivered > 0 {
			q.logger.Info().Int("delivered", delivered).Msg("Delivered queue items during close")
		}
	}

	if n := q.list.Len(); n > 0 {
		q.logger.Warn().Int("pending", n).Msg("Delivery queue closed with undelivered items")
	}
	return nil
}

// drain processes items until the queue is empty, an attempt asks for a retry,
// or ctx ends. It returns the number of delivered items.
func (q *Queue) drain(ctx context.Context) int {
	delivered := 0
	for ctx.Err() == nil {
		switch q.processNext(ctx) {
		case stepDelivered:
			delivered++
		case stepDropped:
		default:
			return delivered
		}
	}
	return delivered
}

func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		var wait time.Duration
		wakeable := false

		switch q.processNext(ctx) {
		case stepDelivered, stepDropped:
			continue
		case stepIdle:
			wait, wakeable = q.config.PollInterval, true
		case stepRetry, stepFailed:
			wait = q.config.RetryInterval
		}

		timer := time.NewTimer(wait)
		if wakeable {
			select {
			case <-ctx.Done():
			case <-q.wake:
			case <-timer.C:
			}
		} else {
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		}
		timer.Stop()
	}
}

// processNext attempts the head item once.
func (q *Queue) processNext(ctx context.Context) step {
	q.workMu.Lock()
	defer q.workMu.Unlock()

	head, ok, err := q.list.Peek()
	if err != nil {
		q.logger.Error().Err(err).Msg("Failed to read delivery queue head")
		return stepFailed
	}
	if !ok {
		return stepIdle
	}

	var env envelope
	if err := json.Unmarshal(head.Value, &env); err != nil {
		q.logger.Warn().Err(err).Uint64("seq", head.Seq).Msg("Dropping unreadable queue item")
		return q.dropHead(head.Seq, dropCorrupt)
	}

	age := q.now().Sub(env.Enqueued)
	if q.config.DiscardAge > 0 && age > q.config.DiscardAge {
		q.logger.Warn().
			Str("item_id", env.ID).
			Dur("age", age).
			Dur("discard_age", q.config.DiscardAge).
			Msg("Discarding undeliverable queue item")
		return q.dropHead(head.Seq, dropExpired)
	}

	if q.proc.Process(ctx, env.Item) == Retry {
		RecordQueueRetry(q.name)
		q.logger.Debug().Str("item_id", env.ID).Dur("age", age).Msg("Delivery failed, will retry")
		return stepRetry
	}

	if _, err := q.list.RemoveThrough(head.Seq); err != nil {
		q.logger.Error().Err(err).Str("item_id", env.ID).Msg("Failed to remove delivered queue item")
		return stepFailed
	}
	RecordQueueDelivery(q.name, q.now().Sub(env.Enqueued).Seconds())
	UpdateQueueDepth(q.name, q.list.Len())
	return stepDelivered
}

func (q *Queue) dropHead(seq uint64, reason string) step {
	n, err := q.list.RemoveThrough(seq)
	if err != nil {
		q.logger.Error().Err(err).Msg("Failed to drop queue item")
		return stepFailed
	}
	RecordQueueDropped(q.name, reason, n)
	UpdateQueueDepth(q.name, q.list.Len())
	return stepDropped
}
