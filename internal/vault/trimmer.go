// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package vault

import (
	"context"
	"sync"
	"time"
)

// PassResult describes one trimmer pass.
type PassResult struct {
	CountRemoved int
	AgeRemoved   int
	Duration     time.Duration
	// Batch is the batch size used for the pass.
	Batch int
}

// Removed returns the total number of records removed by the pass.
func (p PassResult) Removed() int {
	return p.CountRemoved + p.AgeRemoved
}

// RunStats aggregates the passes of one trimmer run.
type RunStats struct {
	Passes  int
	Removed int
	Elapsed time.Duration
}

// Trimmer enforces retention in the background. Each run repeats passes
// until there is nothing left to remove, pausing TrimTargetDuration between
// passes. A pass removes at most one batch; the batch grows or shrinks so
// that a pass takes roughly TrimTargetDuration.
type Trimmer struct {
	vault  *Vault
	config Config
	now    func() time.Time

	// runMu keeps passes from overlapping (background loop vs. RunOnce).
	runMu sync.Mutex
	batch int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	lastRun RunStats
}

func newTrimmer(v *Vault) *Trimmer {
	return &Trimmer{
		vault:  v,
		config: v.config,
		now:    time.Now,
		batch:  v.config.MinBatch,
	}
}

// Start begins the periodic trim loop. A run happens immediately, then every TrimInterval.
func (t *Trimmer) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.running = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.loop()

	t.vault.logger.Info().Dur("interval", t.config.TrimInterval).Msg("Vault trimmer started")
	return nil
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (t *Trimmer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.cancel()
	t.running = false
	t.mu.Unlock()

	t.wg.Wait()
	t.vault.logger.Info().Msg("Vault trimmer stopped")
}

// IsRunning reports whether the loop is active.
func (t *Trimmer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// LastRun returns the statistics of the most recent run.
func (t *Trimmer) LastRun() RunStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun
}

// BatchSize returns the current adaptive batch size.
func (t *Trimmer) BatchSize() int {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	return t.batch
}

func (t *Trimmer) loop() {
	defer t.wg.Done()

	t.RunOnce(t.ctx)

	ticker := time.NewTicker(t.config.TrimInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.RunOnce(t.ctx)
		}
	}
}

// RunOnce repeats passes until one removes nothing or ctx is cancelled.
func (t *Trimmer) RunOnce(ctx context.Context) RunStats {
	start := t.now()
	var stats RunStats

	for ctx.Err() == nil {
		res := t.Pass()
		stats.Passes++
		stats.Removed += res.Removed()
		if res.Removed() == 0 {
			break
		}

		pause := time.NewTimer(t.config.TrimTargetDuration)
		select {
		case <-ctx.Done():
			pause.Stop()
		case <-pause.C:
		}
	}
	stats.Elapsed = t.now().Sub(start)

	t.mu.Lock()
	t.lastRun = stats
	t.mu.Unlock()

	if stats.Removed > 0 {
		t.vault.logger.Info().
			Int("removed", stats.Removed).
			Int("passes", stats.Passes).
			Int("size", t.vault.Size()).
			Dur("elapsed", stats.Elapsed).
			Msg("Vault trim run complete")
	}
	return stats
}

// Pass runs a single trim pass:
//  1. if the vault exceeds MaxRecordCount by more than one batch, remove one batch;
//  2. while the head is older than MaxRecordAge and the batch budget remains, remove one record;
//  3. resize the batch from the pass duration.
func (t *Trimmer) Pass() PassResult {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	start := t.now()
	res := PassResult{Batch: t.batch}
	budget := t.batch

	if size := t.vault.Size(); size > t.config.MaxRecordCount+t.batch {
		n, err := t.vault.removeHead(t.batch, trimReasonCount)
		if err != nil {
			t.vault.logger.Warn().Err(err).Msg("Vault count trim failed")
		}
		res.CountRemoved = n
		budget -= n
	}

	if t.config.MaxRecordAge > 0 {
		for budget > 0 {
			oldest, ok := t.vault.OldestRecord()
			if !ok || t.now().Sub(oldest) <= t.config.MaxRecordAge {
				break
			}
			n, err := t.vault.removeHead(1, trimReasonAge)
			if err != nil {
				t.vault.logger.Warn().Err(err).Msg("Vault age trim failed")
				break
			}
			if n == 0 {
				break
			}
			res.AgeRemoved += n
			budget -= n
		}
	}

	res.Duration = t.now().Sub(start)
	if res.Removed() > 0 {
		t.batch = nextBatch(t.batch, res.Removed(), res.Duration, t.config)
	}
	RecordTrimPass(res.Duration.Seconds(), t.batch)
	return res
}

// nextBatch scales the batch toward TrimTargetDuration. Slow passes always
// shrink it; fast passes only grow it when they used the whole batch.
// A single step changes the batch by at most a factor of two.
func nextBatch(current, worked int, elapsed time.Duration, cfg Config) int {
	if elapsed <= 0 {
		elapsed = time.Microsecond
	}
	target := cfg.TrimTargetDuration

	next := current
	switch {
	case elapsed > target:
		next = int(float64(current) * float64(target) / float64(elapsed))
		next = max(next, current/2)
	case worked >= current:
		next = int(float64(current) * float64(target) / float64(elapsed))
		next = min(next, current*2)
	}
	return min(max(next, cfg.MinBatch), cfg.MaxBatch)
}
