// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package vault

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestTrimmerRemovesExpiredRecords(t *testing.T) {
	cfg := testConfig()
	cfg.MinBatch = 2
	v, _ := setupVault(t, cfg)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 7; i++ {
		v.Add(ctx, newRecord(t, fmt.Sprintf("old%d", i), now.Add(-3*time.Hour)))
	}
	fresh := newRecord(t, "fresh", now.Add(-time.Minute))
	v.Add(ctx, fresh)
	v.Add(ctx, newRecord(t, "fresher", now))

	stats := v.Trimmer().RunOnce(ctx)
	if stats.Removed != 7 {
		t.Fatalf("Removed = %d, want 7", stats.Removed)
	}
	if stats.Passes < 2 {
		t.Errorf("Passes = %d, a batch of %d cannot remove 7 in one pass", stats.Passes, cfg.MinBatch)
	}
	if v.Size() != 2 {
		t.Errorf("Size = %d, want 2", v.Size())
	}

	oldest, ok := v.OldestRecord()
	if !ok || !oldest.Equal(fresh.Timestamp) {
		t.Errorf("OldestRecord = %v, want %v", oldest, fresh.Timestamp)
	}
	if time.Since(oldest) > cfg.MaxRecordAge {
		t.Error("a record older than MaxRecordAge survived the run")
	}
}

func TestTrimmerPassRespectsBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MinBatch = 3
	v, _ := setupVault(t, cfg)

	for i := 0; i < 10; i++ {
		v.Add(context.Background(), newRecord(t, "old", time.Now().Add(-2*time.Hour)))
	}

	res := v.Trimmer().Pass()
	if res.Batch != 3 {
		t.Fatalf("Batch = %d, want 3", res.Batch)
	}
	if res.AgeRemoved != 3 {
		t.Errorf("AgeRemoved = %d, want 3", res.AgeRemoved)
	}
	if v.Size() != 7 {
		t.Errorf("Size = %d, want 7", v.Size())
	}
}

func TestTrimmerCountOverflowRemovesBatch(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRecordCount = 20
	cfg.MaxRecordAge = 0
	cfg.MinBatch = 4
	v, _ := setupVault(t, cfg)
	for i := 0; i < 20; i++ {
		v.Add(context.Background(), newRecord(t, "r", time.Time{}))
	}

	// Simulate a lowered cap, as after a configuration change and restart.
	v.config.MaxRecordCount = 5
	v.trimmer.config.MaxRecordCount = 5

	res := v.Trimmer().Pass()
	if res.CountRemoved != 4 {
		t.Errorf("CountRemoved = %d, want 4", res.CountRemoved)
	}
	if v.Size() != 16 {
		t.Errorf("Size = %d, want 16", v.Size())
	}
}

func TestTrimmerIdleRunDoesNothing(t *testing.T) {
	v, _ := setupVault(t, testConfig())
	v.Add(context.Background(), newRecord(t, "fresh", time.Time{}))

	stats := v.Trimmer().RunOnce(context.Background())
	if stats.Removed != 0 || stats.Passes != 1 {
		t.Errorf("stats = %+v, want one empty pass", stats)
	}
	if v.Trimmer().LastRun().Passes != 1 {
		t.Error("LastRun not recorded")
	}
}

func TestTrimmerStartStop(t *testing.T) {
	v, _ := setupVault(t, testConfig())
	tr := v.Trimmer()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !tr.IsRunning() {
		t.Error("expected trimmer running")
	}
	tr.Stop()
	if tr.IsRunning() {
		t.Error("expected trimmer stopped")
	}
	tr.Stop()
}

func TestNextBatch(t *testing.T) {
	t.Parallel()

	cfg := Config{TrimTargetDuration: 100 * time.Millisecond, MinBatch: 3, MaxBatch: 5000}

	tests := []struct {
		name    string
		current int
		worked  int
		elapsed time.Duration
		want    int
	}{
		{"fast full pass doubles", 100, 100, 10 * time.Millisecond, 200},
		{"fast partial pass holds", 100, 40, 10 * time.Millisecond, 100},
		{"on target holds", 100, 100, 100 * time.Millisecond, 100},
		{"slightly slow scales down", 100, 100, 125 * time.Millisecond, 80},
		{"very slow halves", 100, 100, time.Second, 50},
		{"floor", 4, 4, time.Second, 3},
		{"ceiling", 4000, 4000, time.Millisecond, 5000},
		{"zero elapsed", 10, 10, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := nextBatch(tt.current, tt.worked, tt.elapsed, cfg); got != tt.want {
				t.Errorf("nextBatch(%d, %d, %v) = %d, want %d", tt.current, tt.worked, tt.elapsed, got, tt.want)
			}
		})
	}
}
