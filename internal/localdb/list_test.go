// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package localdb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Open(TestConfig(dir))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func appendN(t *testing.T, l *List, from, to int) {
	t.Helper()
	for i := from; i < to; i++ {
		if _, err := l.Append([]byte(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}
}

func TestListAppendPeekRemove(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	l, err := db.List("vault")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if _, ok, err := l.Peek(); err != nil || ok {
		t.Fatalf("Peek on empty list = ok %v err %v, want false nil", ok, err)
	}

	appendN(t, l, 0, 5)
	if l.Len() != 5 {
		t.Fatalf("Len = %d, want 5", l.Len())
	}

	head, ok, err := l.Peek()
	if err != nil || !ok {
		t.Fatalf("Peek failed: ok=%v err=%v", ok, err)
	}
	if string(head.Value) != "v0" || head.Seq != 0 {
		t.Errorf("Peek = %d/%s, want 0/v0", head.Seq, head.Value)
	}

	n, err := l.RemoveHead(2)
	if err != nil || n != 2 {
		t.Fatalf("RemoveHead(2) = %d, %v", n, err)
	}
	if l.Len() != 3 {
		t.Errorf("Len after remove = %d, want 3", l.Len())
	}
	head, _, _ = l.Peek()
	if string(head.Value) != "v2" {
		t.Errorf("head after remove = %s, want v2", head.Value)
	}

	n, err = l.RemoveHead(10)
	if err != nil || n != 3 {
		t.Fatalf("RemoveHead(10) = %d, %v, want 3", n, err)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestListRemoveThroughIgnoresStaleSequence(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	l, _ := db.List("queue")
	appendN(t, l, 0, 4)

	if n, err := l.RemoveThrough(1); err != nil || n != 2 {
		t.Fatalf("RemoveThrough(1) = %d, %v, want 2", n, err)
	}
	if n, err := l.RemoveThrough(0); err != nil || n != 0 {
		t.Fatalf("RemoveThrough(0) on removed seq = %d, %v, want 0", n, err)
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestListDescendingPages(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	l, _ := db.List("vault")
	appendN(t, l, 0, 10)
	if _, err := l.RemoveHead(3); err != nil {
		t.Fatalf("RemoveHead failed: %v", err)
	}

	var got []string
	for e, err := range l.Descending(context.Background(), 3) {
		if err != nil {
			t.Fatalf("Descending error: %v", err)
		}
		got = append(got, string(e.Value))
	}

	want := []string{"v9", "v8", "v7", "v6", "v5", "v4", "v3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListsAreIsolatedByPrefix(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	a, _ := db.List("vault")
	b, _ := db.List("vault2")
	appendN(t, a, 0, 3)
	appendN(t, b, 0, 1)

	if a.Len() != 3 || b.Len() != 1 {
		t.Fatalf("Len = %d/%d, want 3/1", a.Len(), b.Len())
	}
	head, _, _ := b.Peek()
	if string(head.Value) != "v0" {
		t.Errorf("b head = %s", head.Value)
	}
}

func TestListRecoversAfterReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	db := openTestDB(t, dir)
	l, _ := db.List("vault")
	appendN(t, l, 0, 6)
	if _, err := l.RemoveHead(2); err != nil {
		t.Fatalf("RemoveHead failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	l, err := db.List("vault")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if l.Len() != 4 {
		t.Fatalf("recovered Len = %d, want 4", l.Len())
	}
	seq, err := l.Append([]byte("v6"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if seq != 6 {
		t.Errorf("next seq = %d, want 6", seq)
	}
}

func TestClosedDBRejectsList(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := db.List("vault"); err != ErrClosed {
		t.Errorf("List after close = %v, want ErrClosed", err)
	}
	if err := db.RunGC(); err != ErrClosed {
		t.Errorf("RunGC after close = %v, want ErrClosed", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestGCLoopStartStop(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	if err := db.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !db.IsRunning() {
		t.Error("expected GC loop running")
	}
	if err := db.Start(context.Background()); err != ErrGCRunning {
		t.Errorf("second Start = %v, want ErrGCRunning", err)
	}
	db.Stop()
	if db.IsRunning() {
		t.Error("expected GC loop stopped")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing path", func(c *Config) { c.Path = "" }, "Path"},
		{"small memtable", func(c *Config) { c.MemTableSize = 10 }, "MemTableSize"},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }, "NumCompactors"},
		{"bad gc ratio", func(c *Config) { c.GCRatio = 1 }, "GCRatio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := TestConfig("/tmp/x")
			tt.mutate(&cfg)
			err := cfg.Validate()
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %s, want %s", ce.Field, tt.field)
			}
		})
	}
}
