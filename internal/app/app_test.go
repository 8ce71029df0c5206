// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/auditsvc"
	"github.com/tomtom215/audittrail/internal/config"
	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/metrics"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	yaml := "app:\n  name: Audit Test\n  instance_id: test-01\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	cfg.Storage = localdb.TestConfig(filepath.Join(dir, "localdb"))
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func changePassword(t *testing.T) *audit.Record {
	t.Helper()
	rec, err := audit.NewUserRecord(audit.EventChangePassword,
		audit.Identity{ID: "jdoe", DN: "cn=jdoe,o=org"},
		audit.Source{Address: "10.0.0.1", Host: "ws1"},
		"", "default")
	if err != nil {
		t.Fatalf("NewUserRecord failed: %v", err)
	}
	return rec
}

func TestBuildRecordsAndPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := Build(testConfig(t, dir))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if a.DB == nil || a.Vault == nil || a.Queue == nil || a.History == nil {
		t.Fatalf("components missing: %+v", a)
	}
	if err := a.Service.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a.Service.State() != auditsvc.StateOpen {
		t.Fatalf("state = %v, want OPEN", a.Service.State())
	}

	a.Service.Submit(ctx, changePassword(t))

	if got := a.Vault.Size(); got != 1 {
		t.Errorf("vault size = %d, want 1", got)
	}
	hist, err := a.History.ReadUserHistory(ctx, "cn=jdoe,o=org")
	if err != nil || len(hist) != 1 {
		t.Errorf("user history = %d records, %v", len(hist), err)
	}
	if n := a.Statistics.Snapshot()[metrics.StatAuditEvents]; n != 1 {
		t.Errorf("%s = %d, want 1", metrics.StatAuditEvents, n)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	vaultOnly := &App{Vault: a.Vault}
	if n := vaultOnly.PendingSyslog(); n != 0 {
		t.Errorf("PendingSyslog with vault but no queue = %d, want 0", n)
	}

	reopened, err := Build(testConfig(t, dir))
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	defer reopened.Close(ctx)
	if got := reopened.Vault.Size(); got != 1 {
		t.Errorf("vault size after reopen = %d, want 1", got)
	}
}

func TestBuildReadOnlyHost(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.App.ReadOnly = true

	a, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer a.Close(context.Background())

	if a.DB != nil || a.Vault != nil || a.Queue != nil {
		t.Error("read-only host must not open storage")
	}
	if n := a.PendingSyslog(); n != 0 {
		t.Errorf("PendingSyslog = %d, want 0 without a queue", n)
	}
	a.Service.Open(context.Background())
	if a.Service.State() != auditsvc.StateClosed {
		t.Errorf("state = %v, want CLOSED", a.Service.State())
	}
}

func TestBuildDegradedStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Storage.Path = filepath.Join(blocker, "localdb")

	a, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build should degrade, got %v", err)
	}
	defer a.Close(context.Background())

	if a.Vault != nil {
		t.Fatal("expected no vault")
	}
	a.Service.Open(context.Background())
	health := a.Service.Health()
	if auditsvc.OverallHealth(health) != auditsvc.HealthWarn {
		t.Errorf("health = %+v, want WARN", health)
	}
}

func TestBuildRejectsBadEventConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Events.Permitted = []string{"NOT_AN_EVENT"}
	if _, err := Build(cfg); err == nil {
		t.Error("expected error for unknown event code")
	}
}
