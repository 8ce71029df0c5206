// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package auditsvc

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/logging"
)

// HealthMonitor polls Service.Health and records a HEALTH_CHANGE event
// whenever the overall picture changes.
type HealthMonitor struct {
	svc      *Service
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopping bool
	cancel   context.CancelFunc
	stopDone chan struct{}

	checkMu sync.Mutex
	last    string
	primed  bool
}

// NewHealthMonitor creates a monitor. A non-positive interval defaults to one minute.
func NewHealthMonitor(svc *Service, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HealthMonitor{svc: svc, interval: interval}
}

// Start begins polling.
func (m *HealthMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	for m.stopping {
		done := m.stopDone
		m.mu.Unlock()
		<-done
		m.mu.Lock()
	}
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.stopDone = make(chan struct{})
	done := m.stopDone
	m.mu.Unlock()

	go m.run(runCtx, done)
	return nil
}

// Stop halts polling and waits for the goroutine to exit.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	if !m.running || m.stopping {
		m.mu.Unlock()
		return
	}
	m.cancel()
	m.running = false
	m.stopping = true
	done := m.stopDone
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	m.stopping = false
	m.mu.Unlock()
}

func (m *HealthMonitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check compares the current health with the previous check and records a
// HEALTH_CHANGE event when it differs. The first check only sets the baseline.
// It reports whether an event was submitted.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	records := m.svc.Health()
	key := healthKey(records)

	m.checkMu.Lock()
	changed := m.primed && key != m.last
	m.last, m.primed = key, true
	m.checkMu.Unlock()

	if !changed {
		return false
	}

	summary := summarize(records)
	logging.Ctx(ctx).Info().Str("health", summary).Msg("Health status changed")
	rec, err := audit.NewSystemRecord(audit.EventHealthChange, summary, m.svc.settings.InstanceID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to build health change record")
		return false
	}
	m.svc.Submit(ctx, rec)
	return true
}

// healthKey identifies the set of findings by status and topic. A repeated
// failure with a new timestamp yields the same key.
func healthKey(records []HealthRecord) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = string(r.Status) + "/" + r.Topic
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// summarize renders records as "STATUS" or "STATUS: topic message; ...".
func summarize(records []HealthRecord) string {
	overall := string(OverallHealth(records))
	if len(records) == 0 {
		return overall
	}
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.Topic + " " + r.Message
	}
	sort.Strings(parts)
	return overall + ": " + strings.Join(parts, "; ")
}
