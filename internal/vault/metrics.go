// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package vault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vaultWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_vault_writes_total",
		Help: "Total number of records appended to the audit vault",
	})

	vaultWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_vault_write_failures_total",
		Help: "Total number of failed audit vault appends",
	})

	vaultRecordsTrimmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_vault_records_trimmed_total",
		Help: "Records removed from the audit vault head, by reason",
	}, []string{"reason"})

	vaultSkippedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_vault_unreadable_entries_total",
		Help: "Stored entries skipped during reads because they could not be parsed",
	})

	vaultSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_vault_records",
		Help: "Current number of records in the audit vault",
	})

	vaultTrimBatch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_vault_trim_batch_size",
		Help: "Current adaptive trimmer batch size",
	})

	vaultTrimPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_vault_trim_pass_duration_seconds",
		Help:    "Duration of a single trimmer pass",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)

const (
	trimReasonCount = "count"
	trimReasonAge   = "age"
)

// RecordVaultWrite increments the vault write counter.
func RecordVaultWrite() {
	vaultWritesTotal.Inc()
}

// RecordVaultWriteFailure increments the failed write counter.
func RecordVaultWriteFailure() {
	vaultWriteFailures.Inc()
}

// RecordVaultTrimmed adds n trimmed records under reason.
func RecordVaultTrimmed(reason string, n int) {
	if n > 0 {
		vaultRecordsTrimmed.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordVaultSkippedEntry increments the unreadable entry counter.
func RecordVaultSkippedEntry() {
	vaultSkippedEntries.Inc()
}

// UpdateVaultSize sets the vault size gauge.
func UpdateVaultSize(n int) {
	vaultSize.Set(float64(n))
}

// RecordTrimPass observes one trimmer pass.
func RecordTrimPass(seconds float64, batch int) {
	vaultTrimPassDuration.Observe(seconds)
	vaultTrimBatch.Set(float64(batch))
}
