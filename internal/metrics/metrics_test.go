// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusStatistics(t *testing.T) {
	stats := NewPrometheusStatistics()
	before := testutil.ToFloat64(StatisticsCounter.WithLabelValues("TEST_STAT"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.Increment("TEST_STAT")
		}()
	}
	wg.Wait()

	if got := stats.Snapshot()["TEST_STAT"]; got != 10 {
		t.Errorf("snapshot = %d, want 10", got)
	}
	if got := testutil.ToFloat64(StatisticsCounter.WithLabelValues("TEST_STAT")) - before; got != 10 {
		t.Errorf("counter delta = %v, want 10", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	stats := NewPrometheusStatistics()
	stats.Increment("A")
	snap := stats.Snapshot()
	snap["A"] = 99
	if stats.Snapshot()["A"] != 1 {
		t.Error("Snapshot must not alias internal state")
	}
}

func TestSetServiceOpen(t *testing.T) {
	SetServiceOpen(true)
	if v := testutil.ToFloat64(AuditServiceOpen); v != 1 {
		t.Errorf("open gauge = %v, want 1", v)
	}
	SetServiceOpen(false)
	if v := testutil.ToFloat64(AuditServiceOpen); v != 0 {
		t.Errorf("open gauge = %v, want 0", v)
	}
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(SyslogSends.WithLabelValues("udp,h,514", "success"))
	RecordSyslogSend("udp,h,514", "success", time.Millisecond)
	RecordSyslogSend("udp,h,514", "rejected", 0)
	if got := testutil.ToFloat64(SyslogSends.WithLabelValues("udp,h,514", "success")) - before; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}

	RecordAPIRequest("GET", "/api/v1/health", 200, 5*time.Millisecond)
	if v := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200")); v < 1 {
		t.Errorf("api counter = %v", v)
	}

	TrackActiveRequest(true)
	TrackActiveRequest(false)
	RecordAuditSubmitted("USER", "AUTHENTICATE")
	RecordAuditRejected("not_permitted")
	RecordSinkFailure("vault")
	RecordEmailSend("throttled")
	SetAppInfo("test", time.Unix(1700000000, 0))
	if v := testutil.ToFloat64(AppStartTime); v != 1700000000 {
		t.Errorf("start time = %v", v)
	}
}
