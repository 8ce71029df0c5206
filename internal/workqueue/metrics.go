// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package workqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons.
const (
	dropOverflow = "overflow"
	dropExpired  = "expired"
	dropCorrupt  = "corrupt"
)

var (
	queueSubmitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_queue_submits_total",
		Help: "Total number of items submitted to a delivery queue",
	}, []string{"queue"})

	queueDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_queue_deliveries_total",
		Help: "Total number of items delivered successfully",
	}, []string{"queue"})

	queueRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_queue_retries_total",
		Help: "Total number of delivery attempts that asked for a retry",
	}, []string{"queue"})

	queueDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_queue_dropped_total",
		Help: "Total number of items dropped without delivery",
	}, []string{"queue", "reason"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "audit_queue_depth",
		Help: "Current number of undelivered items",
	}, []string{"queue"})

	queueDeliveryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audit_queue_delivery_latency_seconds",
		Help:    "Time from submission to successful delivery",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300, 3600},
	}, []string{"queue"})
)

// RecordQueueSubmit records a submitted item.
func RecordQueueSubmit(queue string) {
	queueSubmitsTotal.WithLabelValues(queue).Inc()
}

// RecordQueueDelivery records a delivered item and its time in queue.
func RecordQueueDelivery(queue string, latencySeconds float64) {
	queueDeliveriesTotal.WithLabelValues(queue).Inc()
	queueDeliveryLatency.WithLabelValues(queue).Observe(latencySeconds)
}

// RecordQueueRetry records a Retry result.
func RecordQueueRetry(queue string) {
	queueRetriesTotal.WithLabelValues(queue).Inc()
}

// RecordQueueDropped records n items dropped for reason.
func RecordQueueDropped(queue, reason string, n int) {
	queueDroppedTotal.WithLabelValues(queue, reason).Add(float64(n))
}

// UpdateQueueDepth sets the backlog gauge.
func UpdateQueueDepth(queue string, n int) {
	queueDepth.WithLabelValues(queue).Set(float64(n))
}
