// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/audittrail/internal/auditsvc"
)

// AuditService is the part of *auditsvc.Service the admin API reads.
type AuditService interface {
	Health() []auditsvc.HealthRecord
	Stats() auditsvc.Stats
	Settings() auditsvc.Settings
	OutputVaultToCSV(ctx context.Context, w io.Writer, opts auditsvc.CSVOptions) (int, error)
}

// Counters exposes in-process statistic counters, see metrics.PrometheusStatistics.
type Counters interface {
	Snapshot() map[string]uint64
}

// Options tune the router.
type Options struct {
	// RateLimit is requests per minute per client IP on /api/v1/audit. Zero disables it.
	RateLimit int
}

// Router owns the admin API handlers.
type Router struct {
	svc      AuditService
	counters Counters
	opts     Options
	now      func() time.Time
}

// NewRouter creates a router. counters may be nil.
func NewRouter(svc AuditService, counters Counters, opts Options) *Router {
	return &Router{svc: svc, counters: counters, opts: opts, now: time.Now}
}

// Handler builds the chi route tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", router.HealthLive)
		r.Get("/", router.Health)
	})

	r.Route("/api/v1/audit", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		if router.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(router.opts.RateLimit, time.Minute))
		}
		r.Use(PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "text/csv", "application/json"))
		r.Get("/stats", router.Stats)
		r.Get("/events", router.Events)
		r.Get("/vault.csv", router.VaultCSV)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
	})
	return r
}
