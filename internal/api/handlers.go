// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/text/language"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/auditsvc"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/validation"
)

// HealthLive reports that the process is serving requests.
func (router *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

type healthResponse struct {
	Status  auditsvc.HealthStatus   `json:"status"`
	Records []auditsvc.HealthRecord `json:"records"`
}

// Health returns the audit health records. An overall WARN is served as 503.
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	records := router.svc.Health()
	if records == nil {
		records = []auditsvc.HealthRecord{}
	}
	overall := auditsvc.OverallHealth(records)

	status := http.StatusOK
	if overall == auditsvc.HealthWarn {
		status = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).SuccessWithStatus(status, healthResponse{Status: overall, Records: records})
}

type statsResponse struct {
	auditsvc.Stats
	Counters map[string]uint64 `json:"counters,omitempty"`
}

// Stats returns the service summary and statistic counters.
func (router *Router) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Stats: router.svc.Stats()}
	if router.counters != nil {
		resp.Counters = router.counters.Snapshot()
	}
	NewResponseWriter(w, r).Success(resp)
}

type eventResponse struct {
	Code      audit.EventCode `json:"code"`
	Category  audit.Category  `json:"category"`
	Name      string          `json:"name"`
	Severity  int             `json:"severity"`
	Permitted bool            `json:"permitted"`
}

// Events lists the event catalog with the permitted flag of this instance.
func (router *Router) Events(w http.ResponseWriter, r *http.Request) {
	permitted := make(map[audit.EventCode]bool)
	for _, code := range router.svc.Settings().PermittedEvents {
		permitted[code] = true
	}

	codes := audit.Codes()
	out := make([]eventResponse, 0, len(codes))
	for _, code := range codes {
		info, _ := audit.Lookup(code)
		out = append(out, eventResponse{
			Code:      code,
			Category:  info.Category,
			Name:      info.Name,
			Severity:  info.Severity,
			Permitted: permitted[code],
		})
	}
	NewResponseWriter(w, r).Success(out)
}

// vaultExportQuery holds the query parameters of VaultCSV.
type vaultExportQuery struct {
	Lang   string `validate:"omitempty,bcp47_language_tag"`
	Header string `validate:"omitempty,boolean"`
}

func (q vaultExportQuery) options() auditsvc.CSVOptions {
	opts := auditsvc.CSVOptions{Language: language.English, IncludeHeader: true}
	if q.Lang != "" {
		if tag, err := language.Parse(q.Lang); err == nil {
			opts.Language = tag
		}
	}
	if q.Header != "" {
		opts.IncludeHeader, _ = strconv.ParseBool(q.Header)
	}
	return opts
}

// VaultCSV streams the vault as CSV, newest record first.
func (router *Router) VaultCSV(w http.ResponseWriter, r *http.Request) {
	query := vaultExportQuery{
		Lang:   r.URL.Query().Get("lang"),
		Header: r.URL.Query().Get("header"),
	}
	if err := validation.ValidateStruct(query); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			NewResponseWriter(w, r).ValidationError("invalid export parameters", verr.Errors())
			return
		}
		NewResponseWriter(w, r).BadRequest(err.Error())
		return
	}

	filename := fmt.Sprintf("audit-vault-%s.csv", router.now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	// Headers are already sent; failures can only be logged.
	n, err := router.svc.OutputVaultToCSV(r.Context(), w, query.options())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int("records", n).Msg("Vault CSV export ended early")
		return
	}
	logging.Ctx(r.Context()).Info().Int("records", n).Str("remote", r.RemoteAddr).Msg("Vault exported")
}
