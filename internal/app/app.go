// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package app assembles the audit service from configuration. The server
// and the auditctl tool share it so both see the same storage layout.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/audittrail/internal/auditsvc"
	"github.com/tomtom215/audittrail/internal/config"
	"github.com/tomtom215/audittrail/internal/format"
	"github.com/tomtom215/audittrail/internal/history"
	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/mailer"
	"github.com/tomtom215/audittrail/internal/metrics"
	"github.com/tomtom215/audittrail/internal/syslog"
	"github.com/tomtom215/audittrail/internal/vault"
	"github.com/tomtom215/audittrail/internal/workqueue"
)

// syslogQueueName is the localdb namespace of the syslog delivery queue.
const syslogQueueName = "syslog"

// App holds the assembled components. DB, Vault and Queue are nil when the
// host is read-only or storage could not be opened.
type App struct {
	Config     *config.Config
	DB         *localdb.DB
	Vault      *vault.Vault
	Queue      *workqueue.Queue
	Syslog     *syslog.Client
	History    *history.SQLiteStore
	Statistics *metrics.PrometheusStatistics
	Service    *auditsvc.Service

	logger zerolog.Logger
}

// Build creates every component and a CLOSED audit service. Storage failures
// are logged and leave the service degraded; configuration errors fail.
func Build(cfg *config.Config) (*App, error) {
	a := &App{
		Config:     cfg,
		Statistics: metrics.NewPrometheusStatistics(),
		logger:     logging.WithComponent("app"),
	}

	settings, err := cfg.AuditSettings()
	if err != nil {
		return nil, err
	}
	formatter, err := format.New(cfg.FormatConfig(), cfg.Metadata())
	if err != nil {
		return nil, fmt.Errorf("syslog formatter: %w", err)
	}
	transport := cfg.TransportConfig()
	a.Syslog, err = syslog.New(transport)
	if err != nil {
		return nil, fmt.Errorf("syslog client: %w", err)
	}
	sender, err := mailer.New(cfg.Alerts.SMTP)
	if err != nil {
		a.Syslog.Close()
		return nil, fmt.Errorf("alert mailer: %w", err)
	}

	deps := auditsvc.Deps{
		Formatter:  formatter,
		Framer:     &transport,
		Transport:  a.Syslog,
		Mailer:     sender,
		Statistics: a.Statistics,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("User history unavailable")
		} else {
			a.History = store
			deps.History = store
		}
	}

	if !cfg.App.ReadOnly {
		a.openStorage()
	}
	if a.Vault != nil {
		deps.Vault = a.Vault
		deps.Background = append(deps.Background,
			auditsvc.Background{Name: "vault-trimmer", Component: a.Vault.Trimmer()},
			auditsvc.Background{Name: "localdb-gc", Component: a.DB},
		)
	}
	if a.Queue != nil {
		deps.Queue = a.Queue
		deps.Background = append(deps.Background,
			auditsvc.Background{Name: "syslog-queue", Component: a.Queue})
	}

	a.Service, err = auditsvc.New(settings, deps)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) openStorage() {
	cfg := a.Config
	db, err := localdb.Open(cfg.Storage)
	if err != nil {
		a.logger.Error().Err(err).Str("path", cfg.Storage.Path).Msg("Local storage unavailable, audit is degraded")
		return
	}

	v, err := vault.Open(db, cfg.Vault)
	if err != nil {
		a.logger.Error().Err(err).Msg("Audit vault unavailable, audit is degraded")
		db.Close()
		return
	}
	a.DB, a.Vault = db, v

	q, err := workqueue.Open(db, syslogQueueName, a.Syslog, cfg.Syslog.Queue)
	if err != nil {
		a.logger.Error().Err(err).Msg("Syslog delivery queue unavailable, syslog output disabled")
		return
	}
	a.Queue = q
}

// PendingSyslog returns the number of queued syslog messages, or zero when
// the delivery queue is not open.
func (a *App) PendingSyslog() int {
	if a.Queue == nil {
		return 0
	}
	return a.Queue.Len()
}

// Close closes the service and then every component it depends on.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Service != nil {
		if err := a.Service.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	// Service.Close only closes what it opened; both calls are idempotent.
	if a.Queue != nil {
		if err := a.Queue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close delivery queue: %w", err))
		}
	}
	if a.Vault != nil {
		if err := a.Vault.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vault: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close localdb: %w", err))
		}
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close user history: %w", err))
		}
	}
	if a.Syslog != nil {
		if err := a.Syslog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close syslog client: %w", err))
		}
	}
	return errors.Join(errs...)
}
