// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/audittrail/internal/api"
	"github.com/tomtom215/audittrail/internal/app"
	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/auditsvc"
	"github.com/tomtom215/audittrail/internal/config"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/metrics"
	"github.com/tomtom215/audittrail/internal/supervisor"
	"github.com/tomtom215/audittrail/internal/supervisor/services"
)

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)
	metrics.SetAppInfo(cfg.App.Version, started)

	logging.Info().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("instance", cfg.InstanceID()).
		Str("storage", cfg.Storage.Path).
		Strs("syslog_targets", cfg.Syslog.Transport.Targets).
		Str("syslog_format", string(cfg.Syslog.Format.OutputType)).
		Msg("Starting Audittrail")

	a, err := app.Build(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build audit service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := a.Service
	if err := svc.Open(ctx); err != nil {
		logging.Error().Err(err).Msg("Failed to open audit service")
	}
	submitSystemEvent(ctx, svc, audit.EventStartup, "Audittrail "+cfg.App.Version+" started", cfg.InstanceID())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	monitor := auditsvc.NewHealthMonitor(svc, cfg.App.HealthCheckInterval)
	tree.AddAuditService(services.NewLifecycleService("health-monitor", monitor))

	if cfg.Server.Enabled {
		server := &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           api.NewRouter(svc, a.Statistics, api.Options{RateLimit: cfg.Server.RateLimit}).Handler(),
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Admin API enabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}
	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, u := range unstopped {
			logging.Warn().Str("service", u.Name).Msg("Service failed to stop")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Syslog.Queue.CloseTimeout+5*time.Second)
	defer shutdownCancel()

	submitSystemEvent(shutdownCtx, svc, audit.EventShutdown, "Audittrail stopping", cfg.InstanceID())
	if err := a.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}

	logging.Info().Dur("uptime", time.Since(started)).Msg("Audittrail stopped")
}

func submitSystemEvent(ctx context.Context, svc *auditsvc.Service, code audit.EventCode, message, instance string) {
	rec, err := audit.NewSystemRecord(code, message, instance)
	if err != nil {
		logging.Error().Err(err).Str("event", string(code)).Msg("Failed to build system audit record")
		return
	}
	svc.Submit(ctx, rec)
}
