// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package config

import (
	"time"

	"github.com/tomtom215/audittrail/internal/format"
	"github.com/tomtom215/audittrail/internal/history"
	"github.com/tomtom215/audittrail/internal/localdb"
	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/mailer"
	"github.com/tomtom215/audittrail/internal/supervisor"
	"github.com/tomtom215/audittrail/internal/syslog"
	"github.com/tomtom215/audittrail/internal/vault"
	"github.com/tomtom215/audittrail/internal/workqueue"
)

// defaultConfig returns the built-in defaults. They are loaded first and
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	storage := localdb.DefaultConfig()
	storage.Path = "/data/audittrail/localdb"

	hist := history.DefaultConfig()
	hist.Path = "/data/audittrail/history.db"

	return &Config{
		App: AppConfig{
			Name:                "Audittrail",
			Version:             "dev",
			Vendor:              "tomtom215",
			Timezone:            "UTC",
			HealthCheckInterval: time.Minute,
		},
		Storage: storage,
		Vault:   vault.DefaultConfig(),
		Syslog: SyslogConfig{
			Transport:      syslog.DefaultConfig(),
			Format:         format.DefaultConfig(),
			Queue:          workqueue.DefaultConfig(),
			ErrorWindow:    30 * time.Minute,
			BacklogWarning: 100,
		},
		Alerts: AlertsConfig{
			SMTP: mailer.DefaultConfig(),
		},
		History: hist,
		Events: EventsConfig{
			Permitted: []string{"ALL"},
		},
		Server: ServerConfig{
			Enabled:         true,
			Listen:          "127.0.0.1:8514",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Supervisor: supervisor.DefaultTreeConfig(),
		Logging:    logging.DefaultConfig(),
	}
}
