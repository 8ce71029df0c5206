// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/audittrail/internal/app"
	"github.com/tomtom215/audittrail/internal/config"
	"github.com/tomtom215/audittrail/internal/logging"
)

// errNoStorage is returned by commands that need the vault when it could not be opened.
var errNoStorage = errors.New("audit storage unavailable (read-only host, or the server is running)")

var rootCmd = &cobra.Command{
	Use:          "auditctl",
	Short:        "Inspect and maintain the Audittrail vault",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level, _ := cmd.Flags().GetString("log-level")
	cfg.Logging.Level = level
	cfg.Logging.Output = cmd.ErrOrStderr()
	logging.Init(cfg.Logging)
	return cfg, nil
}

// withApp builds the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, needVault bool, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := app.Build(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}()

	if needVault && a.Vault == nil {
		return errNoStorage
	}
	return fn(ctx, a)
}
