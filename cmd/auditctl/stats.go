// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/audittrail/internal/app"
	"github.com/tomtom215/audittrail/internal/auditsvc"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print vault size, oldest record and queue depth as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, false, func(_ context.Context, a *app.App) error {
			out := struct {
				auditsvc.Stats
				Health []auditsvc.HealthRecord `json:"health"`
			}{Stats: a.Service.Stats(), Health: a.Service.Health()}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
