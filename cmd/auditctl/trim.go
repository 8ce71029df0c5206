// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/audittrail/internal/app"
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Apply vault retention now",
	Long:  `Removes records older than vault.max_record_age and records beyond vault.max_record_count, oldest first.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
			before := a.Vault.Size()
			stats := a.Vault.Trimmer().RunOnce(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d records in %d passes (%s)\n",
				stats.Removed, before, stats.Passes, stats.Elapsed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(trimCmd)
}
