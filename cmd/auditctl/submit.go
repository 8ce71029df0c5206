// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/audittrail/internal/app"
	"github.com/tomtom215/audittrail/internal/audit"
)

var submitCmd = &cobra.Command{
	Use:   "submit EVENT_CODE",
	Short: "Record a system audit event",
	Long: `Opens the audit service, records one SYSTEM event through every configured
sink and drains the syslog queue before exiting. Useful to verify collector
and alert configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringP("message", "m", "auditctl test event", "event message")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	code := audit.EventCode(strings.ToUpper(args[0]))
	message, _ := cmd.Flags().GetString("message")

	return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
		rec, err := audit.NewSystemRecord(code, message, a.Config.InstanceID())
		if err != nil {
			return err
		}
		if err := a.Service.Open(ctx); err != nil {
			return err
		}
		a.Service.Submit(ctx, rec)
		if err := a.Service.Close(ctx); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s\n", rec.EventCode, rec.GUID)
		if depth := a.PendingSyslog(); depth > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d syslog messages are still waiting for delivery\n", depth)
		}
		return nil
	})
}
