// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/tomtom215/audittrail/internal/app"
	"github.com/tomtom215/audittrail/internal/auditsvc"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit vault as CSV",
	Long:  `Writes every vault record, newest first, as CSV. Header names are localized with --lang.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")
	exportCmd.Flags().String("lang", "en", "header language (BCP 47)")
	exportCmd.Flags().Bool("no-header", false, "omit the column header row")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	langFlag, _ := cmd.Flags().GetString("lang")
	tag, err := language.Parse(langFlag)
	if err != nil {
		return fmt.Errorf("invalid --lang %q: %w", langFlag, err)
	}
	noHeader, _ := cmd.Flags().GetBool("no-header")
	output, _ := cmd.Flags().GetString("output")

	return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
		var w io.Writer = cmd.OutOrStdout()
		if output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		n, err := a.Service.OutputVaultToCSV(ctx, w, auditsvc.CSVOptions{Language: tag, IncludeHeader: !noHeader})
		if err != nil {
			return fmt.Errorf("export failed after %d records: %w", n, err)
		}
		if output != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", n, output)
		}
		return nil
	})
}
