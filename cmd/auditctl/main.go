// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Command auditctl inspects and maintains the audit vault of a stopped
// Audittrail instance. The local database is single-writer: commands that
// need storage fail while the server holds it.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
