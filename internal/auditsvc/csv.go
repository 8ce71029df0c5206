// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package auditsvc

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/tomtom215/audittrail/internal/audit"
	"github.com/tomtom215/audittrail/internal/logging"
)

// CSVOptions controls OutputVaultToCSV.
type CSVOptions struct {
	// Language selects the header translation. The zero tag means English.
	Language language.Tag
	// IncludeHeader adds a column header row after the comment lines.
	IncludeHeader bool
}

// csvColumns are the header message keys in column order. SYSTEM rows carry
// Instance in the first identity column and are shorter than the header.
var csvColumns = []string{
	"Field_Type",
	"Field_EventCode",
	"Field_Timestamp",
	"Field_GUID",
	"Field_Message",
	"Field_PerpetratorID",
	"Field_PerpetratorDN",
	"Field_TargetID",
	"Field_TargetDN",
	"Field_SourceAddress",
	"Field_SourceHost",
	"Field_Domain",
}

var csvHeaderText = map[language.Tag]map[string]string{
	language.English: {
		"Field_Type":          "Type",
		"Field_EventCode":     "Event Code",
		"Field_Timestamp":     "Timestamp",
		"Field_GUID":          "GUID",
		"Field_Message":       "Message",
		"Field_PerpetratorID": "Perpetrator ID / Instance",
		"Field_PerpetratorDN": "Perpetrator DN",
		"Field_TargetID":      "Target ID",
		"Field_TargetDN":      "Target DN",
		"Field_SourceAddress": "Source Address",
		"Field_SourceHost":    "Source Host",
		"Field_Domain":        "Domain",
	},
	language.German: {
		"Field_Type":          "Typ",
		"Field_EventCode":     "Ereigniscode",
		"Field_Timestamp":     "Zeitstempel",
		"Field_GUID":          "GUID",
		"Field_Message":       "Nachricht",
		"Field_PerpetratorID": "Akteur-ID / Instanz",
		"Field_PerpetratorDN": "Akteur-DN",
		"Field_TargetID":      "Ziel-ID",
		"Field_TargetDN":      "Ziel-DN",
		"Field_SourceAddress": "Quelladresse",
		"Field_SourceHost":    "Quellhost",
		"Field_Domain":        "Domäne",
	},
	language.French: {
		"Field_Type":          "Type",
		"Field_EventCode":     "Code d'événement",
		"Field_Timestamp":     "Horodatage",
		"Field_GUID":          "GUID",
		"Field_Message":       "Message",
		"Field_PerpetratorID": "ID de l'auteur / Instance",
		"Field_PerpetratorDN": "DN de l'auteur",
		"Field_TargetID":      "ID cible",
		"Field_TargetDN":      "DN cible",
		"Field_SourceAddress": "Adresse source",
		"Field_SourceHost":    "Hôte source",
		"Field_Domain":        "Domaine",
	},
	language.Spanish: {
		"Field_Type":          "Tipo",
		"Field_EventCode":     "Código de evento",
		"Field_Timestamp":     "Marca de tiempo",
		"Field_GUID":          "GUID",
		"Field_Message":       "Mensaje",
		"Field_PerpetratorID": "ID del autor / Instancia",
		"Field_PerpetratorDN": "DN del autor",
		"Field_TargetID":      "ID de destino",
		"Field_TargetDN":      "DN de destino",
		"Field_SourceAddress": "Dirección de origen",
		"Field_SourceHost":    "Host de origen",
		"Field_Domain":        "Dominio",
	},
}

var csvCatalog = newCSVCatalog()

func newCSVCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, texts := range csvHeaderText {
		for key, text := range texts {
			if err := b.SetString(tag, key, text); err != nil {
				panic(fmt.Sprintf("auditsvc: csv catalog %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// HeaderLanguages returns the languages the CSV header is translated into.
func HeaderLanguages() []language.Tag {
	return csvCatalog.Languages()
}

// csvHeader returns the localized header row.
func csvHeader(tag language.Tag) []string {
	if tag == language.Und {
		tag = language.English
	}
	p := message.NewPrinter(tag, message.Catalog(csvCatalog))
	row := make([]string, len(csvColumns))
	for i, key := range csvColumns {
		row[i] = p.Sprintf(message.Key(key, csvHeaderText[language.English][key]))
	}
	return row
}

// csvRow lays out r according to its category.
func csvRow(r *audit.Record) []string {
	row := []string{
		string(r.Category),
		string(r.EventCode),
		r.Timestamp.UTC().Format(time.RFC3339),
		r.GUID,
		r.Message,
	}
	switch r.Category {
	case audit.CategorySystem:
		row = append(row, r.Instance)
	case audit.CategoryUser:
		row = append(row, r.PerpetratorID, r.PerpetratorDN, "", "", r.SourceAddress, r.SourceHost)
	case audit.CategoryHelpdesk:
		row = append(row, r.PerpetratorID, r.PerpetratorDN, r.TargetID, r.TargetDN, r.SourceAddress, r.SourceHost)
	}
	return append(row, r.Domain)
}

// OutputVaultToCSV writes the vault newest first as CSV and returns the
// number of records written. Output starts with two comment lines naming
// the product and the generation time.
func (s *Service) OutputVaultToCSV(ctx context.Context, w io.Writer, opts CSVOptions) (int, error) {
	if _, err := fmt.Fprintf(w, "# %s audit record output\n# Generated at %s\n",
		s.settings.AppName, s.now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("write csv preamble: %w", err)
	}

	cw := csv.NewWriter(w)
	if opts.IncludeHeader {
		if err := cw.Write(csvHeader(opts.Language)); err != nil {
			return 0, fmt.Errorf("write csv header: %w", err)
		}
	}

	count := 0
	for r := range s.ReadVault(ctx) {
		if err := cw.Write(csvRow(r)); err != nil {
			return count, fmt.Errorf("write csv row: %w", err)
		}
		count++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return count, err
	}

	logging.Ctx(ctx).Debug().Int("records", count).Msg("Vault exported as CSV")
	return count, nil
}
