// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package format

import (
	"fmt"
	"unicode/utf8"

	"github.com/tomtom215/audittrail/internal/audit"
)

type renderFunc func(r *audit.Record) (string, error)

// fit renders r and, if the result is longer than maxLen bytes, searches for
// the largest shared character cap on message and narrative that fits. Each
// field longer than the cap keeps its first cap characters plus marker, so
// both fields give up text together. If even marker-only fields do not fit,
// the two fields are dropped.
func fit(r *audit.Record, maxLen int, marker string, render renderFunc) (string, error) {
	out, err := render(r)
	if err != nil {
		return "", err
	}
	if maxLen <= 0 || len(out) <= maxLen {
		return out, nil
	}

	bare, err := render(r.WithText("", ""))
	if err != nil {
		return "", err
	}
	if len(bare) > maxLen {
		return "", fmt.Errorf("%w: %d bytes without message text, limit %d", ErrMessageTooLong, len(bare), maxLen)
	}

	capped := func(limit int) (string, error) {
		return render(r.WithText(truncate(r.Message, limit, marker), truncate(r.Narrative, limit, marker)))
	}

	best, err := capped(0)
	if err != nil {
		return "", err
	}
	if len(best) > maxLen {
		return bare, nil
	}

	// Escaping and multi-byte runes make bytes per character vary, so the
	// cap is found by bisection on the rendered length.
	longest := max(utf8.RuneCountInString(r.Message), utf8.RuneCountInString(r.Narrative))
	lo, hi := 0, min(longest-1, maxLen-len(bare))
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		out, err = capped(mid)
		if err != nil {
			return "", err
		}
		if len(out) <= maxLen {
			lo, best = mid, out
		} else {
			hi = mid - 1
		}
	}
	return best, nil
}

// truncate keeps the first limit characters of s and appends marker. Strings
// already within limit are returned untouched.
func truncate(s string, limit int, marker string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + marker
}

// clip cuts s to at most limit characters without a marker. limit <= 0 disables clipping.
func clip(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
