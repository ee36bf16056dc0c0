// Package dates parses the loosely formatted date strings found in library
// exports and resolves completion dates for analytics.
package dates

import (
	"strings"
	"time"
)

// FillerDate marks a read book whose completion date could not be
// recovered from either Date Read or Date Added. It predates any
// plausible analytics window, so filled records never leak into
// year-scoped statistics.
const FillerDate = "1900-01-01"

// formats are tried in order; the first successful parse wins. US
// month-first is tried before day-first, matching how Goodreads writes
// ambiguous dates.
var formats = []string{
	"2006/01/02",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

// Parse attempts each known export format in order. The boolean is false
// when the string is empty or matches no format.
func Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// YearMonth extracts (year, month) from a raw date string. ok is false
// when the string does not parse.
func YearMonth(raw string) (year int, month time.Month, ok bool) {
	t, ok := Parse(raw)
	if !ok {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// ResolveRead determines the completion date for a finished book. Blank
// completion dates fall back to the acquisition date; when neither parses
// the filler date stands in so the record keeps a stable, obviously
// out-of-window value.
func ResolveRead(dateRead, dateAdded string) string {
	if _, ok := Parse(dateRead); ok {
		return strings.TrimSpace(dateRead)
	}
	if _, ok := Parse(dateAdded); ok {
		return strings.TrimSpace(dateAdded)
	}
	return FillerDate
}
