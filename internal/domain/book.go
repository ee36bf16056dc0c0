// Package domain contains the core entities of the Florilegium reading
// catalog: book records, shelf statuses, override rules, and the
// aggregation snapshot.
package domain

import "strings"

// GenreUnknown is the sentinel meaning "enrichment attempted, no genre
// found". It is distinct from an empty genre, which means "not yet
// attempted": records carrying exactly this value are eligible for
// reprocessing on the next run.
const GenreUnknown = "Unknown"

// ShelfStatus is the reading state of a book.
type ShelfStatus string

// Shelf statuses recognized in the export.
const (
	ShelfToRead           ShelfStatus = "to-read"
	ShelfCurrentlyReading ShelfStatus = "currently-reading"
	ShelfRead             ShelfStatus = "read"
	ShelfOther            ShelfStatus = "other"
)

// ParseShelfStatus normalizes a raw shelf string from the export.
// Unrecognized values map to ShelfOther.
func ParseShelfStatus(raw string) ShelfStatus {
	switch ShelfStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ShelfToRead:
		return ShelfToRead
	case ShelfCurrentlyReading:
		return ShelfCurrentlyReading
	case ShelfRead:
		return ShelfRead
	default:
		return ShelfOther
	}
}

// SeriesInfo is series membership derived from a raw title.
// The zero value means a standalone book.
type SeriesInfo struct {
	// Name is the series name, e.g. "Shatter Me".
	Name string `json:"name,omitempty"`
	// Number is the position within the series as a decimal string,
	// e.g. "5" or "5.5". Kept as a string to preserve half-numbered
	// novellas exactly.
	Number string `json:"number,omitempty"`
}

// IsZero reports whether no series information is present.
func (s SeriesInfo) IsZero() bool {
	return s.Name == "" && s.Number == ""
}

// BookRecord is one book in the catalog.
//
// Once a record enters the catalog it is never deleted by the enrichment
// or override stages; the record count is monotonically non-decreasing
// across every pipeline stage.
type BookRecord struct {
	// ID is a stable record identifier ("rec-" NanoID).
	ID string `json:"id"`
	// Position is the encounter order within the catalog. New titles are
	// appended at the end; existing entries are updated in place.
	Position int `json:"position"`

	// Title is the raw title from the export, e.g. "Reveal Me (Shatter Me, #5.5)".
	Title string `json:"title"`
	// BookTitle is the parsed base title, e.g. "Reveal Me".
	BookTitle string `json:"book_title"`
	// Series is the parsed series membership, if any.
	Series SeriesInfo `json:"series,omitzero"`

	// Author is the raw author string from the export.
	Author string `json:"author"`
	// AuthorClean is the cleaned author name ("King, Stephen" -> "Stephen King",
	// collapsed whitespace).
	AuthorClean string `json:"author_clean"`

	ISBN   string `json:"isbn,omitempty"`
	ISBN13 string `json:"isbn13,omitempty"`

	// Genre is empty until resolution has been attempted, GenreUnknown
	// when resolution failed, and a genre label otherwise.
	Genre string `json:"genre,omitempty"`

	Shelf ShelfStatus `json:"shelf"`

	// ReadCount is the number of completions, at least 1.
	ReadCount int `json:"read_count"`
	// Pages is the page count; 0 means unknown.
	Pages int `json:"pages"`

	// DateAdded and DateRead are kept as the raw export strings; the
	// dates package resolves them into (year, month).
	DateAdded string `json:"date_added,omitempty"`
	DateRead  string `json:"date_read,omitempty"`
}

// HasGenre reports whether the record carries a resolved, non-sentinel genre.
// Records for which this is true are never reprocessed by enrichment.
func (b *BookRecord) HasGenre() bool {
	g := strings.TrimSpace(b.Genre)
	if g == "" {
		return false
	}
	switch strings.ToLower(g) {
	case "unknown", "nan", "none", "null":
		return false
	}
	return true
}

// NeedsReprocessing reports whether the record carries exactly the Unknown
// sentinel, the explicit reprocess-allowance distinct from "no entry yet".
func (b *BookRecord) NeedsReprocessing() bool {
	return strings.TrimSpace(b.Genre) == GenreUnknown
}

// DisplayAuthor returns the cleaned author when available, the raw one otherwise.
func (b *BookRecord) DisplayAuthor() string {
	if b.AuthorClean != "" {
		return b.AuthorClean
	}
	return b.Author
}
