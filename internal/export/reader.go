// Package export reads the tabular library export and turns each row into
// a catalog-ready BookRecord.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/florilegium/florilegium-server/internal/dates"
	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/errors"
	"github.com/florilegium/florilegium-server/internal/genre"
	"github.com/florilegium/florilegium-server/internal/id"
	"github.com/florilegium/florilegium-server/internal/titles"
)

// Column names as they appear in the export header.
const (
	colTitle     = "Title"
	colAuthor    = "Author"
	colISBN      = "ISBN"
	colISBN13    = "ISBN13"
	colShelf     = "Exclusive Shelf"
	colDateRead  = "Date Read"
	colDateAdded = "Date Added"
	colPages     = "Number of Pages"
	colReadCount = "Read Count"
	colGenre     = "Genre"
)

var requiredColumns = []string{
	colTitle, colAuthor, colISBN, colISBN13, colShelf,
	colDateRead, colDateAdded, colPages, colReadCount,
}

// Reader parses library export files.
type Reader struct{}

// NewReader creates an export reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadFile reads and parses an export file from disk.
func (r *Reader) ReadFile(path string) ([]domain.BookRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("export file not found: %s", path)
		}
		return nil, errors.Wrapf(err, errors.CodeInternal, "open export %s", path)
	}
	defer f.Close()
	return r.Read(f)
}

// Read parses export rows from a stream. Each data row becomes one
// BookRecord in encounter order; malformed numeric fields fall back to
// defaults rather than failing the row.
func (r *Reader) Read(src io.Reader) ([]domain.BookRecord, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // exports grow and lose columns over time

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Validation("export is empty")
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "read export header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Validationf("export missing required column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []domain.BookRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeValidation, "read export row %d", len(records)+2)
		}

		rawTitle := field(row, colTitle)
		if rawTitle == "" {
			continue
		}

		baseTitle, series := titles.Parse(rawTitle)
		author := field(row, colAuthor)

		rec := domain.BookRecord{
			ID:          id.MustGenerate("rec"),
			Position:    len(records),
			Title:       rawTitle,
			BookTitle:   baseTitle,
			Series:      series,
			Author:      author,
			AuthorClean: CleanAuthor(author),
			ISBN:        CleanISBN(field(row, colISBN)),
			ISBN13:      CleanISBN(field(row, colISBN13)),
			Shelf:       domain.ParseShelfStatus(field(row, colShelf)),
			ReadCount:   parsePositiveInt(field(row, colReadCount), 1),
			Pages:       parsePositiveInt(field(row, colPages), 0),
			DateAdded:   field(row, colDateAdded),
			DateRead:    field(row, colDateRead),
		}

		// Finished books keep a resolvable completion date.
		if rec.Shelf == domain.ShelfRead {
			rec.DateRead = dates.ResolveRead(rec.DateRead, rec.DateAdded)
		}

		// Re-exported catalogs carry a genre column already.
		if g := field(row, colGenre); g != "" {
			rec.Genre = genre.Normalize(g)
		}

		records = append(records, rec)
	}
	return records, nil
}

// CleanISBN strips the spreadsheet-protection wrapper exports put around
// ISBN values, e.g. `="0441172717"` or `=""`.
func CleanISBN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "=")
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "n/a", "n a", "none":
		return ""
	}
	return s
}

// CleanAuthor collapses whitespace and flips a single "Last, First" comma
// form into "First Last". Multi-comma strings pass through untouched.
func CleanAuthor(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if strings.Count(s, ",") == 1 {
		parts := strings.SplitN(s, ",", 2)
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if last != "" && first != "" {
			return first + " " + last
		}
	}
	return s
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	// Exports sometimes write counts as floats ("1.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		n := int(f)
		if n == 0 && fallback > 0 {
			return fallback
		}
		return n
	}
	return fallback
}
