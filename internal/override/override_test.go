package override

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/validation"
)

func testApplicator() *Applicator {
	return NewApplicator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func catalog() []domain.BookRecord {
	return []domain.BookRecord{
		{ID: "rec-1", Title: "Dune", BookTitle: "Dune", Author: "Frank Herbert", Genre: domain.GenreUnknown, ReadCount: 1, Pages: 412},
		{ID: "rec-2", Title: "Circe", BookTitle: "Circe", Author: "Madeline Miller", Genre: "Fantasy", ReadCount: 1, Pages: 393},
		{ID: "rec-3", Title: "Project Hail Mary", BookTitle: "Project Hail Mary", Author: "Andy Weir", Genre: "Science Fiction", ReadCount: 1, Pages: 476},
	}
}

func TestApplyGenresSingleMatch(t *testing.T) {
	records := catalog()
	rep := testApplicator().ApplyGenres(records, []domain.GenreOverride{
		{Title: "Dune", Genre: "Sci-Fi"},
	})

	if rep.Applied != 1 {
		t.Fatalf("report = %+v, want 1 applied", rep)
	}
	if records[0].Genre != "Sci-Fi" {
		t.Errorf("genre = %q, want the rule's label verbatim", records[0].Genre)
	}
	// No other row touched.
	if records[1].Genre != "Fantasy" || records[2].Genre != "Science Fiction" {
		t.Errorf("other rows changed: %q, %q", records[1].Genre, records[2].Genre)
	}
}

func TestApplyGenresAmbiguousSkipped(t *testing.T) {
	records := []domain.BookRecord{
		{ID: "rec-1", Title: "Dune", Author: "Frank Herbert", Genre: "Old"},
		{ID: "rec-2", Title: "Dune", Author: "Frank Herbert", Genre: "Old"},
	}
	rep := testApplicator().ApplyGenres(records, []domain.GenreOverride{
		{Title: "Dune", Genre: "New"},
	})

	if rep.Applied != 0 || rep.SkippedAmbiguous != 1 {
		t.Errorf("report = %+v, want the tied rule skipped", rep)
	}
	if records[0].Genre != "Old" || records[1].Genre != "Old" {
		t.Error("an ambiguous rule must not be applied to any record")
	}
}

func TestApplyGenresNoMatch(t *testing.T) {
	records := catalog()
	rep := testApplicator().ApplyGenres(records, []domain.GenreOverride{
		{Title: "A Book Not In The Catalog", Genre: "Horror"},
	})
	if rep.SkippedNoMatch != 1 || rep.Applied != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestApplyFields(t *testing.T) {
	records := catalog()
	rep := testApplicator().ApplyFields(records, []domain.OverrideRule{
		{
			Title:  "Dune",
			Author: "Frank Herbert",
			Fields: map[string]any{
				"Read Count":      "3",
				"Number of Pages": float64(896), // JSON numbers decode as float64
			},
			Note: "omnibus edition",
		},
	})

	if rep.Applied != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if records[0].ReadCount != 3 {
		t.Errorf("read count = %d, want coerced 3", records[0].ReadCount)
	}
	if records[0].Pages != 896 {
		t.Errorf("pages = %d", records[0].Pages)
	}
}

func TestApplyFieldsRejectsBadValues(t *testing.T) {
	records := catalog()
	rep := testApplicator().ApplyFields(records, []domain.OverrideRule{
		{
			Title: "Dune",
			Fields: map[string]any{
				"Read Count": "lots", // not numeric: skip this field only
				"Genre":      "Sci-Fi",
			},
		},
	})

	if rep.SkippedBadField != 1 {
		t.Errorf("report = %+v, want 1 bad field", rep)
	}
	if records[0].ReadCount != 1 {
		t.Errorf("read count changed to %d despite the bad value", records[0].ReadCount)
	}
	if records[0].Genre != "Sci-Fi" {
		t.Errorf("the valid field in the same rule should still apply, genre = %q", records[0].Genre)
	}
}

func TestApplyFieldsRejectsUnknownField(t *testing.T) {
	records := catalog()
	rep := testApplicator().ApplyFields(records, []domain.OverrideRule{
		{Title: "Dune", Fields: map[string]any{"Bookshelves": "favorites"}},
	})
	if rep.SkippedBadField != 1 || rep.Applied != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestApplyFieldsAuthorDisambiguates(t *testing.T) {
	records := []domain.BookRecord{
		{ID: "rec-1", Title: "Dune", Author: "Frank Herbert", ReadCount: 1},
		{ID: "rec-2", Title: "Dune", Author: "Brian Herbert", ReadCount: 1},
	}
	// Both titles tie on the title alone; the author check breaks the tie
	// by dropping the other record to medium confidence.
	rep := testApplicator().ApplyFields(records, []domain.OverrideRule{
		{Title: "Dune", Author: "Brian", Fields: map[string]any{"Read Count": 2}},
	})
	if rep.Applied != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if records[1].ReadCount != 2 || records[0].ReadCount != 1 {
		t.Errorf("wrong record updated: %d, %d", records[0].ReadCount, records[1].ReadCount)
	}
}

func TestLoadFieldOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")
	doc := `{
		"book_overrides": {
			"overrides": [
				{"title": "Dune", "author": "Frank Herbert", "fields": {"Read Count": 2}, "note": "reread"}
			]
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadFieldOverrides(path, validation.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 1 || rules[0].Title != "Dune" {
		t.Errorf("rules = %+v", rules)
	}
}

func TestLoadGenreOverridesMissingFile(t *testing.T) {
	rules, err := LoadGenreOverrides(filepath.Join(t.TempDir(), "nope.json"), validation.New())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if rules != nil {
		t.Errorf("rules = %v", rules)
	}
}

func TestLoadFieldOverridesInvalidRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")
	doc := `{"book_overrides": {"overrides": [{"title": "", "fields": {}}]}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFieldOverrides(path, validation.New()); err == nil {
		t.Fatal("invalid rule should fail validation")
	}
}
