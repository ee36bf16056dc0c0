// Package override applies hand-maintained correction rules to the
// catalog: a field-override layer first, then a genre-only layer.
package override

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/match"
)

// Report summarizes one override layer pass.
type Report struct {
	Applied          int
	SkippedNoMatch   int
	SkippedAmbiguous int
	SkippedBadField  int
}

// Applicator binds override rules to catalog records via the matcher and
// mutates the records in place. Both layers are pure transforms over a
// loaded catalog slice; persistence belongs to the caller.
type Applicator struct {
	logger *slog.Logger
}

// NewApplicator creates an applicator.
func NewApplicator(logger *slog.Logger) *Applicator {
	return &Applicator{logger: logger}
}

func references(records []domain.BookRecord) []match.Reference {
	refs := make([]match.Reference, len(records))
	for i, rec := range records {
		refs[i] = match.Reference{ID: rec.ID, Title: rec.Title, Author: rec.Author}
	}
	return refs
}

// bind resolves a rule's (title, author) to exactly one record index.
// Zero matches and tied top-confidence matches both fail the binding.
func (a *Applicator) bind(title, author string, refs []match.Reference) (int, bool, bool) {
	ranked := match.Rank(title, author, refs)
	best, ok := ranked.Best()
	if !ok {
		return 0, false, false
	}
	if ranked.Ambiguous() {
		return 0, false, true
	}
	return best.Index, true, false
}

// ApplyFields applies the field-override layer. Each rule binds to at
// most one record; unbindable rules are reported and skipped. Rules may
// only touch whitelisted fields, with type coercion for numeric ones.
func (a *Applicator) ApplyFields(records []domain.BookRecord, rules []domain.OverrideRule) Report {
	var rep Report
	refs := references(records)

	for _, rule := range rules {
		if strings.TrimSpace(rule.Title) == "" {
			continue
		}
		idx, ok, ambiguous := a.bind(rule.Title, rule.Author, refs)
		if ambiguous {
			a.logger.Warn("override rule matches multiple records, skipping",
				"title", rule.Title,
			)
			rep.SkippedAmbiguous++
			continue
		}
		if !ok {
			a.logger.Warn("override rule matches no record, skipping",
				"title", rule.Title,
			)
			rep.SkippedNoMatch++
			continue
		}

		rec := &records[idx]
		applied := false
		for field, value := range rule.Fields {
			if err := applyField(rec, field, value); err != nil {
				a.logger.Warn("skipping override field",
					"title", rule.Title,
					"field", field,
					"error", err,
				)
				rep.SkippedBadField++
				continue
			}
			applied = true
			a.logger.Info("field override applied",
				"title", rule.Title,
				"field", field,
				"value", value,
			)
		}
		if applied {
			rep.Applied++
			if rule.Note != "" {
				a.logger.Debug("override note", "title", rule.Title, "note", rule.Note)
			}
		}
	}
	return rep
}

// ApplyGenres applies the genre-only layer. It runs after every field
// override so a genre rule cannot clobber a field rule's work on a
// different concern.
func (a *Applicator) ApplyGenres(records []domain.BookRecord, rules []domain.GenreOverride) Report {
	var rep Report
	refs := references(records)

	for _, rule := range rules {
		if strings.TrimSpace(rule.Title) == "" || strings.TrimSpace(rule.Genre) == "" {
			continue
		}
		idx, ok, ambiguous := a.bind(rule.Title, rule.Author, refs)
		if ambiguous {
			a.logger.Warn("genre override matches multiple records, skipping",
				"title", rule.Title,
			)
			rep.SkippedAmbiguous++
			continue
		}
		if !ok {
			a.logger.Warn("genre override matches no record, skipping",
				"title", rule.Title,
			)
			rep.SkippedNoMatch++
			continue
		}

		rec := &records[idx]
		old := rec.Genre
		// Override genres are applied verbatim; rule authors pick the
		// exact label they want.
		rec.Genre = strings.TrimSpace(rule.Genre)
		rep.Applied++
		a.logger.Info("genre override applied",
			"title", rec.Title,
			"from", old,
			"to", rec.Genre,
		)
	}
	return rep
}

// applyField sets one whitelisted field on a record, coercing the value
// to the field's type. Unknown fields and uncoercible values error.
func applyField(rec *domain.BookRecord, field string, value any) error {
	if !domain.OverridableFields[field] {
		return fmt.Errorf("field %q is not overridable", field)
	}
	switch field {
	case domain.FieldTitle:
		s, err := coerceString(value)
		if err != nil {
			return err
		}
		rec.Title = s
		rec.BookTitle = s
	case domain.FieldAuthor:
		s, err := coerceString(value)
		if err != nil {
			return err
		}
		rec.Author = s
		rec.AuthorClean = s
	case domain.FieldGenre:
		s, err := coerceString(value)
		if err != nil {
			return err
		}
		rec.Genre = strings.TrimSpace(s)
	case domain.FieldDateRead:
		s, err := coerceString(value)
		if err != nil {
			return err
		}
		rec.DateRead = s
	case domain.FieldReadCount:
		n, err := coerceInt(value)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("read count must be at least 1, got %d", n)
		}
		rec.ReadCount = n
	case domain.FieldPages:
		n, err := coerceInt(value)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("page count cannot be negative, got %d", n)
		}
		rec.Pages = n
	}
	return nil
}

func coerceString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", value)
	}
	return s, nil
}

func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}
