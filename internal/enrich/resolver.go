// Package enrich decides a genre for every catalog record lacking one and
// maintains the catalog as an append-and-update log.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/errors"
	"github.com/florilegium/florilegium-server/internal/genre"
	"github.com/florilegium/florilegium-server/internal/lookupcache"
	"github.com/florilegium/florilegium-server/internal/store"
)

// Lookup is the external genre-lookup collaborator.
type Lookup interface {
	LookupGenre(ctx context.Context, isbn13, isbn, title string) (string, error)
}

// Cache persists lookup outcomes across runs.
type Cache interface {
	Get(isbn13, title string) (lookupcache.Outcome, bool)
	Put(isbn13, title string, out lookupcache.Outcome) error
}

// Sources recorded on lookup outcomes.
const (
	sourceManual = "manual"
	sourceLookup = "googlebooks"
)

// Resolver orchestrates genre resolution over the catalog.
type Resolver struct {
	catalog store.Catalog
	lookup  Lookup
	cache   Cache
	manual  []domain.ManualGenreEntry
	logger  *slog.Logger

	// checkpointEvery bounds how much progress a crash can lose.
	checkpointEvery int
}

// Config holds resolver collaborators and settings.
type Config struct {
	Catalog store.Catalog
	Lookup  Lookup
	Cache   Cache
	Manual  []domain.ManualGenreEntry
	Logger  *slog.Logger
	// CheckpointEvery is the number of resolved records between catalog
	// saves. Non-positive means checkpoint after every 20 records.
	CheckpointEvery int
}

// NewResolver creates a resolver.
func NewResolver(cfg Config) *Resolver {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 20
	}
	return &Resolver{
		catalog:         cfg.Catalog,
		lookup:          cfg.Lookup,
		cache:           cfg.Cache,
		manual:          cfg.Manual,
		logger:          cfg.Logger,
		checkpointEvery: cfg.CheckpointEvery,
	}
}

// Result summarizes one resolver pass.
type Result struct {
	Total     int
	Resolved  int
	Unknown   int
	Skipped   int // already carried a valid genre
	FromCache int
}

// Run merges the incoming export into the catalog and resolves a genre
// for every record that needs one. Records already carrying a valid genre
// are never reprocessed; records carrying exactly the Unknown sentinel
// are retried. A failure on one record never blocks the rest.
func (r *Resolver) Run(ctx context.Context, incoming []domain.BookRecord) (Result, error) {
	before, err := r.catalog.Count(ctx)
	if err != nil {
		return Result{}, err
	}

	records, err := r.catalog.Merge(ctx, incoming)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(records)}
	unsaved := 0
	for i := range records {
		rec := &records[i]
		if rec.HasGenre() {
			res.Skipped++
			continue
		}

		resolved, fromCache := r.resolveGenre(ctx, rec)
		rec.Genre = resolved
		if fromCache {
			res.FromCache++
		}
		if resolved == domain.GenreUnknown {
			res.Unknown++
		} else {
			res.Resolved++
		}

		unsaved++
		if unsaved >= r.checkpointEvery {
			if err := r.catalog.ReplaceAll(ctx, records); err != nil {
				return res, errors.Wrapf(err, errors.CodeInternal, "checkpoint catalog")
			}
			r.logger.Info("checkpoint saved", "processed", i+1, "total", len(records))
			unsaved = 0
		}
	}

	if err := r.catalog.ReplaceAll(ctx, records); err != nil {
		return res, errors.Wrapf(err, errors.CodeInternal, "save catalog")
	}

	after, err := r.catalog.Count(ctx)
	if err != nil {
		return res, err
	}
	if after < before {
		return res, errors.DataLossf("catalog shrank during enrichment: %d -> %d records", before, after)
	}
	return res, nil
}

// resolveGenre applies the resolution precedence for one record: manual
// entry, cached outcome, external lookup, Unknown. The cache memoizes the
// lookup tier only, so a manual entry always takes effect on the next run.
func (r *Resolver) resolveGenre(ctx context.Context, rec *domain.BookRecord) (string, bool) {
	if g, ok := r.manualGenre(rec); ok {
		r.putOutcome(rec, g, true, sourceManual)
		return g, false
	}

	if r.cache != nil {
		if out, ok := r.cache.Get(rec.ISBN13, titleKey(rec)); ok {
			if out.Found && genre.Known(out.Genre) {
				return genre.Normalize(out.Genre), true
			}
			// A cached miss is still an answer within its TTL.
			return domain.GenreUnknown, true
		}
	}

	label, err := r.lookup.LookupGenre(ctx, rec.ISBN13, rec.ISBN, rec.BookTitle)
	if err != nil {
		r.logger.Warn("genre lookup failed",
			"title", rec.BookTitle,
			"error", err,
		)
		r.putOutcome(rec, "", false, sourceLookup)
		return domain.GenreUnknown, false
	}

	g := genre.Normalize(label)
	if g == domain.GenreUnknown {
		r.putOutcome(rec, "", false, sourceLookup)
		return domain.GenreUnknown, false
	}
	r.putOutcome(rec, g, true, sourceLookup)
	return g, false
}

// manualGenre checks the manual lookup table: ISBN13 match first, then
// exact folded-title match.
func (r *Resolver) manualGenre(rec *domain.BookRecord) (string, bool) {
	for _, entry := range r.manual {
		if entry.ISBN13 != "" && rec.ISBN13 != "" && entry.ISBN13 == rec.ISBN13 {
			return genre.Normalize(entry.Genre), true
		}
	}
	recTitle := domain.Fold(rec.BookTitle)
	if recTitle == "" {
		recTitle = domain.Fold(rec.Title)
	}
	for _, entry := range r.manual {
		if domain.Fold(entry.Title) == recTitle {
			return genre.Normalize(entry.Genre), true
		}
	}
	return "", false
}

func (r *Resolver) putOutcome(rec *domain.BookRecord, g string, found bool, source string) {
	if r.cache == nil {
		return
	}
	out := lookupcache.Outcome{
		Genre:    g,
		Found:    found,
		Source:   source,
		LookedUp: time.Now().UTC(),
	}
	if err := r.cache.Put(rec.ISBN13, titleKey(rec), out); err != nil {
		r.logger.Warn("failed to cache lookup outcome",
			"title", rec.BookTitle,
			"error", err,
		)
	}
}

// titleKey keeps cache keys stable for records whose base title is blank.
func titleKey(rec *domain.BookRecord) string {
	if s := strings.TrimSpace(rec.BookTitle); s != "" {
		return s
	}
	return rec.Title
}
