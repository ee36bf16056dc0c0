// Package pipeline runs the processing stages in order: import and
// enrichment, field overrides, genre overrides, aggregation. The catalog
// is loaded, transformed, and saved once per stage; no stage mutates it
// concurrently with another.
package pipeline

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/florilegium/florilegium-server/internal/backup"
	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/enrich"
	"github.com/florilegium/florilegium-server/internal/errors"
	"github.com/florilegium/florilegium-server/internal/export"
	"github.com/florilegium/florilegium-server/internal/override"
	"github.com/florilegium/florilegium-server/internal/stats"
	"github.com/florilegium/florilegium-server/internal/store"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// Pipeline wires the stages together.
type Pipeline struct {
	cfg        *config.Config
	reader     *export.Reader
	catalog    store.Catalog
	resolver   *enrich.Resolver
	applicator *override.Applicator
	aggregator *stats.Aggregator
	validator  *validation.Validator
	backups    *backup.Service
	logger     *slog.Logger

	// now fixes the processing date; tests inject a constant.
	now func() time.Time
}

// Config holds pipeline collaborators.
type Config struct {
	Settings   *config.Config
	Reader     *export.Reader
	Catalog    store.Catalog
	Resolver   *enrich.Resolver
	Applicator *override.Applicator
	Aggregator *stats.Aggregator
	Validator  *validation.Validator
	// Backups, when set, snapshots the catalog before the run mutates it.
	Backups *backup.Service
	Logger  *slog.Logger
	Now     func() time.Time
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		cfg:        cfg.Settings,
		reader:     cfg.Reader,
		catalog:    cfg.Catalog,
		resolver:   cfg.Resolver,
		applicator: cfg.Applicator,
		aggregator: cfg.Aggregator,
		validator:  cfg.Validator,
		backups:    cfg.Backups,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// CoverageReport summarizes genre coverage after enrichment and overrides.
type CoverageReport struct {
	Total      int
	WithGenre  int
	Missing    []string // titles still lacking a genre
	SuccessPct float64
}

// Run executes the full pipeline. A failure on a single record never
// aborts the run; a shrinking catalog always does.
func (p *Pipeline) Run(ctx context.Context) (domain.AggregationSnapshot, error) {
	// A failed backup never blocks the run.
	if p.backups != nil {
		if info, err := p.backups.Create(ctx); err != nil {
			p.logger.Warn("catalog backup failed", "error", err)
		} else if info != nil {
			p.logger.Info("catalog backed up", "path", info.Path, "size", info.Size)
		}
	}

	// Stage 1: import the export and resolve genres.
	records, err := p.reader.ReadFile(p.cfg.Data.ExportPath)
	if err != nil {
		return domain.AggregationSnapshot{}, err
	}
	p.logger.Info("export loaded", "path", p.cfg.Data.ExportPath, "records", len(records))

	res, err := p.resolver.Run(ctx, records)
	if err != nil {
		return domain.AggregationSnapshot{}, err
	}
	p.logger.Info("enrichment finished",
		"total", res.Total,
		"resolved", res.Resolved,
		"unknown", res.Unknown,
		"skipped", res.Skipped,
		"from_cache", res.FromCache,
	)

	// Stage 2: overrides, field layer before genre layer.
	if err := p.applyOverrides(ctx); err != nil {
		return domain.AggregationSnapshot{}, err
	}

	// Stage 3: aggregate.
	catalog, err := p.catalog.LoadAll(ctx)
	if err != nil {
		return domain.AggregationSnapshot{}, err
	}
	report := coverage(catalog)
	p.logger.Info("genre coverage",
		"total", report.Total,
		"with_genre", report.WithGenre,
		"success_pct", report.SuccessPct,
	)
	for _, title := range report.Missing {
		p.logger.Warn("book still missing a genre", "title", title)
	}

	snap := p.aggregator.Build(catalog, p.now())
	if err := p.writeSnapshot(snap); err != nil {
		return domain.AggregationSnapshot{}, err
	}
	return snap, nil
}

// applyOverrides loads the rule documents and applies both layers to the
// catalog under the record-count invariant.
func (p *Pipeline) applyOverrides(ctx context.Context) error {
	fieldRules, err := override.LoadFieldOverrides(p.cfg.Rules.FieldOverridesPath, p.validator)
	if err != nil {
		return err
	}
	genreRules, err := override.LoadGenreOverrides(p.cfg.Rules.GenreOverridesPath, p.validator)
	if err != nil {
		return err
	}
	if len(fieldRules) == 0 && len(genreRules) == 0 {
		p.logger.Debug("no override rules to apply")
		return nil
	}

	records, err := p.catalog.LoadAll(ctx)
	if err != nil {
		return err
	}
	before := len(records)

	fieldRep := p.applicator.ApplyFields(records, fieldRules)
	genreRep := p.applicator.ApplyGenres(records, genreRules)
	p.logger.Info("overrides applied",
		"field_applied", fieldRep.Applied,
		"field_skipped", fieldRep.SkippedNoMatch+fieldRep.SkippedAmbiguous,
		"genre_applied", genreRep.Applied,
		"genre_skipped", genreRep.SkippedNoMatch+genreRep.SkippedAmbiguous,
	)

	if len(records) < before {
		return errors.DataLossf("catalog shrank during overrides: %d -> %d records", before, len(records))
	}
	return p.catalog.ReplaceAll(ctx, records)
}

// coverage reports how many records carry a resolved genre.
func coverage(records []domain.BookRecord) CoverageReport {
	rep := CoverageReport{Total: len(records)}
	for _, rec := range records {
		if rec.HasGenre() {
			rep.WithGenre++
		} else {
			rep.Missing = append(rep.Missing, rec.Title)
		}
	}
	if rep.Total > 0 {
		rep.SuccessPct = float64(rep.WithGenre) / float64(rep.Total) * 100
	}
	return rep
}

// writeSnapshot persists the aggregation snapshot as indented JSON.
func (p *Pipeline) writeSnapshot(snap domain.AggregationSnapshot) error {
	path := p.cfg.Data.SnapshotPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "create snapshot directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "create snapshot %s", path)
	}
	defer f.Close()

	if err := json.MarshalWrite(f, snap, jsontext.WithIndent("  ")); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "write snapshot %s", path)
	}
	p.logger.Info("snapshot written", "path", path)
	return nil
}
