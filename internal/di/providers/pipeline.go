package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/backup"
	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/enrich"
	"github.com/florilegium/florilegium-server/internal/export"
	"github.com/florilegium/florilegium-server/internal/logger"
	"github.com/florilegium/florilegium-server/internal/override"
	"github.com/florilegium/florilegium-server/internal/pipeline"
	"github.com/florilegium/florilegium-server/internal/stats"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// ProvideValidator provides the struct validator shared across rule loaders.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideApplicator provides the override rule applicator.
func ProvideApplicator(i do.Injector) (*override.Applicator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return override.NewApplicator(log.Logger), nil
}

// ProvideAggregator provides the reading statistics aggregator.
func ProvideAggregator(i do.Injector) (*stats.Aggregator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return stats.NewAggregator(log.Logger), nil
}

// ProvidePipeline provides the assembled processing pipeline.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*CatalogHandle](i)
	resolver := do.MustInvoke[*enrich.Resolver](i)
	applicator := do.MustInvoke[*override.Applicator](i)
	aggregator := do.MustInvoke[*stats.Aggregator](i)
	v := do.MustInvoke[*validation.Validator](i)
	backups := do.MustInvoke[*backup.Service](i)

	return pipeline.New(pipeline.Config{
		Settings:   cfg,
		Reader:     export.NewReader(),
		Catalog:    catalog.Store,
		Resolver:   resolver,
		Applicator: applicator,
		Aggregator: aggregator,
		Validator:  v,
		Backups:    backups,
		Logger:     log.Logger,
		Now:        statsClock(cfg.Stats.Year),
	}), nil
}

// statsClock pins the analytics window to a configured year. When the
// configured year is the current one, or zero, the wall clock is used so
// in-progress-year projections stay live.
func statsClock(year int) func() time.Time {
	return func() time.Time {
		now := time.Now()
		if year == 0 || now.Year() == year {
			return now
		}
		return time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	}
}
