// Package di provides dependency injection configuration for the pipeline.
package di

import (
	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/backup"
	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/di/providers"
	"github.com/florilegium/florilegium-server/internal/enrich"
	"github.com/florilegium/florilegium-server/internal/googlebooks"
	"github.com/florilegium/florilegium-server/internal/logger"
	"github.com/florilegium/florilegium-server/internal/override"
	"github.com/florilegium/florilegium-server/internal/pipeline"
	"github.com/florilegium/florilegium-server/internal/stats"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideLookupCache)
	do.Provide(injector, providers.ProvideBackups)

	// Lookup layer
	do.Provide(injector, providers.ProvideGoogleBooksClient)
	do.Provide(injector, providers.ProvideResolver)

	// Pipeline
	do.Provide(injector, providers.ProvideApplicator)
	do.Provide(injector, providers.ProvideAggregator)
	do.Provide(injector, providers.ProvidePipeline)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of the full pipeline graph.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*validation.Validator](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LookupCacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*backup.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*googlebooks.Client](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*enrich.Resolver](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*override.Applicator](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*stats.Aggregator](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*pipeline.Pipeline](injector); err != nil {
		return err
	}
	return nil
}
