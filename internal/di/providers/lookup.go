package providers

import (
	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/enrich"
	"github.com/florilegium/florilegium-server/internal/googlebooks"
	"github.com/florilegium/florilegium-server/internal/logger"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// ProvideGoogleBooksClient provides the Google Books API client.
func ProvideGoogleBooksClient(i do.Injector) (*googlebooks.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := googlebooks.New(googlebooks.Config{
		APIKey:            cfg.Lookup.APIKey,
		Timeout:           cfg.Lookup.RequestTimeout,
		RequestsPerSecond: cfg.Lookup.RequestsPerSecond,
		Burst:             cfg.Lookup.Burst,
		MaxRetries:        cfg.Lookup.MaxRetries,
		RetryBackoff:      cfg.Lookup.RetryBackoff,
	}, log.Logger)

	log.Info("Google Books client initialized",
		"rps", cfg.Lookup.RequestsPerSecond,
		"max_retries", cfg.Lookup.MaxRetries,
		"keyed", cfg.Lookup.APIKey != "",
	)

	return client, nil
}

// ProvideResolver provides the genre resolver with its manual lookup table.
func ProvideResolver(i do.Injector) (*enrich.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*CatalogHandle](i)
	cache := do.MustInvoke[*LookupCacheHandle](i)
	client := do.MustInvoke[*googlebooks.Client](i)
	v := do.MustInvoke[*validation.Validator](i)

	manual, err := enrich.LoadManualGenres(cfg.Rules.ManualGenresPath, v)
	if err != nil {
		return nil, err
	}
	if len(manual) > 0 {
		log.Info("Manual genre table loaded", "entries", len(manual))
	}

	return enrich.NewResolver(enrich.Config{
		Catalog:         catalog.Store,
		Lookup:          client,
		Cache:           cache.Cache,
		Manual:          manual,
		Logger:          log.Logger,
		CheckpointEvery: cfg.Lookup.CheckpointEvery,
	}), nil
}
