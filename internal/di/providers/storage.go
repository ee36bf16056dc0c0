package providers

import (
	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/backup"
	"github.com/florilegium/florilegium-server/internal/config"
	"github.com/florilegium/florilegium-server/internal/logger"
	"github.com/florilegium/florilegium-server/internal/lookupcache"
	"github.com/florilegium/florilegium-server/internal/store/sqlite"
)

// CatalogHandle wraps the catalog store with shutdown capability.
type CatalogHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalog provides the enriched catalog store.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.CatalogPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog initialized", "path", cfg.Data.CatalogPath)

	return &CatalogHandle{Store: db}, nil
}

// LookupCacheHandle wraps the lookup cache with shutdown capability.
type LookupCacheHandle struct {
	*lookupcache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *LookupCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideLookupCache provides the persistent lookup result cache.
func ProvideLookupCache(i do.Injector) (*LookupCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := lookupcache.Open(cfg.Data.CachePath, cfg.Lookup.CacheTTL, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Lookup cache opened",
		"path", cfg.Data.CachePath,
		"ttl", cfg.Lookup.CacheTTL,
	)

	return &LookupCacheHandle{Cache: cache}, nil
}

// ProvideBackups provides the pre-run catalog backup service.
func ProvideBackups(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.New(cfg.Data.CatalogPath, cfg.Data.BackupDir, cfg.Data.BackupKeep, log.Logger), nil
}
