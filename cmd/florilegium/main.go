// Package main provides the entry point for the Florilegium pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/florilegium/florilegium-server/internal/di"
	"github.com/florilegium/florilegium-server/internal/di/providers"
	"github.com/florilegium/florilegium-server/internal/logger"
	"github.com/florilegium/florilegium-server/internal/pipeline"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap pipeline: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	p := do.MustInvoke[*pipeline.Pipeline](injector)

	// Interrupt cancels the in-flight run; checkpoints bound the loss.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := p.Run(ctx)
	if err != nil {
		log.Error("Pipeline run failed", "error", err)
		shutdown(injector, log)
		os.Exit(1)
	}

	log.Info("Pipeline run complete",
		"year", snap.CurrentYear,
		"books", snap.Totals.Books,
		"pages", snap.Totals.Pages,
		"currently_reading", len(snap.CurrentlyReading),
		"tbr", len(snap.TBRList),
	)

	shutdown(injector, log)
}

// shutdown closes all services in reverse dependency order. Storage handles
// use wrapper types, so they are closed explicitly as well.
func shutdown(injector *do.RootScope, log *logger.Logger) {
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	if catalog, err := do.Invoke[*providers.CatalogHandle](injector); err == nil {
		if err := catalog.Shutdown(); err != nil {
			log.Error("Failed to close catalog", "error", err)
		}
	}
	if cache, err := do.Invoke[*providers.LookupCacheHandle](injector); err == nil {
		if err := cache.Shutdown(); err != nil {
			log.Error("Failed to close lookup cache", "error", err)
		}
	}
}
