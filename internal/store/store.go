// Package store defines the persistence interface for the enriched catalog.
package store

import (
	"context"

	"github.com/florilegium/florilegium-server/internal/domain"
)

// Catalog is the system of record for book records. Stages load the full
// catalog, transform it in memory, and write it back wholesale; no partial
// row protocol exists.
type Catalog interface {
	// Lifecycle
	Close() error

	// LoadAll returns every record ordered by position.
	LoadAll(ctx context.Context) ([]domain.BookRecord, error)

	// ReplaceAll rewrites the catalog with the given records. Positions
	// are reassigned from slice order.
	ReplaceAll(ctx context.Context, records []domain.BookRecord) error

	// Merge upserts records by catalog key: an existing entry is updated
	// in place keeping its ID and position, a new title is appended at
	// the end. Returns the merged catalog.
	Merge(ctx context.Context, incoming []domain.BookRecord) ([]domain.BookRecord, error)

	// Count returns the number of records in the catalog.
	Count(ctx context.Context) (int, error)
}
