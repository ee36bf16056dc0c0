// Package lookupcache persists external lookup outcomes in a local Badger
// database so repeated runs never refetch a genre the API already answered.
package lookupcache

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Outcome is one cached lookup result. Failed lookups are cached too, so a
// book the API cannot identify is not retried on every run within the TTL.
type Outcome struct {
	Genre    string    `json:"genre"`
	Found    bool      `json:"found"`
	Source   string    `json:"source"` // "manual", "googlebooks"
	LookedUp time.Time `json:"looked_up"`
}

// Cache wraps a Badger database of lookup outcomes.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
}

// Open creates a lookup cache at the given path. Entries expire after ttl;
// a non-positive ttl keeps entries forever.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Debug("lookup cache opened", "path", path, "ttl", ttl)
	}

	return &Cache{db: db, logger: logger, ttl: ttl}, nil
}

// Close gracefully closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(isbn13, title string) []byte {
	if isbn13 != "" {
		return []byte("isbn13:" + isbn13)
	}
	return []byte("title:" + title)
}

// Get returns the cached outcome for a book, keyed by ISBN13 when present,
// title otherwise. ok is false on a miss or an expired entry.
func (c *Cache) Get(isbn13, title string) (Outcome, bool) {
	var out Outcome
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(isbn13, title))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return Outcome{}, false
	}
	return out, true
}

// Put records a lookup outcome.
func (c *Cache) Put(isbn13, title string, out Outcome) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key(isbn13, title), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}
