package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/errors"
)

// recordColumns is the ordered list of columns selected in record queries.
// Must match the scan order in scanRecord.
const recordColumns = `id, position, title, book_title, series_name, series_number,
	author, author_clean, isbn, isbn13, genre, shelf,
	read_count, pages, date_added, date_read`

func scanRecord(scanner interface{ Scan(dest ...any) error }) (domain.BookRecord, error) {
	var (
		b     domain.BookRecord
		shelf string
	)
	err := scanner.Scan(
		&b.ID,
		&b.Position,
		&b.Title,
		&b.BookTitle,
		&b.Series.Name,
		&b.Series.Number,
		&b.Author,
		&b.AuthorClean,
		&b.ISBN,
		&b.ISBN13,
		&b.Genre,
		&shelf,
		&b.ReadCount,
		&b.Pages,
		&b.DateAdded,
		&b.DateRead,
	)
	if err != nil {
		return domain.BookRecord{}, err
	}
	b.Shelf = domain.ShelfStatus(shelf)
	return b, nil
}

// LoadAll returns every catalog record in position order.
func (s *Store) LoadAll(ctx context.Context) ([]domain.BookRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM book_records ORDER BY position`, recordColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "load catalog")
	}
	defer rows.Close()

	var records []domain.BookRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInternal, "scan catalog record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "iterate catalog")
	}
	return records, nil
}

// ReplaceAll rewrites the catalog with the given records, reassigning
// positions from slice order. The whole rewrite is one transaction.
func (s *Store) ReplaceAll(ctx context.Context, records []domain.BookRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "begin catalog rewrite")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_records`); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "clear catalog")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO book_records (
			id, position, title, book_title, series_name, series_number,
			author, author_clean, isbn, isbn13, genre, shelf,
			read_count, pages, date_added, date_read,
			key_title, key_author, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "prepare catalog insert")
	}
	defer stmt.Close()

	for i, rec := range records {
		key := rec.Key()
		_, err := stmt.ExecContext(ctx,
			rec.ID, i, rec.Title, rec.BookTitle, rec.Series.Name, rec.Series.Number,
			rec.Author, rec.AuthorClean, rec.ISBN, rec.ISBN13, rec.Genre, string(rec.Shelf),
			rec.ReadCount, rec.Pages, rec.DateAdded, rec.DateRead,
			key.Title, key.Author, now, now,
		)
		if err != nil {
			return errors.Wrapf(err, errors.CodeInternal, "insert record %q", rec.Title)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "commit catalog rewrite")
	}
	return nil
}

// Merge upserts incoming records by catalog key. Existing entries keep
// their ID and position and take the incoming mutable fields; new titles
// append at the end in incoming order. Returns the merged catalog.
func (s *Store) Merge(ctx context.Context, incoming []domain.BookRecord) ([]domain.BookRecord, error) {
	existing, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[domain.CatalogKey]int, len(existing))
	for i := range existing {
		byKey[existing[i].Key()] = i
	}

	merged := existing
	for _, in := range incoming {
		key := in.Key()
		if i, ok := byKey[key]; ok {
			merged[i] = mergeRecord(merged[i], in)
			continue
		}
		in.Position = len(merged)
		merged = append(merged, in)
		byKey[key] = len(merged) - 1
	}

	if err := s.ReplaceAll(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// mergeRecord folds incoming export fields into an existing catalog entry.
// Identity and resolved genre survive; export-owned fields (shelf, dates,
// counts) take the incoming value.
func mergeRecord(existing, in domain.BookRecord) domain.BookRecord {
	out := in
	out.ID = existing.ID
	out.Position = existing.Position
	// A resolved genre is never clobbered by a blank or unresolved
	// incoming one.
	if !out.HasGenre() {
		out.Genre = existing.Genre
	}
	return out
}

// Count returns the number of records in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_records`).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, errors.CodeInternal, "count catalog")
	}
	return n, nil
}

// GetByKey fetches one record by its folded identity.
func (s *Store) GetByKey(ctx context.Context, key domain.CatalogKey) (domain.BookRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM book_records WHERE key_title = ? AND key_author = ?`, recordColumns)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, key.Title, key.Author))
	if err == sql.ErrNoRows {
		return domain.BookRecord{}, errors.NotFoundf("no catalog record for %q by %q", key.Title, key.Author)
	}
	if err != nil {
		return domain.BookRecord{}, errors.Wrapf(err, errors.CodeInternal, "get record by key")
	}
	return rec, nil
}
