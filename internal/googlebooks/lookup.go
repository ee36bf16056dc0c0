package googlebooks

import (
	"context"
	"errors"
)

// LookupGenre resolves a genre label for a book. Identifiers are tried
// most-reliable first: ISBN13, then ISBN, then a title search. The first
// query that yields a usable category wins; only a genuinely empty result
// set falls through to the next identifier.
func (c *Client) LookupGenre(ctx context.Context, isbn13, isbn, title string) (string, error) {
	var lastErr error

	for _, id := range []string{isbn13, isbn} {
		if id == "" {
			continue
		}
		cat, err := c.queryCategory(ctx, "isbn:"+id)
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
		lastErr = err
	}

	if title != "" {
		cat, err := c.queryCategory(ctx, "intitle:"+title)
		if err == nil {
			c.logger.Debug("genre found via title search", "title", title, "genre", cat)
			return cat, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = wrapError("volumes", title, ErrNotFound)
	}
	return "", lastErr
}
