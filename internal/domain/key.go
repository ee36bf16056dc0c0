package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CatalogKey is the logical identity of a record within the catalog:
// the folded (title, author) pair.
type CatalogKey struct {
	Title  string
	Author string
}

// Key returns the record's catalog identity.
func (b *BookRecord) Key() CatalogKey {
	return CatalogKey{
		Title:  Fold(b.Title),
		Author: Fold(b.DisplayAuthor()),
	}
}

// Fold normalizes a string for identity comparison: unicode decomposition
// with combining marks dropped, lowercased, whitespace collapsed.
// "Émile Zola " and "emile zola" fold to the same value.
func Fold(s string) string {
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Drop combining marks left over from decomposition.
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
