package genre

import (
	"strings"

	"github.com/florilegium/florilegium-server/internal/domain"
)

// canonicalAliases maps slugged label variants to their canonical display
// label. Lookup uses sources the way they actually misbehave: Google Books
// shouts "FICTION", shelves juvenile titles under "Juvenile Fiction", and
// CSV round-trips leave "nan" artifacts behind.
var canonicalAliases = map[string]string{
	// Capitalization variants.
	"fiction":     "Fiction",
	"non-fiction": "Nonfiction",
	"nonfiction":  "Nonfiction",

	// Google Books shelving quirks.
	"juvenile-fiction":    "Young Adult Fiction",
	"juvenile-nonfiction": "Young Adult Nonfiction",

	// Common shorthand from hand-maintained rule files.
	"ya":                "Young Adult Fiction",
	"young-adult":       "Young Adult Fiction",
	"sci-fi":            "Science Fiction",
	"scifi":             "Science Fiction",
	"sf":                "Science Fiction",
	"bio":               "Biography & Autobiography",
	"biography":         "Biography & Autobiography",
	"memoir":            "Biography & Autobiography",
	"graphic-novel":     "Comics & Graphic Novels",
	"graphic-novels":    "Comics & Graphic Novels",
	"comics":            "Comics & Graphic Novels",
	"self-help":         "Self-Help",
	"selfhelp":          "Self-Help",
	"literary-fiction":  "Fiction",
	"historical":        "Historical Fiction",
	"true-crime":        "True Crime",
	"mystery-thriller":  "Thriller",
	"suspense":          "Thriller",
	"romantasy":         "Fantasy Romance",
	"business":          "Business & Economics",
	"business-economics": "Business & Economics",
}

// missingValues are placeholder strings that mean "no genre at all".
// They normalize to the Unknown sentinel rather than passing through.
var missingValues = map[string]struct{}{
	"":        {},
	"nan":     {},
	"none":    {},
	"null":    {},
	"n-a":     {},
	"unknown": {},
}

// Normalize maps a raw genre label to its canonical form. Missing-value
// artifacts become the Unknown sentinel; labels without an alias pass
// through trimmed. Normalize is idempotent.
func Normalize(raw string) string {
	label := strings.TrimSpace(raw)
	slug := Slugify(label)

	if _, missing := missingValues[slug]; missing {
		return domain.GenreUnknown
	}
	if canonical, ok := canonicalAliases[slug]; ok {
		return canonical
	}
	return label
}

// Known reports whether Normalize would produce a real genre label rather
// than the Unknown sentinel.
func Known(raw string) bool {
	return Normalize(raw) != domain.GenreUnknown
}
