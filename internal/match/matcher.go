// Package match scores (title, author) queries against reference sets:
// override rules against the catalog, lookup results against the export.
package match

import (
	"regexp"
	"strings"

	"github.com/florilegium/florilegium-server/internal/titles"
)

// Confidence ranks how certain a title/author pairing is the same book.
type Confidence int

const (
	// ConfidenceNone means no usable overlap; excluded from rankings.
	ConfidenceNone Confidence = iota
	// ConfidenceMedium means the titles relate but authorship is
	// unconfirmed, or only a substring-level title match was found.
	ConfidenceMedium
	// ConfidenceHigh means exact or base-title match with compatible
	// authors.
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "none"
	}
}

// Reference is one entry in the set being matched against.
type Reference struct {
	ID     string
	Title  string
	Author string
}

// Candidate is a scored reference, transient to a single matching call.
type Candidate struct {
	Reference
	// Index is the position in the original reference list; it breaks
	// confidence ties (first listed wins).
	Index      int
	Confidence Confidence
}

// Ranked is a candidate list sorted by confidence descending, ties in
// original reference order.
type Ranked []Candidate

// Best returns the top candidate. ok is false when nothing matched.
func (r Ranked) Best() (Candidate, bool) {
	if len(r) == 0 {
		return Candidate{}, false
	}
	return r[0], true
}

// Ambiguous reports whether the top two candidates are tied at the same
// confidence. Callers must not silently apply a tied match.
func (r Ranked) Ambiguous() bool {
	return len(r) >= 2 && r[0].Confidence == r[1].Confidence
}

// Trailing "(Goodreads Author)" style annotations and comma artifacts on
// author strings.
var authorSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// NormalizeAuthor lowercases, strips trailing parenthetical annotations,
// and drops trailing comma artifacts.
func NormalizeAuthor(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = authorSuffix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ", ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTitle lowercases and collapses whitespace.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// authorsCompatible applies the substring-in-either-direction authorship
// check. An unspecified author on either side is compatible with anything.
func authorsCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Minimum length of the shorter title for a substring match to count.
// Stops "It" from matching half the catalog.
const minSubstringLen = 5

// Score evaluates a single candidate against the query.
func Score(queryTitle, queryAuthor, candTitle, candAuthor string) Confidence {
	qt := NormalizeTitle(queryTitle)
	ct := NormalizeTitle(candTitle)
	if qt == "" || ct == "" {
		return ConfidenceNone
	}

	authorOK := authorsCompatible(NormalizeAuthor(queryAuthor), NormalizeAuthor(candAuthor))

	if qt == ct {
		if authorOK {
			return ConfidenceHigh
		}
		return ConfidenceMedium
	}

	// Titles that differ only by a series parenthetical still identify
	// the same book.
	qBase, _ := titles.Parse(qt)
	cBase, _ := titles.Parse(ct)
	if qBase == cBase || qBase == ct || qt == cBase {
		if authorOK {
			return ConfidenceHigh
		}
		return ConfidenceMedium
	}

	shorter := qt
	if len(ct) < len(shorter) {
		shorter = ct
	}
	if len(shorter) > minSubstringLen && (strings.Contains(qt, ct) || strings.Contains(ct, qt)) && authorOK {
		return ConfidenceMedium
	}

	return ConfidenceNone
}

// Rank scores every reference against the query and returns the matches
// sorted by confidence descending. Zero-confidence references are dropped.
// The sort is stable with respect to reference order, so equal-confidence
// candidates keep their first-listed ordering.
func Rank(queryTitle, queryAuthor string, refs []Reference) Ranked {
	var ranked Ranked
	for i, ref := range refs {
		c := Score(queryTitle, queryAuthor, ref.Title, ref.Author)
		if c == ConfidenceNone {
			continue
		}
		ranked = append(ranked, Candidate{Reference: ref, Index: i, Confidence: c})
	}

	// Insertion sort keeps equal-confidence candidates in reference
	// order without a comparator over both fields.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Confidence > ranked[j-1].Confidence; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
