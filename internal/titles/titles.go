// Package titles splits raw export titles into a base title and series
// membership. Goodreads folds series into the title as a parenthetical,
// in several inconsistent shapes:
//
//	"Reveal Me (Shatter Me, #5.5)"
//	"Dune (Dune Chronicles #1)"
//	"Mistborn (Mistborn 1)"
//	"The Hobbit (Middle-earth Universe)"
package titles

import (
	"regexp"
	"strings"

	"github.com/florilegium/florilegium-server/internal/domain"
)

// Patterns are tried in order; the first match wins. Series numbers allow
// a decimal part so half-numbered novellas ("#5.5") survive intact.
var (
	// "Title (Series #3)" with optional comma before the hash.
	hashPattern = regexp.MustCompile(`^(.+?)\s*\(([^#,]+?)[,\s]*#(\d+\.?\d*)\)\s*$`)
	// "Title (Series, #3)" where the series name itself contains no hash.
	commaHashPattern = regexp.MustCompile(`^(.+?)\s*\(([^,#]+),\s*#(\d+\.?\d*)\)\s*$`)
	// "Title (Series 3)" with a bare trailing number.
	bareNumberPattern = regexp.MustCompile(`^(.+?)\s*\(([^,#]+?)\s+(\d+\.?\d*)\)\s*$`)
	// Any remaining "Title (Something)" parenthetical.
	parentheticalPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)

	// Used on the loose parenthetical to pull out a number, then strip it.
	looseNumber      = regexp.MustCompile(`[#\s]*(\d+\.?\d*)`)
	looseNumberStrip = regexp.MustCompile(`[#,\s]*\d+\.?\d*`)
)

// Parse splits a raw title into its base title and series info. Titles
// without a recognizable series parenthetical come back unchanged with a
// zero SeriesInfo. Parsing an already-parsed base title is a no-op.
func Parse(raw string) (string, domain.SeriesInfo) {
	title := strings.TrimSpace(raw)

	for _, p := range []*regexp.Regexp{hashPattern, commaHashPattern, bareNumberPattern} {
		if m := p.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1]), domain.SeriesInfo{
				Name:   strings.TrimSpace(m[2]),
				Number: strings.TrimSpace(m[3]),
			}
		}
	}

	// A parenthetical without the usual markers still counts as series
	// info when it carries a number somewhere inside.
	if m := parentheticalPattern.FindStringSubmatch(title); m != nil {
		parenthetical := strings.TrimSpace(m[2])
		if num := looseNumber.FindStringSubmatch(parenthetical); num != nil {
			name := strings.TrimSpace(looseNumberStrip.ReplaceAllString(parenthetical, ""))
			return strings.TrimSpace(m[1]), domain.SeriesInfo{
				Name:   name,
				Number: num[1],
			}
		}
	}

	return title, domain.SeriesInfo{}
}
