package domain

// OverrideRule is a field-override rule: it may set any whitelisted field
// of the single record it binds to. Binding is decided by the matcher; a
// rule that matches zero records or several tied records is reported and
// skipped.
type OverrideRule struct {
	Title  string         `json:"title" validate:"required"`
	Author string         `json:"author,omitempty"`
	Fields map[string]any `json:"fields" validate:"required,min=1"`
	Note   string         `json:"note,omitempty"`
}

// GenreOverride is a genre-only override rule, applied after all field
// overrides so a later genre rule cannot clobber an earlier field rule
// meant for a different purpose.
type GenreOverride struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author,omitempty"`
	Genre  string `json:"genre" validate:"required"`
	Note   string `json:"note,omitempty"`
}

// ManualGenreEntry is a manual genre assignment, ranked above external
// lookup during enrichment. ISBN13 match wins over title match.
type ManualGenreEntry struct {
	Title  string `json:"title" validate:"required"`
	ISBN13 string `json:"isbn13,omitempty"`
	Genre  string `json:"genre" validate:"required"`
}

// Whitelisted field names an OverrideRule may set.
const (
	FieldTitle     = "Title"
	FieldAuthor    = "Author"
	FieldGenre     = "Genre"
	FieldReadCount = "Read Count"
	FieldPages     = "Number of Pages"
	FieldDateRead  = "Date Read"
)

// OverridableFields is the set of fields a field-override rule may touch.
// Anything else is reported and skipped.
var OverridableFields = map[string]bool{
	FieldTitle:     true,
	FieldAuthor:    true,
	FieldGenre:     true,
	FieldReadCount: true,
	FieldPages:     true,
	FieldDateRead:  true,
}
