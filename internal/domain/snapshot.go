package domain

// AggregationSnapshot is the read-only analytics output consumed by the
// downstream presentation layer. It is rebuilt from scratch on every
// aggregator run and never mutated incrementally.
type AggregationSnapshot struct {
	CurrentYear      int               `json:"currentYear"`
	CurrentlyReading []ReadingListItem `json:"currentlyReading"`
	TBRList          []ReadingListItem `json:"tbrList"`

	CompletedBooks int          `json:"completedBooks"`
	CompletedPages int          `json:"completedPages"`
	ByMonth        []MonthStats `json:"byMonth"`

	TopGenres  []NameCount `json:"topGenres"`
	TopAuthors []NameCount `json:"topAuthors"`

	LongestBooksByGenre  []LongestBook `json:"longestBooksByGenre"`
	LongestBooksByAuthor []LongestBook `json:"longestBooksByAuthor"`

	ConsistentGenres  []ConsistencyEntry `json:"consistentGenres"`
	ConsistentAuthors []ConsistencyEntry `json:"consistentAuthors"`

	ReadingStats ReadingStats `json:"readingStats"`
	Goals        Goals        `json:"goals"`

	Totals         Totals `json:"totals"`
	LastYearTotals Totals `json:"lastYearTotals"`

	// CurrentYearStart is the first day of the processing year, e.g. "2026-01-01".
	CurrentYearStart string `json:"currentYearStart"`
}

// ReadingListItem is a lightweight entry on the currently-reading or to-read
// lists. TotalPages is only populated for currently-reading books.
type ReadingListItem struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Genre      string `json:"genre"`
	TotalPages int    `json:"totalPages,omitempty"`
}

// MonthStats is one of the 12 fixed month buckets.
type MonthStats struct {
	Month string `json:"month"` // "Jan" .. "Dec"
	Count int    `json:"count"`
	Pages int    `json:"pages"`
}

// NameCount is a ranked genre or author with its read count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LongestBook tracks the longest book read for a genre or author.
// Exactly one of Genre/Author is set depending on the list it appears in.
type LongestBook struct {
	Genre  string `json:"genre,omitempty"`
	Author string `json:"author,omitempty"`
	Title  string `json:"title"`
	Pages  int    `json:"pages"`
}

// ConsistencyEntry is a genre or author present in both the current and a
// prior year.
type ConsistencyEntry struct {
	Name        string `json:"name"`
	CurrentYear int    `json:"currentYear"`
	PastYears   int    `json:"pastYears"`
	TotalBooks  int    `json:"totalBooks"`
}

// ReadingStats holds pace statistics. Page totals feeding these figures
// are multiplied by read count (a reread counts its pages each time).
type ReadingStats struct {
	PagesPerDay       int         `json:"pagesPerDay"`
	PagesPerWeek      int         `json:"pagesPerWeek"`
	PagesPerMonth     int         `json:"pagesPerMonth"`
	AverageBookLength int         `json:"averageBookLength"`
	FastestRead       FastestRead `json:"fastestRead"`
	LongestBook       int         `json:"longestBook"`
}

// FastestRead estimates the fastest completed read of the year.
type FastestRead struct {
	Pages int `json:"pages"`
	Days  int `json:"days"`
}

// Goals holds annual and monthly book/page targets.
type Goals struct {
	Books GoalPair `json:"books"`
	Pages GoalPair `json:"pages"`
}

// GoalPair is the annual and monthly progress for one goal dimension.
type GoalPair struct {
	Annual  GoalProgress `json:"annual"`
	Monthly GoalProgress `json:"monthly"`
}

// GoalProgress is current progress against a target.
type GoalProgress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Totals is a book/page pair used for year totals and forecasting.
type Totals struct {
	Books int `json:"books"`
	Pages int `json:"pages"`
}
