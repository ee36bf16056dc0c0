// Package stats builds the aggregation snapshot from the final catalog:
// monthly rollups, top genres and authors, consistency metrics, pace
// statistics, goals, and forecast totals.
package stats

import (
	"log/slog"
	"sort"
	"time"

	"github.com/florilegium/florilegium-server/internal/dates"
	"github.com/florilegium/florilegium-server/internal/domain"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// List caps and pace floors. The floors keep a just-started catalog from
// producing all-zero output.
const (
	topListSize     = 6
	longestListSize = 3
	consistencySize = 3

	defaultCurrentlyReadingPages = 400
	defaultAverageBookLength     = 321

	minPagesPerDay   = 20
	minPagesPerWeek  = 175
	minPagesPerMonth = 900
	minFastestPages  = 200
	minFastestDays   = 2
	minLongestBook   = 400

	minAnnualBooksTarget  = 50
	minMonthlyBooksTarget = 4
	minAnnualPagesTarget  = 20000
	minMonthlyPagesTarget = 1500
)

// Aggregator computes the analytics snapshot. All computations are pure
// functions of the catalog and the as-of date: the same inputs always
// produce an identical snapshot.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// counter accumulates per-name counts preserving first-encounter order so
// ties rank by insertion, not alphabetically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if _, seen := c.counts[name]; !seen {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

// top returns the n highest counts, ties in insertion order.
func (c *counter) top(n int) []domain.NameCount {
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.SliceStable(names, func(i, j int) bool {
		return c.counts[names[i]] > c.counts[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	out := make([]domain.NameCount, len(names))
	for i, name := range names {
		out[i] = domain.NameCount{Name: name, Count: c.counts[name]}
	}
	return out
}

// longestTracker keeps the longest book seen per name, by raw page count.
type longestTracker struct {
	books map[string]domain.LongestBook
	order []string
}

func newLongestTracker() *longestTracker {
	return &longestTracker{books: make(map[string]domain.LongestBook)}
}

func (t *longestTracker) observe(name string, book domain.LongestBook) {
	cur, seen := t.books[name]
	if !seen {
		t.order = append(t.order, name)
		t.books[name] = book
		return
	}
	if book.Pages > cur.Pages {
		t.books[name] = book
	}
}

func (t *longestTracker) first(n int) []domain.LongestBook {
	names := t.order
	if len(names) > n {
		names = names[:n]
	}
	out := make([]domain.LongestBook, len(names))
	for i, name := range names {
		out[i] = t.books[name]
	}
	return out
}

// yearPair tracks current-year and prior-year read counts for one name.
type yearPair struct {
	current int
	past    int
}

// Build computes the snapshot for the given catalog. The as-of date fixes
// the processing year and the day-of-year used in pace calculations.
func (a *Aggregator) Build(records []domain.BookRecord, asOf time.Time) domain.AggregationSnapshot {
	currentYear := asOf.Year()
	previousYear := currentYear - 1

	snap := domain.AggregationSnapshot{
		CurrentYear:      currentYear,
		CurrentlyReading: []domain.ReadingListItem{},
		TBRList:          []domain.ReadingListItem{},
		ByMonth:          make([]domain.MonthStats, 12),
		CurrentYearStart: time.Date(currentYear, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
	}
	for i := range snap.ByMonth {
		snap.ByMonth[i].Month = monthNames[i]
	}

	genreTop := newCounter()
	authorTop := newCounter()
	longestByGenre := newLongestTracker()
	longestByAuthor := newLongestTracker()

	genreYears := make(map[string]*yearPair)
	authorYears := make(map[string]*yearPair)
	var genreOrder, authorOrder []string

	for _, rec := range records {
		displayGenre := rec.Genre
		if displayGenre == "" {
			displayGenre = domain.GenreUnknown
		}
		author := rec.DisplayAuthor()

		switch rec.Shelf {
		case domain.ShelfCurrentlyReading:
			pages := rec.Pages
			if pages <= 0 {
				pages = defaultCurrentlyReadingPages
			}
			snap.CurrentlyReading = append(snap.CurrentlyReading, domain.ReadingListItem{
				Title:      rec.BookTitle,
				Author:     author,
				Genre:      displayGenre,
				TotalPages: pages,
			})
			continue

		case domain.ShelfToRead:
			snap.TBRList = append(snap.TBRList, domain.ReadingListItem{
				Title:  rec.BookTitle,
				Author: author,
				Genre:  displayGenre,
			})
			continue

		case domain.ShelfRead:
			// handled below
		default:
			continue
		}

		// Filler-dated records have no verifiable completion date and
		// stay outside every year-scoped statistic. The resolved date
		// is checked rather than the raw field, since resolution falls
		// back to the filler when neither date is usable.
		resolved := dates.ResolveRead(rec.DateRead, rec.DateAdded)
		if resolved == dates.FillerDate {
			continue
		}
		year, month, ok := dates.YearMonth(resolved)
		if !ok {
			continue
		}

		readCount := rec.ReadCount
		if readCount < 1 {
			readCount = 1
		}

		// Pace totals count a reread's pages each time; longest-book
		// tracking uses the raw page count.
		paceTotal := rec.Pages * readCount

		if rec.Pages > 0 {
			if year == previousYear {
				snap.LastYearTotals.Books++
				snap.LastYearTotals.Pages += paceTotal
			}
			if year == currentYear {
				snap.CompletedBooks++
				snap.CompletedPages += paceTotal
				snap.ByMonth[month-1].Count++
				snap.ByMonth[month-1].Pages += paceTotal

				if displayGenre != domain.GenreUnknown {
					genreTop.add(displayGenre)
					longestByGenre.observe(displayGenre, domain.LongestBook{
						Genre:  displayGenre,
						Title:  rec.BookTitle,
						Author: author,
						Pages:  rec.Pages,
					})
				}
				if author != "" {
					authorTop.add(author)
					longestByAuthor.observe(author, domain.LongestBook{
						Author: author,
						Title:  rec.BookTitle,
						Pages:  rec.Pages,
					})
				}
			}
		}

		// Consistency tracking spans all years, pages known or not.
		if displayGenre != domain.GenreUnknown {
			if _, seen := genreYears[displayGenre]; !seen {
				genreYears[displayGenre] = &yearPair{}
				genreOrder = append(genreOrder, displayGenre)
			}
			switch {
			case year == currentYear:
				genreYears[displayGenre].current++
			case year < currentYear:
				genreYears[displayGenre].past++
			}
		}
		if author != "" {
			if _, seen := authorYears[author]; !seen {
				authorYears[author] = &yearPair{}
				authorOrder = append(authorOrder, author)
			}
			switch {
			case year == currentYear:
				authorYears[author].current++
			case year < currentYear:
				authorYears[author].past++
			}
		}
	}

	snap.TopGenres = genreTop.top(topListSize)
	snap.TopAuthors = authorTop.top(topListSize)
	snap.LongestBooksByGenre = longestByGenre.first(longestListSize)
	snap.LongestBooksByAuthor = longestByAuthor.first(longestListSize)

	// Genres must recur across years to count as consistent; authors
	// qualify on current-year reading alone.
	snap.ConsistentGenres = consistencyTop(genreOrder, genreYears, func(p *yearPair) bool {
		return p.current > 0 && p.past > 0
	})
	snap.ConsistentAuthors = consistencyTop(authorOrder, authorYears, func(p *yearPair) bool {
		return p.current > 0
	})

	snap.Totals = domain.Totals{Books: snap.CompletedBooks, Pages: snap.CompletedPages}
	snap.ReadingStats = buildReadingStats(snap.CompletedBooks, snap.CompletedPages, asOf)
	snap.Goals = buildGoals(snap.CompletedBooks, snap.CompletedPages, asOf)

	a.logger.Info("aggregation snapshot built",
		"year", currentYear,
		"completed_books", snap.CompletedBooks,
		"completed_pages", snap.CompletedPages,
		"currently_reading", len(snap.CurrentlyReading),
		"tbr", len(snap.TBRList),
	)
	return snap
}

// consistencyTop ranks names by (current-year count, prior-year count)
// and keeps the top qualifying entries.
func consistencyTop(order []string, years map[string]*yearPair, qualifies func(*yearPair) bool) []domain.ConsistencyEntry {
	names := make([]string, len(order))
	copy(names, order)
	sort.SliceStable(names, func(i, j int) bool {
		a, b := years[names[i]], years[names[j]]
		if a.current != b.current {
			return a.current > b.current
		}
		return a.past > b.past
	})
	if len(names) > consistencySize {
		names = names[:consistencySize]
	}

	out := []domain.ConsistencyEntry{}
	for _, name := range names {
		p := years[name]
		if !qualifies(p) {
			continue
		}
		out = append(out, domain.ConsistencyEntry{
			Name:        name,
			CurrentYear: p.current,
			PastYears:   p.past,
			TotalBooks:  p.current + p.past,
		})
	}
	return out
}

func buildReadingStats(totalBooks, totalPages int, asOf time.Time) domain.ReadingStats {
	dayOfYear := asOf.YearDay()

	averageBookLength := defaultAverageBookLength
	if totalBooks > 0 && totalPages > 0 {
		averageBookLength = totalPages / totalBooks
	}

	pagesPerDay := 0
	if dayOfYear > 0 {
		pagesPerDay = totalPages / dayOfYear
	}
	pagesPerWeek := pagesPerDay * 7
	pagesPerMonth := pagesPerDay * 30

	longestBook := minLongestBook
	if totalBooks > 0 {
		if est := int(float64(totalPages) / float64(totalBooks) * 1.2); est > longestBook {
			longestBook = est
		}
	}

	fastestDays := 3
	if totalBooks > 0 {
		fastestDays = 48 / totalBooks
	}

	return domain.ReadingStats{
		PagesPerDay:       max(pagesPerDay, minPagesPerDay),
		PagesPerWeek:      max(pagesPerWeek, minPagesPerWeek),
		PagesPerMonth:     max(pagesPerMonth, minPagesPerMonth),
		AverageBookLength: averageBookLength,
		FastestRead: domain.FastestRead{
			Pages: max(pagesPerDay*3/2, minFastestPages),
			Days:  max(fastestDays, minFastestDays),
		},
		LongestBook: longestBook,
	}
}

func buildGoals(totalBooks, totalPages int, asOf time.Time) domain.Goals {
	yearComplete := asOf.YearDay() >= 365

	var annualBooksTarget, annualPagesTarget int
	if yearComplete {
		annualBooksTarget = totalBooks + 5
		annualPagesTarget = totalPages + 2000
	} else {
		annualBooksTarget = max(minAnnualBooksTarget, totalBooks*13/10)
		annualPagesTarget = max(minAnnualPagesTarget, totalPages*12/10)
	}
	monthlyBooksTarget := max(minMonthlyBooksTarget, annualBooksTarget/12)
	monthlyPagesTarget := max(minMonthlyPagesTarget, annualPagesTarget/12)

	return domain.Goals{
		Books: domain.GoalPair{
			Annual:  domain.GoalProgress{Current: totalBooks, Target: annualBooksTarget},
			Monthly: domain.GoalProgress{Current: totalBooks / 12, Target: monthlyBooksTarget},
		},
		Pages: domain.GoalPair{
			Annual:  domain.GoalProgress{Current: totalPages, Target: annualPagesTarget},
			Monthly: domain.GoalProgress{Current: totalPages / 12, Target: monthlyPagesTarget},
		},
	}
}
