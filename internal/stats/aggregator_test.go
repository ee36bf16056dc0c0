package stats

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/florilegium/florilegium-server/internal/dates"
	"github.com/florilegium/florilegium-server/internal/domain"
)

var asOf = time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

func newTestAggregator() *Aggregator {
	return NewAggregator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func readBook(title, author, genre string, pages, readCount int, dateRead string) domain.BookRecord {
	return domain.BookRecord{
		Title:     title,
		BookTitle: title,
		Author:    author,
		Genre:     genre,
		Shelf:     domain.ShelfRead,
		Pages:     pages,
		ReadCount: readCount,
		DateRead:  dateRead,
	}
}

func TestBuildTotals(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "Author One", "Fiction", 300, 1, "2026/01/10"),
		readBook("B", "Author Two", "Fiction", 400, 1, "2026/02/10"),
		readBook("C", "Author Three", "Fantasy", 500, 1, "2026/03/10"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if snap.Totals.Books != 3 || snap.Totals.Pages != 1200 {
		t.Errorf("totals = %+v, want 3 books / 1200 pages", snap.Totals)
	}
	if snap.CompletedBooks != 3 || snap.CompletedPages != 1200 {
		t.Errorf("completed = %d/%d", snap.CompletedBooks, snap.CompletedPages)
	}
}

func TestBuildRereadAccumulations(t *testing.T) {
	records := []domain.BookRecord{
		readBook("Reread", "Author", "Fiction", 250, 2, "2026/04/01"),
	}
	snap := newTestAggregator().Build(records, asOf)

	// Pace totals count the pages per completion.
	if snap.CompletedPages != 500 {
		t.Errorf("pace pages = %d, want 500", snap.CompletedPages)
	}
	// Longest-book tracking uses the raw page count.
	if len(snap.LongestBooksByGenre) != 1 || snap.LongestBooksByGenre[0].Pages != 250 {
		t.Errorf("longest by genre = %+v, want raw 250 pages", snap.LongestBooksByGenre)
	}
	if snap.ByMonth[3].Pages != 500 || snap.ByMonth[3].Count != 1 {
		t.Errorf("april bucket = %+v", snap.ByMonth[3])
	}
}

func TestBuildMonthBuckets(t *testing.T) {
	records := []domain.BookRecord{
		readBook("Jan Book", "A", "Fiction", 100, 1, "2026/01/05"),
		readBook("Dec Book", "B", "Fiction", 200, 1, "2026/12/31"),
		readBook("Last Year", "C", "Fiction", 300, 1, "2025/06/15"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if len(snap.ByMonth) != 12 {
		t.Fatalf("byMonth has %d buckets", len(snap.ByMonth))
	}
	if snap.ByMonth[0].Month != "Jan" || snap.ByMonth[11].Month != "Dec" {
		t.Errorf("month labels wrong: %q .. %q", snap.ByMonth[0].Month, snap.ByMonth[11].Month)
	}
	if snap.ByMonth[0].Count != 1 || snap.ByMonth[11].Count != 1 {
		t.Errorf("bucket counts = %+v", snap.ByMonth)
	}
	if snap.ByMonth[5].Count != 0 {
		t.Error("prior-year book leaked into a current-year bucket")
	}
	if snap.LastYearTotals.Books != 1 || snap.LastYearTotals.Pages != 300 {
		t.Errorf("last year totals = %+v", snap.LastYearTotals)
	}
}

func TestBuildShelfLists(t *testing.T) {
	records := []domain.BookRecord{
		{Title: "Reading Now", BookTitle: "Reading Now", Author: "A", Genre: "Fiction", Shelf: domain.ShelfCurrentlyReading, Pages: 0},
		{Title: "Queued", BookTitle: "Queued", Author: "B", Genre: "Fantasy", Shelf: domain.ShelfToRead},
	}
	snap := newTestAggregator().Build(records, asOf)

	if len(snap.CurrentlyReading) != 1 {
		t.Fatalf("currently reading = %+v", snap.CurrentlyReading)
	}
	if snap.CurrentlyReading[0].TotalPages != 400 {
		t.Errorf("unknown page count should default to 400, got %d", snap.CurrentlyReading[0].TotalPages)
	}
	if len(snap.TBRList) != 1 || snap.TBRList[0].Title != "Queued" {
		t.Errorf("tbr = %+v", snap.TBRList)
	}
}

func TestBuildTopGenresTieOrder(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "X", "Horror", 100, 1, "2026/01/01"),
		readBook("B", "X", "Romance", 100, 1, "2026/02/01"),
		readBook("C", "X", "Fantasy", 100, 1, "2026/03/01"),
		readBook("D", "X", "Fantasy", 100, 1, "2026/04/01"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if snap.TopGenres[0].Name != "Fantasy" || snap.TopGenres[0].Count != 2 {
		t.Errorf("top genre = %+v", snap.TopGenres)
	}
	// Horror and Romance tie at 1; first encountered ranks first.
	if snap.TopGenres[1].Name != "Horror" || snap.TopGenres[2].Name != "Romance" {
		t.Errorf("tie order wrong: %+v", snap.TopGenres)
	}
}

func TestBuildUnknownGenreExcludedFromRankings(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "X", domain.GenreUnknown, 100, 1, "2026/01/01"),
		readBook("B", "X", "Fantasy", 100, 1, "2026/02/01"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if len(snap.TopGenres) != 1 || snap.TopGenres[0].Name != "Fantasy" {
		t.Errorf("unknown genre should not rank: %+v", snap.TopGenres)
	}
	// The record still counts toward totals.
	if snap.CompletedBooks != 2 {
		t.Errorf("completed = %d, want 2", snap.CompletedBooks)
	}
}

func TestBuildConsistency(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "Brandon Sanderson", "Fantasy", 400, 1, "2026/01/01"),
		readBook("B", "Brandon Sanderson", "Fantasy", 400, 1, "2024/05/01"),
		readBook("C", "New Author", "Horror", 300, 1, "2026/03/01"),
	}
	snap := newTestAggregator().Build(records, asOf)

	// Fantasy appears both years; Horror is current-year only.
	if len(snap.ConsistentGenres) != 1 || snap.ConsistentGenres[0].Name != "Fantasy" {
		t.Errorf("consistent genres = %+v", snap.ConsistentGenres)
	}
	g := snap.ConsistentGenres[0]
	if g.CurrentYear != 1 || g.PastYears != 1 || g.TotalBooks != 2 {
		t.Errorf("fantasy consistency = %+v", g)
	}

	// Authors qualify on current-year reading alone.
	names := make(map[string]bool)
	for _, a := range snap.ConsistentAuthors {
		names[a.Name] = true
	}
	if !names["Brandon Sanderson"] || !names["New Author"] {
		t.Errorf("consistent authors = %+v", snap.ConsistentAuthors)
	}
}

func TestBuildFillerDateOutsideWindow(t *testing.T) {
	records := []domain.BookRecord{
		readBook("Unverified", "X", "Fiction", 500, 1, dates.FillerDate),
		readBook("Verified", "Y", "Fiction", 200, 1, "2026/02/02"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if snap.CompletedBooks != 1 || snap.CompletedPages != 200 {
		t.Errorf("filler-dated record leaked into totals: %d/%d", snap.CompletedBooks, snap.CompletedPages)
	}
	for _, g := range snap.ConsistentGenres {
		if g.PastYears > 0 {
			t.Errorf("filler-dated record leaked into consistency: %+v", g)
		}
	}
}

func TestBuildUnresolvableDatesOutsideWindow(t *testing.T) {
	// A record whose read date cannot be parsed and whose added date is
	// blank resolves to the filler date. It must stay outside the year
	// buckets and the consistency counts just like an explicit filler.
	unresolvable := readBook("Mystery Date", "X", "Fantasy", 500, 1, "not a date")
	records := []domain.BookRecord{
		unresolvable,
		readBook("Verified", "Y", "Fantasy", 200, 1, "2026/02/02"),
	}
	snap := newTestAggregator().Build(records, asOf)

	if snap.CompletedBooks != 1 || snap.CompletedPages != 200 {
		t.Errorf("unresolvable record leaked into totals: %d/%d", snap.CompletedBooks, snap.CompletedPages)
	}
	if snap.LastYearTotals.Books != 0 {
		t.Errorf("unresolvable record leaked into last-year totals: %+v", snap.LastYearTotals)
	}
	for _, g := range snap.ConsistentGenres {
		if g.PastYears > 0 {
			t.Errorf("unresolvable record leaked into consistency: %+v", g)
		}
	}
}

func TestBuildPaceFloors(t *testing.T) {
	snap := newTestAggregator().Build(nil, asOf)

	rs := snap.ReadingStats
	if rs.PagesPerDay < 20 || rs.PagesPerWeek < 175 || rs.PagesPerMonth < 900 {
		t.Errorf("pace floors not applied: %+v", rs)
	}
	if rs.AverageBookLength != 321 {
		t.Errorf("average book length default = %d, want 321", rs.AverageBookLength)
	}
	if rs.LongestBook < 400 {
		t.Errorf("longest book floor not applied: %d", rs.LongestBook)
	}
	if rs.FastestRead.Pages < 200 || rs.FastestRead.Days < 2 {
		t.Errorf("fastest read floors not applied: %+v", rs.FastestRead)
	}
}

func TestBuildGoals(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "X", "Fiction", 600, 1, "2026/01/01"),
	}
	snap := newTestAggregator().Build(records, asOf)

	g := snap.Goals
	if g.Books.Annual.Current != 1 || g.Books.Annual.Target != 50 {
		t.Errorf("book goals = %+v", g.Books)
	}
	if g.Pages.Annual.Current != 600 || g.Pages.Annual.Target != 20000 {
		t.Errorf("page goals = %+v", g.Pages)
	}
	if g.Books.Monthly.Target != 4 || g.Pages.Monthly.Target != 1666 {
		t.Errorf("monthly targets = %+v / %+v", g.Books.Monthly, g.Pages.Monthly)
	}
}

func TestBuildDeterminism(t *testing.T) {
	records := []domain.BookRecord{
		readBook("A", "Author One", "Fiction", 300, 1, "2026/01/10"),
		readBook("B", "Author Two", "Fantasy", 400, 2, "2026/02/10"),
		readBook("C", "Author One", "Fiction", 500, 1, "2025/03/10"),
		{Title: "Now", BookTitle: "Now", Author: "Z", Shelf: domain.ShelfCurrentlyReading, Pages: 123},
	}
	agg := newTestAggregator()

	first := agg.Build(records, asOf)
	second := agg.Build(records, asOf)
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over unchanged input must produce identical snapshots")
	}
}

func TestBuildCurrentYearStart(t *testing.T) {
	snap := newTestAggregator().Build(nil, asOf)
	if snap.CurrentYearStart != "2026-01-01" {
		t.Errorf("currentYearStart = %q", snap.CurrentYearStart)
	}
	if snap.CurrentYear != 2026 {
		t.Errorf("currentYear = %d", snap.CurrentYear)
	}
}
