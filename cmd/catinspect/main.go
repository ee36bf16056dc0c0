package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"

	"github.com/florilegium/florilegium-server/internal/domain"
)

type row struct {
	title  string
	author string
	genre  string
	shelf  string
	pages  int
}

func main() {
	comparePath := flag.String("compare", "", "Second catalog to diff genres against")
	flag.Parse()

	dbPath := os.Getenv("CATALOG_PATH")
	if dbPath == "" {
		dbPath = "data/catalog.db"
	}
	if flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}

	rows, err := loadRows(dbPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}

	fmt.Println("=== Catalog Inspection ===")
	fmt.Println()

	shelfCounts := map[string]int{}
	withGenre := 0
	var missing []row

	for _, r := range rows {
		shelfCounts[r.shelf]++
		if r.genre != "" && r.genre != domain.GenreUnknown {
			withGenre++
		} else {
			missing = append(missing, r)
		}
	}

	fmt.Printf("Total records: %d\n", len(rows))
	for _, shelf := range []string{"read", "currently-reading", "to-read", "other"} {
		if n := shelfCounts[shelf]; n > 0 {
			fmt.Printf("  %s: %d\n", shelf, n)
		}
	}
	fmt.Println()

	if len(rows) > 0 {
		pct := float64(withGenre) / float64(len(rows)) * 100
		fmt.Printf("Genre coverage: %d/%d (%.1f%%)\n", withGenre, len(rows), pct)
	}
	if len(missing) > 0 {
		fmt.Println()
		fmt.Println("Missing or unknown genre:")
		for i, r := range missing {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(missing)-10)
				break
			}
			fmt.Printf("  %s by %s\n", r.title, r.author)
		}
	}

	if *comparePath != "" {
		if err := diffGenres(rows, *comparePath); err != nil {
			log.Fatalf("Failed to diff catalogs: %v", err)
		}
	}
}

func loadRows(path string) ([]row, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result, err := db.Query(
		`SELECT title, author, genre, shelf, pages FROM book_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var rows []row
	for result.Next() {
		var r row
		if err := result.Scan(&r.title, &r.author, &r.genre, &r.shelf, &r.pages); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, result.Err()
}

// diffGenres reports genre changes between the primary catalog and another,
// typically a backup taken before a pipeline run.
func diffGenres(current []row, otherPath string) error {
	other, err := loadRows(otherPath)
	if err != nil {
		return err
	}

	byKey := make(map[string]string, len(other))
	for _, r := range other {
		byKey[r.title+"\x00"+r.author] = r.genre
	}

	fmt.Println()
	fmt.Printf("=== Genre Diff vs %s ===\n", otherPath)

	changed := 0
	added := 0
	for _, r := range current {
		prev, ok := byKey[r.title+"\x00"+r.author]
		switch {
		case !ok:
			added++
			fmt.Printf("  + %s by %s (%s)\n", r.title, r.author, r.genre)
		case prev != r.genre:
			changed++
			fmt.Printf("  ~ %s by %s: %q -> %q\n", r.title, r.author, prev, r.genre)
		}
	}

	fmt.Println()
	fmt.Printf("Changed: %d, added: %d, unchanged: %d\n",
		changed, added, len(current)-changed-added)
	return nil
}
