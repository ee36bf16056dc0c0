package googlebooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		Burst:             100,
		RetryBackoff:      time.Millisecond,
	}, testLogger())
}

func volumesJSON(categories ...string) string {
	out := `{"items":[{"volumeInfo":{"categories":[`
	for i, c := range categories {
		if i > 0 {
			out += ","
		}
		out += `"` + c + `"`
	}
	return out + `]}}]}`
}

func TestLookupGenreByISBN13(t *testing.T) {
	var queries []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		io.WriteString(w, volumesJSON("Fiction / Science Fiction"))
	})

	genre, err := c.LookupGenre(context.Background(), "9780441172719", "0441172717", "Dune")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if genre != "Science Fiction" {
		t.Errorf("genre = %q, want most specific segment", genre)
	}
	if len(queries) != 1 || queries[0] != "isbn:9780441172719" {
		t.Errorf("queries = %v, want a single isbn13 query", queries)
	}
}

func TestLookupGenreFallsBackToTitle(t *testing.T) {
	var queries []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if q == "intitle:Dune" {
			io.WriteString(w, volumesJSON("Fiction"))
			return
		}
		io.WriteString(w, `{"items":[]}`)
	})

	genre, err := c.LookupGenre(context.Background(), "9780441172719", "0441172717", "Dune")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if genre != "Fiction" {
		t.Errorf("genre = %q", genre)
	}
	want := []string{"isbn:9780441172719", "isbn:0441172717", "intitle:Dune"}
	if len(queries) != len(want) {
		t.Fatalf("queries = %v, want %v", queries, want)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestLookupGenreSkipsEmptyIdentifiers(t *testing.T) {
	var queries []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		io.WriteString(w, volumesJSON("Biography & Autobiography"))
	})

	if _, err := c.LookupGenre(context.Background(), "", "", "Educated"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(queries) != 1 || queries[0] != "intitle:Educated" {
		t.Errorf("queries = %v, want only a title query", queries)
	}
}

func TestLookupGenreNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	_, err := c.LookupGenre(context.Background(), "", "", "Obscure Zine")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, volumesJSON("Fantasy"))
	})

	genre, err := c.LookupGenre(context.Background(), "9780765326355", "", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if genre != "Fantasy" {
		t.Errorf("genre = %q", genre)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want one retry", calls)
	}
}

func TestRateLimitRetriesExhausted(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.LookupGenre(context.Background(), "9780765326355", "", "")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("want ErrRateLimited, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want initial attempt plus one retry", calls)
	}
}

func TestMostSpecificCategory(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Fiction / Science Fiction / Space Opera", "Space Opera"},
		{"Fiction", "Fiction"},
		{" Fiction / Fantasy ", "Fantasy"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MostSpecificCategory(tt.in); got != tt.want {
			t.Errorf("MostSpecificCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
