package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

func newTestOpenLibraryClient(serverURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    serverURL,
		limiter:    rate.NewLimiter(rate.Inf, 1), // No rate limiting for tests
	}
}

func TestOpenLibrary_SearchByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("title") != "Emma" {
			t.Errorf("unexpected title query %q", r.URL.Query().Get("title"))
		}
		response := openLibrarySearchResult{
			NumFound: 2,
			Docs: []openLibrarySearchDoc{
				{Key: "/works/OL1W", Title: "Emma: A Study Guide", AuthorName: []string{"Someone"}},
				{Key: "/works/OL2W", Title: "Emma", AuthorName: []string{"Jane Austen"}, CoverI: 12345},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)

	md, err := client.SearchByTitle(context.Background(), "Emma", "Jane Austen")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}
	if md.OpenLibraryKey != "/works/OL2W" {
		t.Errorf("expected best match /works/OL2W, got %q", md.OpenLibraryKey)
	}
	if md.Author != "Jane Austen" {
		t.Errorf("expected author 'Jane Austen', got %q", md.Author)
	}
	if md.CoverURL != "https://covers.openlibrary.org/b/id/12345-M.jpg" {
		t.Errorf("unexpected cover URL %q", md.CoverURL)
	}
}

func TestOpenLibrary_FindCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numFound":1,"docs":[{"key":"/works/OL9W","title":"Coverless"}]}`))
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)

	_, err := client.FindCover(context.Background(), "Coverless")
	if !errors.Is(err, catalog.ErrInvalidData) {
		t.Errorf("expected invalid data for a match without cover, got %v", err)
	}
}

func TestOpenLibrary_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)

	_, err := client.SearchByTitle(context.Background(), "Nothing", "")
	if !errors.Is(err, catalog.ErrInvalidData) {
		t.Errorf("expected invalid data, got %v", err)
	}
}

func TestOpenLibrary_EmptyTitle(t *testing.T) {
	client := NewOpenLibraryClient()

	_, err := client.SearchByTitle(context.Background(), "  ", "")
	if !errors.Is(err, catalog.ErrInvalidURL) {
		t.Errorf("expected invalid URL error for empty title, got %v", err)
	}
}

func TestFindBestMatch(t *testing.T) {
	docs := []openLibrarySearchDoc{
		{Title: "Dracula's Guest"},
		{Title: "Dracula", AuthorName: []string{"Bram Stoker"}},
		{Title: "Dracula", CoverI: 1},
	}

	best := findBestMatch(docs, "Dracula", "Bram Stoker")
	if best != &docs[1] {
		t.Errorf("expected author match to win, got %+v", best)
	}

	best = findBestMatch(docs, "Dracula", "")
	if best != &docs[2] {
		t.Errorf("expected covered exact match to win, got %+v", best)
	}
}
