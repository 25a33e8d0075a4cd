package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

const DefaultOpenLibraryBaseURL = "https://openlibrary.org"

// BookMetadata is the subset of an OpenLibrary search hit used for covers.
type BookMetadata struct {
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	CoverURL       string `json:"cover_url,omitempty"`
	OpenLibraryKey string `json:"open_library_key,omitempty"`
}

// OpenLibraryClient searches OpenLibrary; used as the fallback cover source.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewOpenLibraryClient creates an OpenLibrary client limited to one request
// per second, as the OpenLibrary API guidelines ask.
func NewOpenLibraryClient(opts ...catalog.Option) *OpenLibraryClient {
	base, client := catalog.Resolve(DefaultOpenLibraryBaseURL, opts...)
	return &OpenLibraryClient{
		httpClient: client,
		baseURL:    strings.TrimRight(base, "/"),
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
}

// FindCover returns a medium-size cover for the best title match.
func (c *OpenLibraryClient) FindCover(ctx context.Context, query string) (string, error) {
	md, err := c.SearchByTitle(ctx, query, "")
	if err != nil {
		return "", err
	}
	if md.CoverURL == "" {
		return "", &catalog.Error{Kind: catalog.KindInvalidData, Op: "openlibrary.cover", Err: errNoCover}
	}
	return md.CoverURL, nil
}

// SearchByTitle looks up a book by title and author, returning the best match.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	const op = "openlibrary.search"

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &catalog.Error{Kind: catalog.KindInvalidURL, Op: op, Err: errors.New("title is required")}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &catalog.Error{Kind: catalog.KindUnknown, Op: op, Err: err}
		}
	}

	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	params.Set("limit", "5")
	params.Set("fields", "key,title,author_name,cover_i")

	rawURL, err := catalog.BuildURL(op, c.baseURL+"/search.json", params)
	if err != nil {
		return nil, err
	}

	var searchResult openLibrarySearchResult
	if err := catalog.FetchJSON(ctx, c.httpClient, op, rawURL, &searchResult); err != nil {
		return nil, err
	}

	if len(searchResult.Docs) == 0 {
		return nil, &catalog.Error{Kind: catalog.KindInvalidData, Op: op, Err: fmt.Errorf("no results found for: %s", title)}
	}

	best := findBestMatch(searchResult.Docs, title, author)

	md := &BookMetadata{
		Title:          best.Title,
		OpenLibraryKey: best.Key,
	}
	if len(best.AuthorName) > 0 {
		md.Author = best.AuthorName[0]
	}
	if best.CoverI != 0 {
		md.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", best.CoverI)
	}
	return md, nil
}

// findBestMatch scores candidates on title and author similarity and prefers
// documents that have a cover.
func findBestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	var bestMatch *openLibrarySearchDoc
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		docTitle := strings.ToLower(doc.Title)
		if docTitle == titleLower {
			score += 10
		} else if strings.Contains(docTitle, titleLower) || strings.Contains(titleLower, docTitle) {
			score += 5
		}

		if author != "" {
			for _, docAuthor := range doc.AuthorName {
				docAuthor = strings.ToLower(docAuthor)
				if docAuthor == authorLower {
					score += 10
					break
				} else if strings.Contains(docAuthor, authorLower) {
					score += 5
					break
				}
			}
		}

		if doc.CoverI != 0 {
			score += 3
		}

		if score > bestScore {
			bestScore = score
			bestMatch = doc
		}
	}

	return bestMatch
}

// OpenLibrary API response types (internal)

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	CoverI     int      `json:"cover_i"`
}
