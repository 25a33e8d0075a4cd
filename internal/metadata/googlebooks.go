package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

const DefaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"

// CoverProvider finds a cover image URL for a free-text title query.
type CoverProvider interface {
	FindCover(ctx context.Context, query string) (string, error)
}

var errNoCover = errors.New("no cover in response")

// GoogleBooksClient looks up cover thumbnails through the Google Books volumes API.
type GoogleBooksClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoogleBooksClient creates a Google Books client. apiKey may be empty;
// anonymous requests are accepted at a lower quota.
func NewGoogleBooksClient(apiKey string, opts ...catalog.Option) *GoogleBooksClient {
	base, client := catalog.Resolve(DefaultGoogleBooksBaseURL, opts...)
	return &GoogleBooksClient{
		baseURL: base,
		apiKey:  apiKey,
		client:  client,
	}
}

// FindCover returns the thumbnail of the first volume matching query,
// rewritten to https.
func (c *GoogleBooksClient) FindCover(ctx context.Context, query string) (string, error) {
	const op = "googlebooks.cover"

	query = strings.TrimSpace(query)
	if query == "" {
		return "", &catalog.Error{Kind: catalog.KindInvalidURL, Op: op, Err: errors.New("empty query")}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "1")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	rawURL, err := catalog.BuildURL(op, c.baseURL, params)
	if err != nil {
		return "", err
	}

	var resp googleVolumesResponse
	if err := catalog.FetchJSON(ctx, c.client, op, rawURL, &resp); err != nil {
		return "", err
	}

	if len(resp.Items) == 0 {
		return "", &catalog.Error{Kind: catalog.KindInvalidData, Op: op, Err: errNoCover}
	}

	links := resp.Items[0].VolumeInfo.ImageLinks
	thumb := links.Thumbnail
	if thumb == "" {
		thumb = links.SmallThumbnail
	}
	if thumb == "" {
		return "", &catalog.Error{Kind: catalog.KindInvalidData, Op: op, Err: errNoCover}
	}

	return catalog.SecureURL(thumb), nil
}

// Google Books API response types (internal)

type googleVolumesResponse struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title      string `json:"title"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}
