package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrlokans/shelfstream/internal/entities"
)

const DefaultLibriVoxBaseURL = "https://librivox.org/api/feed/audiobooks/"

// AudioClient fetches audiobooks from the LibriVox catalog API.
type AudioClient struct {
	baseURL string
	client  *http.Client
}

// NewAudioClient creates a LibriVox client.
func NewAudioClient(opts ...Option) *AudioClient {
	base, client := Resolve(DefaultLibriVoxBaseURL, opts...)
	return &AudioClient{baseURL: base, client: client}
}

// Trending returns one page of the catalog in the provider's default order.
func (c *AudioClient) Trending(ctx context.Context, limit, offset int) ([]entities.CatalogItem, error) {
	params := pageParams(limit, offset)
	params.Set("extended", "1")
	return c.list(ctx, "librivox.trending", params)
}

// BySubject returns one page of audiobooks filed under a genre/subject.
func (c *AudioClient) BySubject(ctx context.Context, subject string, limit, offset int) ([]entities.CatalogItem, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, newError(KindInvalidURL, "librivox.subject", errEmptyArgument)
	}
	params := pageParams(limit, offset)
	params.Set("subject", subject)
	return c.list(ctx, "librivox.subject", params)
}

// SearchTitle returns one page of audiobooks whose title starts with prefix.
func (c *AudioClient) SearchTitle(ctx context.Context, prefix string, limit, offset int) ([]entities.CatalogItem, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, newError(KindInvalidURL, "librivox.search", errEmptyArgument)
	}
	params := pageParams(limit, offset)
	// "^" anchors the match at the start of the title.
	params.Set("title", "^"+prefix)
	return c.list(ctx, "librivox.search", params)
}

// ByID returns a single audiobook. An empty result is KindInvalidData.
func (c *AudioClient) ByID(ctx context.Context, id int) (entities.CatalogItem, error) {
	const op = "librivox.detail"
	params := url.Values{}
	params.Set("format", "json")
	params.Set("extended", "1")
	params.Set("id", strconv.Itoa(id))

	rawURL, err := BuildURL(op, c.baseURL, params)
	if err != nil {
		return entities.CatalogItem{}, err
	}

	var resp librivoxResponse
	if err := FetchJSON(ctx, c.client, op, rawURL, &resp); err != nil {
		if isNotFound(err) {
			return entities.CatalogItem{}, newError(KindInvalidData, op, errNoResults)
		}
		return entities.CatalogItem{}, err
	}
	if len(resp.Books) == 0 {
		return entities.CatalogItem{}, newError(KindInvalidData, op, errNoResults)
	}
	return resp.Books[0].toItem(), nil
}

func (c *AudioClient) list(ctx context.Context, op string, params url.Values) ([]entities.CatalogItem, error) {
	rawURL, err := BuildURL(op, c.baseURL, params)
	if err != nil {
		return nil, err
	}

	var resp librivoxResponse
	if err := FetchJSON(ctx, c.client, op, rawURL, &resp); err != nil {
		// LibriVox answers 404 once the offset runs past the last book.
		if isNotFound(err) {
			return []entities.CatalogItem{}, nil
		}
		return nil, err
	}

	items := make([]entities.CatalogItem, 0, len(resp.Books))
	for _, b := range resp.Books {
		items = append(items, b.toItem())
	}
	return items, nil
}

func pageParams(limit, offset int) url.Values {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	return params
}

// LibriVox API response types (internal)

type librivoxResponse struct {
	Books []librivoxBook `json:"books"`
}

type librivoxBook struct {
	ID          flexInt          `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	URLZipFile  string           `json:"url_zip_file"`
	URLRSS      string           `json:"url_rss"`
	URLLibrivox string           `json:"url_librivox"`
	NumSections flexInt          `json:"num_sections"`
	Authors     []librivoxAuthor `json:"authors"`
}

type librivoxAuthor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (b librivoxBook) toItem() entities.CatalogItem {
	item := entities.CatalogItem{
		Source:   entities.SourceAudio,
		ID:       int(b.ID),
		Title:    collapseSpace(b.Title),
		Synopsis: plainText(b.Description),
		Sections: int(b.NumSections),
		PageURL:  SecureURL(b.URLLibrivox),
		ZipURL:   SecureURL(b.URLZipFile),
		RSSURL:   SecureURL(b.URLRSS),
	}

	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		name := strings.TrimSpace(a.FirstName + " " + a.LastName)
		if name != "" {
			names = append(names, name)
		}
	}
	item.Author = strings.Join(names, ", ")

	return item
}
