package catalog

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mrlokans/shelfstream/internal/entities"
)

const (
	DefaultGutendexBaseURL = "https://gutendex.com/books/"

	// GutendexPageSize is the fixed number of results Gutendex returns per page.
	GutendexPageSize = 32

	pdfMimeType  = "application/pdf"
	jpegMimeType = "image/jpeg"
)

// TextClient fetches PDF-available ebooks from the Gutendex API.
type TextClient struct {
	baseURL string
	client  *http.Client
}

// NewTextClient creates a Gutendex client.
func NewTextClient(opts ...Option) *TextClient {
	base, client := Resolve(DefaultGutendexBaseURL, opts...)
	return &TextClient{baseURL: base, client: client}
}

// Search returns one page of ebooks matching a free-text query.
// page is 1-based.
func (c *TextClient) Search(ctx context.Context, query string, page int) ([]entities.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(KindInvalidURL, "gutendex.search", errEmptyArgument)
	}
	return c.list(ctx, "gutendex.search", "search", query, page)
}

// ByTopic returns one page of ebooks filed under a topic (subject or bookshelf).
// page is 1-based.
func (c *TextClient) ByTopic(ctx context.Context, topic string, page int) ([]entities.CatalogItem, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, newError(KindInvalidURL, "gutendex.topic", errEmptyArgument)
	}
	return c.list(ctx, "gutendex.topic", "topic", topic, page)
}

func (c *TextClient) list(ctx context.Context, op, key, value string, page int) ([]entities.CatalogItem, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set(key, value)
	params.Set("mime_type", pdfMimeType)
	params.Set("page", strconv.Itoa(page))

	rawURL, err := BuildURL(op, c.baseURL, params)
	if err != nil {
		return nil, err
	}

	var resp gutendexResponse
	if err := FetchJSON(ctx, c.client, op, rawURL, &resp); err != nil {
		// Pages past the end are answered with 404 {"detail": "Invalid page."}.
		if isNotFound(err) {
			return []entities.CatalogItem{}, nil
		}
		return nil, err
	}

	items := make([]entities.CatalogItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, r.toItem())
	}
	return items, nil
}

// Gutendex API response types (internal)

type gutendexResponse struct {
	Count   int              `json:"count"`
	Next    *string          `json:"next"`
	Results []gutendexResult `json:"results"`
}

type gutendexResult struct {
	ID       flexInt           `json:"id"`
	Title    string            `json:"title"`
	Authors  []gutendexAuthor  `json:"authors"`
	Subjects []string          `json:"subjects"`
	Formats  map[string]string `json:"formats"`
}

type gutendexAuthor struct {
	Name string `json:"name"`
}

func (r gutendexResult) toItem() entities.CatalogItem {
	item := entities.CatalogItem{
		Source:      entities.SourceText,
		ID:          int(r.ID),
		Title:       collapseSpace(r.Title),
		Subjects:    r.Subjects,
		DocumentURL: formatURL(r.Formats, pdfMimeType),
		CoverURL:    formatURL(r.Formats, jpegMimeType),
		PageURL:     "https://www.gutenberg.org/ebooks/" + strconv.Itoa(int(r.ID)),
	}
	if len(r.Authors) > 0 {
		item.Author = displayName(r.Authors[0].Name)
	}
	return item
}

// formatURL returns the URL of the first format whose MIME type starts with
// prefix (e.g. "image/jpeg" matches "image/jpeg; charset=binary"). Keys are
// visited in sorted order so the choice is stable.
func formatURL(formats map[string]string, prefix string) string {
	keys := make([]string, 0, len(formats))
	for k := range formats {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if u := strings.TrimSpace(formats[k]); u != "" {
			return SecureURL(u)
		}
	}
	return ""
}

// displayName turns Gutenberg's "Austen, Jane" into "Jane Austen".
func displayName(name string) string {
	last, first, ok := strings.Cut(name, ",")
	if !ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
