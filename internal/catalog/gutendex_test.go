package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfstream/internal/entities"
)

const gutendexPage = `{
  "count": 2,
  "next": null,
  "results": [
    {
      "id": 1342,
      "title": "Pride and Prejudice",
      "authors": [{"name": "Austen, Jane"}],
      "subjects": ["England -- Fiction"],
      "formats": {
        "text/html": "https://www.gutenberg.org/ebooks/1342.html.images",
        "application/pdf": "http://www.gutenberg.org/files/1342/1342-pdf.pdf",
        "image/jpeg": "http://www.gutenberg.org/cache/epub/1342/pg1342.cover.medium.jpg"
      }
    },
    {
      "id": 84,
      "title": "Frankenstein",
      "authors": [],
      "formats": {"application/pdf": "https://example.org/84.pdf"}
    }
  ]
}`

func TestTextClient_Search(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"search":    r.URL.Query().Get("search"),
			"mime_type": r.URL.Query().Get("mime_type"),
			"page":      r.URL.Query().Get("page"),
		}
		_, _ = w.Write([]byte(gutendexPage))
	}))
	defer server.Close()

	client := NewTextClient(WithBaseURL(server.URL + "/books/"))
	items, err := client.Search(context.Background(), "austen", 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"search": "austen", "mime_type": "application/pdf", "page": "2"}, query)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, entities.SourceText, first.Source)
	assert.Equal(t, 1342, first.ID)
	assert.Equal(t, "Jane Austen", first.Author)
	assert.Equal(t, "https://www.gutenberg.org/files/1342/1342-pdf.pdf", first.DocumentURL)
	assert.Equal(t, "https://www.gutenberg.org/cache/epub/1342/pg1342.cover.medium.jpg", first.CoverURL)
	assert.True(t, first.Readable())

	assert.False(t, items[1].HasCover())
	assert.Empty(t, items[1].Author)
}

func TestTextClient_ByTopicClampsPage(t *testing.T) {
	var page, topic string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page = r.URL.Query().Get("page")
		topic = r.URL.Query().Get("topic")
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer server.Close()

	client := NewTextClient(WithBaseURL(server.URL))
	items, err := client.ByTopic(context.Background(), "poetry", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "1", page)
	assert.Equal(t, "poetry", topic)
}

func TestTextClient_InvalidPageIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Invalid page."}`))
	}))
	defer server.Close()

	client := NewTextClient(WithBaseURL(server.URL))
	items, err := client.Search(context.Background(), "x", 99)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFormatURL(t *testing.T) {
	formats := map[string]string{
		"image/jpeg; q=2": "http://b.example/cover.jpg",
		"image/jpeg":      "http://a.example/cover.jpg",
		"text/plain":      "http://a.example/book.txt",
	}

	assert.Equal(t, "https://a.example/cover.jpg", formatURL(formats, "image/jpeg"))
	assert.Empty(t, formatURL(formats, "application/pdf"))
	assert.Empty(t, formatURL(nil, "image/jpeg"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jane Austen", displayName("Austen, Jane"))
	assert.Equal(t, "Homer", displayName("Homer"))
	assert.Equal(t, "Mary Wollstonecraft Shelley", displayName("Shelley, Mary Wollstonecraft"))
}
