package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfstream/internal/entities"
)

const librivoxPage = `{
  "books": [
    {
      "id": "52",
      "title": "Pride and Prejudice",
      "description": "<p>A <em>classic</em> novel.</p>",
      "url_zip_file": "http://www.archive.org/download/pride/pride_64kb_mp3.zip",
      "url_rss": "https://librivox.org/rss/52",
      "url_librivox": "https://librivox.org/pride-and-prejudice-by-jane-austen/",
      "num_sections": "61",
      "authors": [{"first_name": "Jane", "last_name": "Austen"}]
    },
    {
      "id": 77,
      "title": "Second",
      "num_sections": 3
    },
    {
      "id": "not-a-number",
      "title": "Broken Id"
    }
  ]
}`

func newTestAudioClient(t *testing.T, handler http.HandlerFunc) *AudioClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAudioClient(WithBaseURL(server.URL + "/api/feed/audiobooks/"))
}

func TestAudioClient_Trending(t *testing.T) {
	var gotQuery map[string]string
	client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"format":   r.URL.Query().Get("format"),
			"limit":    r.URL.Query().Get("limit"),
			"offset":   r.URL.Query().Get("offset"),
			"extended": r.URL.Query().Get("extended"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(librivoxPage))
	})

	items, err := client.Trending(context.Background(), 20, 40)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"format": "json", "limit": "20", "offset": "40", "extended": "1"}, gotQuery)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, entities.SourceAudio, first.Source)
	assert.Equal(t, 52, first.ID)
	assert.Equal(t, "Pride and Prejudice", first.Title)
	assert.Equal(t, "A classic novel.", first.Synopsis)
	assert.Equal(t, 61, first.Sections)
	assert.Equal(t, "Jane Austen", first.Author)
	assert.Equal(t, "https://www.archive.org/download/pride/pride_64kb_mp3.zip", first.ZipURL)
	assert.Equal(t, "https://librivox.org/pride-and-prejudice-by-jane-austen/", first.PageURL)
	assert.False(t, first.HasCover())

	assert.Equal(t, 77, items[1].ID)
	assert.Equal(t, 3, items[1].Sections)
	assert.Equal(t, 0, items[2].ID, "unparsable id coerces to 0")
}

func TestAudioClient_NotFoundIsEmptyPage(t *testing.T) {
	client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Audiobooks could not be found"}`))
	})

	items, err := client.BySubject(context.Background(), "Poetry", 20, 1000)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAudioClient_SearchTitleUsesPrefixAnchor(t *testing.T) {
	var title string
	client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
		title = r.URL.Query().Get("title")
		_, _ = w.Write([]byte(`{"books": []}`))
	})

	items, err := client.SearchTitle(context.Background(), "  Emma ", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "^Emma", title)
}

func TestAudioClient_EmptyArgument(t *testing.T) {
	client := NewAudioClient()

	_, err := client.SearchTitle(context.Background(), " ", 20, 0)
	assert.True(t, errors.Is(err, ErrInvalidURL))

	_, err = client.BySubject(context.Background(), "", 20, 0)
	assert.True(t, errors.Is(err, ErrInvalidURL))
}

func TestAudioClient_ByID(t *testing.T) {
	t.Run("returns first book", func(t *testing.T) {
		client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "52", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(librivoxPage))
		})

		item, err := client.ByID(context.Background(), 52)
		require.NoError(t, err)
		assert.Equal(t, "Pride and Prejudice", item.Title)
	})

	t.Run("empty result is invalid data", func(t *testing.T) {
		client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"books": []}`))
		})

		_, err := client.ByID(context.Background(), 1)
		assert.True(t, errors.Is(err, ErrInvalidData))
	})

	t.Run("server error is request failure", func(t *testing.T) {
		client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.ByID(context.Background(), 1)
		assert.True(t, errors.Is(err, ErrRequestFailed))

		var perr *Error
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	})

	t.Run("malformed body is decoding failure", func(t *testing.T) {
		client := newTestAudioClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"books": [`))
		})

		_, err := client.ByID(context.Background(), 1)
		assert.True(t, errors.Is(err, ErrDecodingFailed))
	})
}

func TestAudioClient_InvalidBaseURL(t *testing.T) {
	client := NewAudioClient(WithBaseURL("not a url"))

	_, err := client.Trending(context.Background(), 20, 0)
	assert.True(t, errors.Is(err, ErrInvalidURL))
}
