package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogItem_WithCover(t *testing.T) {
	t.Run("sets an unset cover", func(t *testing.T) {
		item := CatalogItem{Source: SourceAudio, ID: 1, Title: "Emma"}

		got := item.WithCover("https://example.com/a.jpg")

		assert.Equal(t, "https://example.com/a.jpg", got.CoverURL)
		assert.False(t, item.HasCover(), "original must not change")
	})

	t.Run("never replaces an existing cover", func(t *testing.T) {
		item := CatalogItem{CoverURL: "https://example.com/first.jpg"}

		got := item.WithCover("https://example.com/second.jpg")

		assert.Equal(t, "https://example.com/first.jpg", got.CoverURL)
	})

	t.Run("ignores empty url", func(t *testing.T) {
		got := CatalogItem{}.WithCover("  ")
		assert.False(t, got.HasCover())
	})
}

func TestCatalogItem_Key(t *testing.T) {
	assert.Equal(t, "audio-42", CatalogItem{Source: SourceAudio, ID: 42}.Key())
	assert.Equal(t, "text-7", CatalogItem{Source: SourceText, ID: 7}.Key())
}

func TestItemSource_Valid(t *testing.T) {
	assert.True(t, SourceAudio.Valid())
	assert.True(t, SourceText.Valid())
	assert.False(t, ItemSource("video").Valid())
}
