package pagination

import (
	"context"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/entities"
)

// DefaultAudioPageSize is the number of audiobooks requested per page.
const DefaultAudioPageSize = 20

// AudioCatalog is the subset of catalog.AudioClient the sources need.
type AudioCatalog interface {
	Trending(ctx context.Context, limit, offset int) ([]entities.CatalogItem, error)
	BySubject(ctx context.Context, subject string, limit, offset int) ([]entities.CatalogItem, error)
	SearchTitle(ctx context.Context, prefix string, limit, offset int) ([]entities.CatalogItem, error)
}

// TextCatalog is the subset of catalog.TextClient the sources need.
type TextCatalog interface {
	Search(ctx context.Context, query string, page int) ([]entities.CatalogItem, error)
	ByTopic(ctx context.Context, topic string, page int) ([]entities.CatalogItem, error)
}

// offsetSource pages with limit/offset; the cursor is the offset.
type offsetSource struct {
	size  int
	fetch func(ctx context.Context, limit, offset int) ([]entities.CatalogItem, error)
}

func (s offsetSource) FetchPage(ctx context.Context, cursor int) ([]entities.CatalogItem, error) {
	return s.fetch(ctx, s.size, cursor)
}

func (s offsetSource) PageSize() int { return s.size }
func (s offsetSource) PageUnit() int { return s.size }

// pageNumberSource pages with a 1-based page number; the cursor counts
// pages from zero.
type pageNumberSource struct {
	size  int
	fetch func(ctx context.Context, page int) ([]entities.CatalogItem, error)
}

func (s pageNumberSource) FetchPage(ctx context.Context, cursor int) ([]entities.CatalogItem, error) {
	return s.fetch(ctx, cursor+1)
}

func (s pageNumberSource) PageSize() int { return s.size }
func (s pageNumberSource) PageUnit() int { return 1 }

func normalizePageSize(size int) int {
	if size <= 0 {
		return DefaultAudioPageSize
	}
	return size
}

// AudioTrending lists the audio catalog in its default order.
func AudioTrending(c AudioCatalog, pageSize int) PageSource {
	return offsetSource{size: normalizePageSize(pageSize), fetch: c.Trending}
}

// AudioSubject lists audiobooks of one genre.
func AudioSubject(c AudioCatalog, subject string, pageSize int) PageSource {
	return offsetSource{
		size: normalizePageSize(pageSize),
		fetch: func(ctx context.Context, limit, offset int) ([]entities.CatalogItem, error) {
			return c.BySubject(ctx, subject, limit, offset)
		},
	}
}

// AudioSearch lists audiobooks whose title starts with prefix.
func AudioSearch(c AudioCatalog, prefix string, pageSize int) PageSource {
	return offsetSource{
		size: normalizePageSize(pageSize),
		fetch: func(ctx context.Context, limit, offset int) ([]entities.CatalogItem, error) {
			return c.SearchTitle(ctx, prefix, limit, offset)
		},
	}
}

// TextSearch lists ebooks matching a free-text query.
func TextSearch(c TextCatalog, query string) PageSource {
	return pageNumberSource{
		size: catalog.GutendexPageSize,
		fetch: func(ctx context.Context, page int) ([]entities.CatalogItem, error) {
			return c.Search(ctx, query, page)
		},
	}
}

// TextTopic lists ebooks filed under topic.
func TextTopic(c TextCatalog, topic string) PageSource {
	return pageNumberSource{
		size: catalog.GutendexPageSize,
		fetch: func(ctx context.Context, page int) ([]entities.CatalogItem, error) {
			return c.ByTopic(ctx, topic, page)
		},
	}
}
