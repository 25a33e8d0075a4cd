package metadata

import (
	"net/url"
	"strings"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// CoverKey derives the cover lookup query for an item. ok is false when no
// query can be built, in which case the item keeps no cover.
//
// Audiobooks are keyed by the slug of their LibriVox page
// ("https://librivox.org/emma-by-jane-austen/" -> "emma by jane austen");
// ebooks by title and first author.
func CoverKey(item entities.CatalogItem) (string, bool) {
	switch item.Source {
	case entities.SourceAudio:
		return slugKey(item.PageURL)
	case entities.SourceText:
		title := strings.TrimSpace(item.Title)
		if title == "" {
			return "", false
		}
		if author := strings.TrimSpace(item.Author); author != "" {
			return title + " " + author, true
		}
		return title, true
	default:
		return "", false
	}
}

func slugKey(pageURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Host == "" {
		return "", false
	}

	slug := strings.Trim(u.Path, "/")
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}

	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '+'
	})
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}
