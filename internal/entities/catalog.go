package entities

import (
	"fmt"
	"strings"
)

type ItemSource string

const (
	SourceAudio ItemSource = "audio" // LibriVox audiobooks
	SourceText  ItemSource = "text"  // Project Gutenberg ebooks via Gutendex
)

// Valid reports whether s is one of the known catalog sources.
func (s ItemSource) Valid() bool {
	return s == SourceAudio || s == SourceText
}

// CatalogItem is a single entry from one of the remote catalogs.
//
// Everything except CoverURL is fixed once the provider client has built the
// item. CoverURL starts empty and is filled at most once, by enrichment or by
// the provider itself when it ships a cover.
type CatalogItem struct {
	Source   ItemSource `json:"source"`
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Synopsis string     `json:"synopsis,omitempty"`
	Author   string     `json:"author,omitempty"`
	Sections int        `json:"sections,omitempty"`
	Subjects []string   `json:"subjects,omitempty"`

	PageURL     string `json:"page_url,omitempty"`     // provider's human-facing page
	ZipURL      string `json:"zip_url,omitempty"`      // audio: whole-book archive
	RSSURL      string `json:"rss_url,omitempty"`      // audio: chapter feed
	DocumentURL string `json:"document_url,omitempty"` // text: PDF download

	CoverURL string `json:"cover_url,omitempty"`
}

// Key returns an identifier unique across both catalogs.
func (i CatalogItem) Key() string {
	return fmt.Sprintf("%s-%d", i.Source, i.ID)
}

func (i CatalogItem) HasCover() bool {
	return i.CoverURL != ""
}

// Readable reports whether the item has a document that can be downloaded
// and opened in a viewer.
func (i CatalogItem) Readable() bool {
	return i.DocumentURL != ""
}

// WithCover returns a copy of the item with its cover set. A cover that is
// already set is never replaced, and an empty url leaves the item unchanged.
func (i CatalogItem) WithCover(url string) CatalogItem {
	if i.HasCover() || strings.TrimSpace(url) == "" {
		return i
	}
	i.CoverURL = url
	return i
}
