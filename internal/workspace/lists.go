package workspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/shelfstream/internal/entities"
	"github.com/mrlokans/shelfstream/internal/pagination"
)

// ListKind names one of the browsable lists.
type ListKind string

const (
	ListTrending ListKind = "trending" // audiobooks, default order
	ListSubject  ListKind = "subject"  // audiobooks of one genre
	ListSearch   ListKind = "search"   // audiobooks by title prefix
	ListEbooks   ListKind = "ebooks"   // ebooks by free-text query
	ListTopic    ListKind = "topic"    // ebooks by topic
)

var (
	ErrUnknownList     = errors.New("unknown list")
	ErrMissingArgument = errors.New("list requires an argument")
)

// Source returns the catalog the list draws from.
func (k ListKind) Source() entities.ItemSource {
	switch k {
	case ListEbooks, ListTopic:
		return entities.SourceText
	default:
		return entities.SourceAudio
	}
}

// IsSearch reports whether the list argument is a user-typed query.
func (k ListKind) IsSearch() bool {
	return k == ListSearch || k == ListEbooks
}

func (k ListKind) needsArgument() bool {
	return k != ListTrending
}

// ListSpec identifies one list: its kind plus the genre, prefix or query.
type ListSpec struct {
	Kind ListKind
	Arg  string
}

func (s ListSpec) key() string {
	return string(s.Kind) + ":" + strings.ToLower(strings.TrimSpace(s.Arg))
}

// Validate checks the kind and the presence of a required argument.
func (s ListSpec) Validate() error {
	switch s.Kind {
	case ListTrending, ListSubject, ListSearch, ListEbooks, ListTopic:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownList, s.Kind)
	}
	if s.Kind.needsArgument() && strings.TrimSpace(s.Arg) == "" {
		return fmt.Errorf("%w: %s", ErrMissingArgument, s.Kind)
	}
	return nil
}

// Catalogs bundles what is needed to build list controllers.
type Catalogs struct {
	Audio         pagination.AudioCatalog
	Text          pagination.TextCatalog
	AudioPageSize int
	Enricher      pagination.BatchEnricher
}

// NewSource binds a list to the matching provider client.
func (c Catalogs) NewSource(spec ListSpec) (pagination.PageSource, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	arg := strings.TrimSpace(spec.Arg)
	switch spec.Kind {
	case ListTrending:
		return pagination.AudioTrending(c.Audio, c.AudioPageSize), nil
	case ListSubject:
		return pagination.AudioSubject(c.Audio, arg, c.AudioPageSize), nil
	case ListSearch:
		return pagination.AudioSearch(c.Audio, arg, c.AudioPageSize), nil
	case ListEbooks:
		return pagination.TextSearch(c.Text, arg), nil
	default:
		return pagination.TextTopic(c.Text, arg), nil
	}
}

// NewController builds a fresh, unshared controller for spec.
func (c Catalogs) NewController(spec ListSpec) (*pagination.Controller, error) {
	source, err := c.NewSource(spec)
	if err != nil {
		return nil, err
	}
	return pagination.NewController(source, c.Enricher), nil
}
