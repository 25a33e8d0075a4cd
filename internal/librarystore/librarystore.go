// Package librarystore keeps favorites and recent searches in the
// key-value settings table, one JSON document per item source.
package librarystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// DefaultRecentSearchesLimit caps the recent-search history per source.
const DefaultRecentSearchesLimit = 10

// ErrUnparsableID rejects items whose provider id could not be read and was
// coerced to zero; such items would collide with each other.
var ErrUnparsableID = errors.New("item has no usable id")

var ErrUnknownSource = errors.New("unknown item source")

// KeyValueStore is the subset of the settings repository the store needs.
type KeyValueStore interface {
	Value(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

type LibraryStore struct {
	kv          KeyValueStore
	recentLimit int

	// Read-modify-write of a JSON document must not interleave.
	mu sync.Mutex
}

func New(kv KeyValueStore, recentLimit int) *LibraryStore {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentSearchesLimit
	}
	return &LibraryStore{kv: kv, recentLimit: recentLimit}
}

// AddFavorite stores item as a favorite of its source. Adding an item that
// is already a favorite replaces the stored copy in place.
func (s *LibraryStore) AddFavorite(item entities.CatalogItem) error {
	if !item.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSource, item.Source)
	}
	if item.ID == 0 {
		return ErrUnparsableID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entities.FavoritesKey(item.Source)
	var favorites []entities.CatalogItem
	if err := s.load(key, &favorites); err != nil {
		return err
	}

	replaced := false
	for i := range favorites {
		if favorites[i].ID == item.ID {
			favorites[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		favorites = append(favorites, item)
	}

	return s.save(key, favorites)
}

// RemoveFavorite removes the favorite with the given id. It reports whether
// anything was removed.
func (s *LibraryStore) RemoveFavorite(source entities.ItemSource, id int) (bool, error) {
	if !source.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entities.FavoritesKey(source)
	var favorites []entities.CatalogItem
	if err := s.load(key, &favorites); err != nil {
		return false, err
	}

	kept := favorites[:0]
	for _, f := range favorites {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(favorites) {
		return false, nil
	}
	return true, s.save(key, kept)
}

// Favorites returns the favorites of source in insertion order.
func (s *LibraryStore) Favorites(source entities.ItemSource) ([]entities.CatalogItem, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := []entities.CatalogItem{}
	if err := s.load(entities.FavoritesKey(source), &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (s *LibraryStore) IsFavorite(source entities.ItemSource, id int) (bool, error) {
	favorites, err := s.Favorites(source)
	if err != nil {
		return false, err
	}
	for _, f := range favorites {
		if f.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// AddRecentSearch records query as the most recent search of source.
// Earlier occurrences of the same query, ignoring case, are dropped and the
// history is capped.
func (s *LibraryStore) AddRecentSearch(source entities.ItemSource, query string) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entities.RecentSearchesKey(source)
	var recent []string
	if err := s.load(key, &recent); err != nil {
		return err
	}

	updated := []string{query}
	for _, q := range recent {
		if strings.EqualFold(q, query) {
			continue
		}
		if len(updated) == s.recentLimit {
			break
		}
		updated = append(updated, q)
	}

	return s.save(key, updated)
}

// RecentSearches returns the history of source, most recent first.
func (s *LibraryStore) RecentSearches(source entities.ItemSource) ([]string, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recent := []string{}
	if err := s.load(entities.RecentSearchesKey(source), &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

func (s *LibraryStore) ClearRecentSearches(source entities.ItemSource) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return s.kv.DeleteSetting(entities.RecentSearchesKey(source))
}

func (s *LibraryStore) load(key string, out any) error {
	raw, ok, err := s.kv.Value(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *LibraryStore) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.SetSetting(key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
