package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// LibraryStore defines the favorites and recent-search operations used by
// the library controllers.
type LibraryStore interface {
	SearchRecorder
	AddFavorite(item entities.CatalogItem) error
	RemoveFavorite(source entities.ItemSource, id int) (bool, error)
	Favorites(source entities.ItemSource) ([]entities.CatalogItem, error)
	IsFavorite(source entities.ItemSource, id int) (bool, error)
	RecentSearches(source entities.ItemSource) ([]string, error)
	ClearRecentSearches(source entities.ItemSource) error
}

type FavoritesController struct {
	store LibraryStore
}

func NewFavoritesController(store LibraryStore) *FavoritesController {
	return &FavoritesController{store: store}
}

// ListFavorites returns the favorites of one source in the order they were added.
// GET /api/favorites/:source
func (fc *FavoritesController) ListFavorites(c *gin.Context) {
	source, ok := parseSourceParam(c)
	if !ok {
		return
	}
	favorites, err := fc.store.Favorites(source)
	if err != nil {
		respondLibraryError(c, err, "list favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "items": favorites})
}

// GetFavorite reports whether an item is a favorite.
// GET /api/favorites/:source/:id
func (fc *FavoritesController) GetFavorite(c *gin.Context) {
	source, ok := parseSourceParam(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	favorite, err := fc.store.IsFavorite(source, id)
	if err != nil {
		respondLibraryError(c, err, "get favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

// AddFavorite stores the posted catalog item as a favorite.
// POST /api/favorites
func (fc *FavoritesController) AddFavorite(c *gin.Context) {
	var item entities.CatalogItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondBadRequest(c, "invalid item")
		return
	}
	if err := fc.store.AddFavorite(item); err != nil {
		respondLibraryError(c, err, "add favorite")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "favorite added", "item": item})
}

// RemoveFavorite removes an item from the favorites.
// DELETE /api/favorites/:source/:id
func (fc *FavoritesController) RemoveFavorite(c *gin.Context) {
	source, ok := parseSourceParam(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := fc.store.RemoveFavorite(source, id)
	if err != nil {
		respondLibraryError(c, err, "remove favorite")
		return
	}
	if !removed {
		respondNotFound(c, "favorite")
		return
	}
	respondSuccess(c, "favorite removed")
}

// ListRecentSearches returns the search history of a source, newest first.
// GET /api/recents/:source
func (fc *FavoritesController) ListRecentSearches(c *gin.Context) {
	source, ok := parseSourceParam(c)
	if !ok {
		return
	}
	recent, err := fc.store.RecentSearches(source)
	if err != nil {
		respondLibraryError(c, err, "list recent searches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "queries": recent})
}

// ClearRecentSearches forgets the search history of a source.
// DELETE /api/recents/:source
func (fc *FavoritesController) ClearRecentSearches(c *gin.Context) {
	source, ok := parseSourceParam(c)
	if !ok {
		return
	}
	if err := fc.store.ClearRecentSearches(source); err != nil {
		respondLibraryError(c, err, "clear recent searches")
		return
	}
	respondSuccess(c, "recent searches cleared")
}
