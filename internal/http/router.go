package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database   *database.Database
	Workspaces WorkspaceProvider

	// Viewer sessions (optional). Without them all requests share one workspace.
	Sessions *ViewerSessions

	// Catalog detail lookups
	Audio    AudiobookFetcher
	Enricher ItemEnricher // optional

	// Favorites and recent searches (optional)
	Library LibraryStore

	// Cover caching (optional)
	CoverCache CoverCache

	// Set when served over HTTPS
	SecureCookies bool

	// Application info
	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(StrictTransportSecurityMiddleware())
	}

	var viewers ViewerCounter
	if counter, ok := cfg.Workspaces.(ViewerCounter); ok {
		viewers = counter
	}
	health := NewHealthController(cfg.Database, viewers, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	if cfg.Sessions != nil {
		api.Use(cfg.Sessions.SessionLoadSave())
	}
	api.Use(WorkspaceMiddleware(cfg.Sessions, cfg.Workspaces))

	// Browsable lists
	var searches SearchRecorder
	if cfg.Library != nil {
		searches = cfg.Library
	}
	lists := NewListsController(searches)
	api.GET("/lists/:kind", lists.GetList)
	api.POST("/lists/:kind/next", lists.FetchNext)
	api.POST("/lists/:kind/reset", lists.Reset)
	api.POST("/lists/:kind/visible", lists.Visible)

	// Audiobook detail
	if cfg.Audio != nil {
		audiobooks := NewAudiobooksController(cfg.Audio, cfg.Enricher)
		api.GET("/audiobooks/:id", audiobooks.GetAudiobook)
	}

	// Document downloads
	downloads := NewDownloadsController()
	api.POST("/downloads", downloads.Open)
	api.GET("/downloads/:id", downloads.GetDownload)
	api.DELETE("/downloads/:id", downloads.Close)
	api.POST("/downloads/:id/start", downloads.Start)
	api.POST("/downloads/:id/cancel", downloads.Cancel)
	api.PUT("/downloads/:id/position", downloads.SetPosition)
	api.GET("/downloads/:id/document", downloads.GetDocument)

	// Favorites and recent searches
	if cfg.Library != nil {
		favorites := NewFavoritesController(cfg.Library)
		api.GET("/favorites/:source", favorites.ListFavorites)
		api.GET("/favorites/:source/:id", favorites.GetFavorite)
		api.POST("/favorites", favorites.AddFavorite)
		api.DELETE("/favorites/:source/:id", favorites.RemoveFavorite)
		api.GET("/recents/:source", favorites.ListRecentSearches)
		api.DELETE("/recents/:source", favorites.ClearRecentSearches)
	}

	// Cover images
	if cfg.CoverCache != nil {
		covers := NewCoversController(cfg.CoverCache)
		api.GET("/covers", covers.GetCover)
	}

	return router
}
