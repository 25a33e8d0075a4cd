package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

// CoverCache returns the local path of a cover image, fetching it on a miss.
type CoverCache interface {
	GetCover(ctx context.Context, key, coverURL string) (string, error)
}

// CoversController handles cover image requests.
type CoversController struct {
	cache CoverCache
}

func NewCoversController(cache CoverCache) *CoversController {
	return &CoversController{cache: cache}
}

// GetCover serves a cached cover image, falling back to a redirect when the
// image cannot be cached.
// GET /api/covers?key=audio-52&url=https://...
func (cc *CoversController) GetCover(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	coverURL := catalog.SecureURL(c.Query("url"))
	if key == "" || !strings.HasPrefix(coverURL, "https://") {
		respondBadRequest(c, "key and an http(s) url are required")
		return
	}

	cachePath, err := cc.cache.GetCover(c.Request.Context(), key, coverURL)
	if err != nil || cachePath == "" {
		if err != nil {
			log.Printf("Failed to cache cover %s: %v", key, err)
		}
		c.Redirect(http.StatusTemporaryRedirect, coverURL)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(cachePath)
}
