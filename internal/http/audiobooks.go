package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// AudiobookFetcher loads a single audiobook by id.
type AudiobookFetcher interface {
	ByID(ctx context.Context, id int) (entities.CatalogItem, error)
}

// ItemEnricher attaches a cover to one item.
type ItemEnricher interface {
	EnrichItem(ctx context.Context, item entities.CatalogItem) entities.CatalogItem
}

type AudiobooksController struct {
	audio    AudiobookFetcher
	enricher ItemEnricher
}

// NewAudiobooksController creates the controller. enricher may be nil.
func NewAudiobooksController(audio AudiobookFetcher, enricher ItemEnricher) *AudiobooksController {
	return &AudiobooksController{audio: audio, enricher: enricher}
}

// GetAudiobook returns one audiobook with its cover when one can be found.
// GET /api/audiobooks/:id
func (ac *AudiobooksController) GetAudiobook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ac.audio.ByID(c.Request.Context(), id)
	if err != nil {
		respondProviderError(c, err, "audiobook detail")
		return
	}
	if ac.enricher != nil {
		item = ac.enricher.EnrichItem(c.Request.Context(), item)
	}

	c.JSON(http.StatusOK, item)
}
