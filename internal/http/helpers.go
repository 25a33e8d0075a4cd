package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/entities"
	"github.com/mrlokans/shelfstream/internal/librarystore"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// providerStatus maps a provider failure kind to the status returned to
// API clients.
func providerStatus(kind catalog.Kind) int {
	switch kind {
	case catalog.KindInvalidData:
		return http.StatusNotFound
	case catalog.KindRequestFailed, catalog.KindDecodingFailed:
		return http.StatusBadGateway
	case catalog.KindInvalidURL:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondProviderError reports a failed upstream call. The kind is always
// exposed so clients can tell "nothing found" from "try again later".
func respondProviderError(c *gin.Context, err error, context string) {
	kind := catalog.KindOf(err)
	status := providerStatus(kind)
	log.Printf("Provider error (%s): %v", context, err)

	message := "upstream request failed"
	switch kind {
	case catalog.KindInvalidData:
		message = "no matching results"
	case catalog.KindInvalidURL:
		message = "invalid request"
	case catalog.KindUnknown:
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Error: message, Code: string(kind)})
}

// respondLibraryError maps library store failures; anything unexpected is
// a 500.
func respondLibraryError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, librarystore.ErrUnknownSource), errors.Is(err, librarystore.ErrUnparsableID):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates a positive catalog id from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (int, bool) {
	id, err := strconv.Atoi(c.Param(paramName))
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseSourceParam reads an item source ("audio" or "text") from the URL.
func parseSourceParam(c *gin.Context) (entities.ItemSource, bool) {
	source := entities.ItemSource(c.Param("source"))
	if !source.Valid() {
		respondBadRequest(c, "invalid source")
		return "", false
	}
	return source, true
}

// parseListSpec reads the list kind from the URL and its argument from the
// query string.
func parseListSpec(c *gin.Context) (workspace.ListSpec, bool) {
	spec := workspace.ListSpec{
		Kind: workspace.ListKind(c.Param("kind")),
		Arg:  c.Query("arg"),
	}
	if err := spec.Validate(); err != nil {
		if errors.Is(err, workspace.ErrUnknownList) {
			respondNotFound(c, "list")
			return spec, false
		}
		respondBadRequest(c, err.Error())
		return spec, false
	}
	return spec, true
}
