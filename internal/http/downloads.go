package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/download"
	"github.com/mrlokans/shelfstream/internal/utils"
)

type DownloadsController struct{}

func NewDownloadsController() *DownloadsController {
	return &DownloadsController{}
}

// DownloadResponse describes one download session.
type DownloadResponse struct {
	ID       string         `json:"id"`
	URL      string         `json:"url"`
	Position int            `json:"position"`
	Pages    int            `json:"pages,omitempty"`
	State    download.State `json:"state"`
}

type openDownloadRequest struct {
	URL string `json:"url" binding:"required"`
}

type positionRequest struct {
	Page *int `json:"page" binding:"required"`
}

func describeSession(s *download.Session) DownloadResponse {
	st := s.State()
	resp := DownloadResponse{
		ID:       s.ID(),
		URL:      s.URL(),
		Position: s.Position(),
		State:    st,
	}
	if st.Document != nil {
		resp.Pages = st.Document.Pages
	}
	return resp
}

// Open creates a session for a document URL and starts the transfer. An
// earlier session for the same document is cancelled.
// POST /api/downloads
func (dc *DownloadsController) Open(c *gin.Context) {
	var req openDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "url is required")
		return
	}
	ref := catalog.SecureURL(req.URL)
	if !validDocumentURL(ref) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid document url", Code: string(catalog.KindInvalidURL)})
		return
	}
	ws, ok := requireWorkspace(c)
	if !ok {
		return
	}

	session := ws.Downloads().Open(ref)
	// The transfer outlives the request.
	session.Start(context.WithoutCancel(c.Request.Context()))

	respondAccepted(c, "download started", describeSession(session))
}

// GetDownload returns the current state of a session.
// GET /api/downloads/:id
func (dc *DownloadsController) GetDownload(c *gin.Context) {
	session, ok := dc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, describeSession(session))
}

// Start restarts an idle session from the beginning.
// POST /api/downloads/:id/start
func (dc *DownloadsController) Start(c *gin.Context) {
	session, ok := dc.session(c)
	if !ok {
		return
	}
	if !session.Start(context.WithoutCancel(c.Request.Context())) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "download is not idle", Code: string(session.State().Status)})
		return
	}
	respondAccepted(c, "download started", describeSession(session))
}

// Cancel stops a running transfer and keeps the session around, idle.
// POST /api/downloads/:id/cancel
func (dc *DownloadsController) Cancel(c *gin.Context) {
	session, ok := dc.session(c)
	if !ok {
		return
	}
	session.Cancel()
	c.JSON(http.StatusOK, describeSession(session))
}

// Close cancels a session and forgets it.
// DELETE /api/downloads/:id
func (dc *DownloadsController) Close(c *gin.Context) {
	ws, ok := requireWorkspace(c)
	if !ok {
		return
	}
	if err := ws.Downloads().Close(c.Param("id")); err != nil {
		if errors.Is(err, download.ErrNotFound) {
			respondNotFound(c, "download")
			return
		}
		respondInternalError(c, err, "close download")
		return
	}
	respondSuccess(c, "download closed")
}

// SetPosition records the page the reader is on.
// PUT /api/downloads/:id/position
func (dc *DownloadsController) SetPosition(c *gin.Context) {
	session, ok := dc.session(c)
	if !ok {
		return
	}
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "page is required")
		return
	}
	page := session.SetPosition(*req.Page)
	c.JSON(http.StatusOK, gin.H{"position": page})
}

// GetDocument serves the downloaded document once loaded.
// GET /api/downloads/:id/document
func (dc *DownloadsController) GetDocument(c *gin.Context) {
	session, ok := dc.session(c)
	if !ok {
		return
	}
	st := session.State()
	if st.Status != download.StatusLoaded || st.Document == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "document not loaded", Code: string(st.Status)})
		return
	}

	c.Header("X-Page-Count", strconv.Itoa(st.Document.Pages))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", utils.DocumentFilename("", session.URL(), ".pdf")))
	c.Data(http.StatusOK, st.Document.ContentType, st.Document.Data)
}

func (dc *DownloadsController) session(c *gin.Context) (*download.Session, bool) {
	ws, ok := requireWorkspace(c)
	if !ok {
		return nil, false
	}
	session, err := ws.Downloads().Get(c.Param("id"))
	if err != nil {
		respondNotFound(c, "download")
		return nil, false
	}
	return session, true
}

func validDocumentURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
