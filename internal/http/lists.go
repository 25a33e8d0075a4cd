package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfstream/internal/entities"
	"github.com/mrlokans/shelfstream/internal/pagination"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// SearchRecorder remembers the queries of search lists.
type SearchRecorder interface {
	AddRecentSearch(source entities.ItemSource, query string) error
}

type ListsController struct {
	searches SearchRecorder
}

func NewListsController(searches SearchRecorder) *ListsController {
	return &ListsController{searches: searches}
}

// ListResponse is a list snapshot plus, after a fetch, what the fetch did.
type ListResponse struct {
	Kind   workspace.ListKind `json:"kind"`
	Arg    string             `json:"arg,omitempty"`
	Result *pagination.Result `json:"result,omitempty"`
	pagination.Snapshot
}

// GetList returns the items loaded so far.
// GET /api/lists/:kind?arg=...
func (lc *ListsController) GetList(c *gin.Context) {
	ctrl, spec, ok := lc.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ListResponse{Kind: spec.Kind, Arg: spec.Arg, Snapshot: ctrl.Snapshot()})
}

// FetchNext loads the next page of a list. Search lists also record the
// query as a recent search once a page came back.
// POST /api/lists/:kind/next?arg=...
func (lc *ListsController) FetchNext(c *gin.Context) {
	ctrl, spec, ok := lc.controller(c)
	if !ok {
		return
	}

	// A page is enriched once, so a client going away must not leave it
	// without covers.
	res, err := ctrl.FetchNext(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondProviderError(c, err, "fetch "+string(spec.Kind))
		return
	}

	if res.Outcome == pagination.OutcomeAppended && spec.Kind.IsSearch() && lc.searches != nil {
		if err := lc.searches.AddRecentSearch(spec.Kind.Source(), spec.Arg); err != nil {
			log.Printf("Failed to record recent search %q: %v", spec.Arg, err)
		}
	}

	c.JSON(http.StatusOK, ListResponse{Kind: spec.Kind, Arg: spec.Arg, Result: &res, Snapshot: ctrl.Snapshot()})
}

// Reset empties a list. Requests still in flight are discarded when they land.
// POST /api/lists/:kind/reset?arg=...
func (lc *ListsController) Reset(c *gin.Context) {
	ctrl, spec, ok := lc.controller(c)
	if !ok {
		return
	}
	ctrl.Reset()
	c.JSON(http.StatusOK, ListResponse{Kind: spec.Kind, Arg: spec.Arg, Snapshot: ctrl.Snapshot()})
}

// Visible tells the list which row the viewer is looking at. When the row
// is close to the end the next page is fetched in the background.
// POST /api/lists/:kind/visible?arg=...&index=n
func (lc *ListsController) Visible(c *gin.Context) {
	spec, ok := parseListSpec(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Query("index"))
	if err != nil || index < 0 {
		respondBadRequest(c, "invalid index")
		return
	}
	ws, ok := requireWorkspace(c)
	if !ok {
		return
	}

	// The fetch outlives the request.
	triggered, err := ws.Prefetch(context.WithoutCancel(c.Request.Context()), spec, index)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	status := http.StatusOK
	if triggered {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"prefetching": triggered})
}

func (lc *ListsController) controller(c *gin.Context) (*pagination.Controller, workspace.ListSpec, bool) {
	spec, ok := parseListSpec(c)
	if !ok {
		return nil, spec, false
	}
	ws, ok := requireWorkspace(c)
	if !ok {
		return nil, spec, false
	}
	ctrl, err := ws.List(spec)
	if err != nil {
		if errors.Is(err, workspace.ErrUnknownList) {
			respondNotFound(c, "list")
		} else {
			respondBadRequest(c, err.Error())
		}
		return nil, spec, false
	}
	return ctrl, spec, true
}
