// Package workspace gives every viewer its own list controllers and
// download sessions.
package workspace

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/shelfstream/internal/download"
	"github.com/mrlokans/shelfstream/internal/pagination"
)

// Workspace is the state owned by one viewer.
type Workspace struct {
	catalogs  Catalogs
	downloads *download.Manager

	mu       sync.Mutex
	lists    map[string]*pagination.Controller
	lastSeen time.Time
}

func New(catalogs Catalogs, downloads *download.Manager) *Workspace {
	if downloads == nil {
		downloads = download.NewManager()
	}
	return &Workspace{
		catalogs:  catalogs,
		downloads: downloads,
		lists:     make(map[string]*pagination.Controller),
		lastSeen:  time.Now(),
	}
}

// List returns the controller for a list, creating it on first use. The same
// list always yields the same controller.
func (w *Workspace) List(spec ListSpec) (*pagination.Controller, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := spec.key()
	if c, ok := w.lists[key]; ok {
		return c, nil
	}

	c, err := w.catalogs.NewController(spec)
	if err != nil {
		return nil, err
	}
	w.lists[key] = c
	return c, nil
}

// Prefetch asks for the next page in the background when visibleIndex is
// near the end of the list. It reports whether a fetch was triggered.
func (w *Workspace) Prefetch(ctx context.Context, spec ListSpec, visibleIndex int) (bool, error) {
	c, err := w.List(spec)
	if err != nil {
		return false, err
	}
	if !c.ShouldPrefetch(visibleIndex) {
		return false, nil
	}

	done := c.FetchNextAsync(ctx)
	go func() {
		if res := <-done; res.Err != nil {
			log.Printf("[WORKSPACE] Prefetch of %s %q failed: %v", spec.Kind, spec.Arg, res.Err)
		}
	}()
	return true, nil
}

func (w *Workspace) Downloads() *download.Manager {
	return w.downloads
}

// Close cancels every download owned by the workspace.
func (w *Workspace) Close() {
	w.downloads.CloseAll()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}
