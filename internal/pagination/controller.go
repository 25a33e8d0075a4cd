// Package pagination holds the per-list paging state machine.
//
// A Controller owns the accumulated items of one list together with its
// cursor, busy flag and exhaustion flag. Callers ask it for the next page;
// it refuses while a request is in flight or once the list is exhausted, and
// drops results that arrive after a Reset.
package pagination

import (
	"context"
	"sync"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// PrefetchWindow is how close to the end of the list the visible position
// must be before the consumer should ask for the next page.
const PrefetchWindow = 4

// PageSource fetches raw pages for one list.
type PageSource interface {
	// FetchPage returns the page starting at cursor.
	FetchPage(ctx context.Context, cursor int) ([]entities.CatalogItem, error)
	// PageSize is the nominal number of items in a full page.
	PageSize() int
	// PageUnit is how far the cursor advances after a page.
	PageUnit() int
}

// BatchEnricher decorates a raw page before it is appended.
type BatchEnricher interface {
	EnrichBatch(ctx context.Context, items []entities.CatalogItem) []entities.CatalogItem
}

type Outcome string

const (
	OutcomeAppended  Outcome = "appended"  // a page was appended (possibly empty, then exhausted)
	OutcomeSkipped   Outcome = "skipped"   // busy or exhausted; no request issued
	OutcomeDiscarded Outcome = "discarded" // the list was reset while the request was in flight
	OutcomeFailed    Outcome = "failed"
)

// Result describes what a FetchNext call did.
type Result struct {
	Outcome   Outcome `json:"outcome"`
	Added     int     `json:"added"`
	Exhausted bool    `json:"exhausted"`
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Items      []entities.CatalogItem `json:"items"`
	Cursor     int                    `json:"cursor"`
	Fetching   bool                   `json:"fetching"`
	Exhausted  bool                   `json:"exhausted"`
	Generation uint64                 `json:"generation"`
}

// Completion is delivered by FetchNextAsync.
type Completion struct {
	Result Result
	Err    error
}

// Controller drives incremental retrieval of one list.
type Controller struct {
	source   PageSource
	enricher BatchEnricher

	mu         sync.Mutex
	items      []entities.CatalogItem
	cursor     int
	fetching   bool
	exhausted  bool
	generation uint64
}

// NewController creates a controller for source. enricher may be nil, in
// which case raw pages are appended as they are.
func NewController(source PageSource, enricher BatchEnricher) *Controller {
	return &Controller{
		source:   source,
		enricher: enricher,
	}
}

// FetchNext requests the page at the current cursor, enriches it and appends
// it. It is a no-op while another fetch is in flight or once the list is
// exhausted. Provider errors are returned unchanged; the caller retries by
// calling FetchNext again.
func (c *Controller) FetchNext(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.fetching || c.exhausted {
		exhausted := c.exhausted
		c.mu.Unlock()
		return Result{Outcome: OutcomeSkipped, Exhausted: exhausted}, nil
	}
	c.fetching = true
	gen := c.generation
	cursor := c.cursor
	c.mu.Unlock()

	items, err := c.source.FetchPage(ctx, cursor)
	if err == nil && len(items) > 0 && c.enricher != nil {
		items = c.enricher.EnrichBatch(ctx, items)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reset owns the flags now; a newer fetch may already be running.
	if gen != c.generation {
		return Result{Outcome: OutcomeDiscarded}, nil
	}
	c.fetching = false

	if err != nil {
		return Result{Outcome: OutcomeFailed, Exhausted: c.exhausted}, err
	}

	if len(items) == 0 {
		c.exhausted = true
		return Result{Outcome: OutcomeAppended, Exhausted: true}, nil
	}

	c.items = append(c.items, items...)
	c.cursor += c.source.PageUnit()
	if len(items) < c.source.PageSize() {
		// Providers do not report totals reliably; a short page is the last one.
		c.exhausted = true
	}

	return Result{Outcome: OutcomeAppended, Added: len(items), Exhausted: c.exhausted}, nil
}

// FetchNextAsync runs FetchNext on its own goroutine and delivers the
// completion on the returned channel.
func (c *Controller) FetchNextAsync(ctx context.Context) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		defer close(ch)
		res, err := c.FetchNext(ctx)
		ch <- Completion{Result: res, Err: err}
	}()
	return ch
}

// Reset clears the list unconditionally. A fetch in flight at the time of
// the reset has its result discarded on arrival.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.cursor = 0
	c.exhausted = false
	c.fetching = false
	c.generation++
}

// ShouldPrefetch reports whether a consumer showing position visibleIndex
// is close enough to the end of the list to ask for another page.
func (c *Controller) ShouldPrefetch(visibleIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetching || c.exhausted {
		return false
	}
	return visibleIndex >= len(c.items)-PrefetchWindow
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]entities.CatalogItem, len(c.items))
	copy(items, c.items)

	return Snapshot{
		Items:      items,
		Cursor:     c.cursor,
		Fetching:   c.fetching,
		Exhausted:  c.exhausted,
		Generation: c.generation,
	}
}

// Len returns the number of accumulated items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
