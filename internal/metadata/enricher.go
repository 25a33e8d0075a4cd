package metadata

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/entities"
)

// CoverSink is told about every cover set by enrichment.
type CoverSink interface {
	CoverFound(ctx context.Context, item entities.CatalogItem) error
}

var errRememberedMiss = errors.New("cover previously not found")

// Enricher attaches covers to batches of catalog items.
//
// A batch fans out one lookup per item that lacks a cover and has a
// derivable key, and only returns once every lookup has settled. Lookup
// failures leave the item without a cover; they never fail the batch.
type Enricher struct {
	provider CoverProvider
	limiter  *rate.Limiter
	memo     *coverMemo
	sink     CoverSink
}

// NewEnricher creates an Enricher without rate limiting.
func NewEnricher(provider CoverProvider) *Enricher {
	return &Enricher{
		provider: provider,
		memo:     newCoverMemo(),
	}
}

// SetRateLimit bounds lookups to perSecond across all batches (optional).
// Zero or negative removes the limit.
func (e *Enricher) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		e.limiter = nil
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetCoverSink sets the receiver of newly found covers (optional).
func (e *Enricher) SetCoverSink(sink CoverSink) {
	e.sink = sink
}

// EnrichBatch returns a copy of items, in the same order, with covers set
// wherever a lookup succeeded.
func (e *Enricher) EnrichBatch(ctx context.Context, items []entities.CatalogItem) []entities.CatalogItem {
	out := make([]entities.CatalogItem, len(items))
	copy(out, items)

	found := make([]bool, len(out))

	// A plain Group: one failed lookup must not cancel its siblings.
	var g errgroup.Group
	for i := range out {
		if out[i].HasCover() {
			continue
		}
		key, ok := CoverKey(out[i])
		if !ok {
			continue
		}

		i, key := i, key
		g.Go(func() error {
			coverURL, err := e.lookup(ctx, key)
			if err != nil {
				if !errors.Is(err, errRememberedMiss) {
					log.Printf("[ENRICH] No cover for %s (%q): %v", out[i].Key(), key, err)
				}
				return nil
			}
			// Each goroutine owns index i.
			out[i] = out[i].WithCover(coverURL)
			found[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if e.sink != nil {
		for i, ok := range found {
			if !ok {
				continue
			}
			if err := e.sink.CoverFound(ctx, out[i]); err != nil {
				log.Printf("[ENRICH] Cover sink failed for %s: %v", out[i].Key(), err)
			}
		}
	}

	return out
}

// EnrichItem enriches a single item.
func (e *Enricher) EnrichItem(ctx context.Context, item entities.CatalogItem) entities.CatalogItem {
	return e.EnrichBatch(ctx, []entities.CatalogItem{item})[0]
}

func (e *Enricher) lookup(ctx context.Context, key string) (string, error) {
	h := xxhash.Sum64String(normalizeKey(key))
	if coverURL, hit, ok := e.memo.get(h); ok {
		if !hit {
			return "", errRememberedMiss
		}
		return coverURL, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	coverURL, err := e.provider.FindCover(ctx, key)
	if err != nil {
		// Only a definitive "nothing there" is remembered; transport
		// failures are retried by the next batch that sees the key.
		if errors.Is(err, catalog.ErrInvalidData) {
			e.memo.put(h, "", false)
		}
		return "", err
	}
	if coverURL == "" {
		e.memo.put(h, "", false)
		return "", errNoCover
	}

	e.memo.put(h, coverURL, true)
	return coverURL, nil
}

func normalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}

type memoEntry struct {
	url string
	hit bool
}

// coverMemo remembers lookup outcomes for the lifetime of the process.
type coverMemo struct {
	mu      sync.RWMutex
	entries map[uint64]memoEntry
}

func newCoverMemo() *coverMemo {
	return &coverMemo{entries: make(map[uint64]memoEntry)}
}

func (m *coverMemo) get(h uint64) (string, bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[h]
	return e.url, e.hit, ok
}

func (m *coverMemo) put(h uint64, url string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[h] = memoEntry{url: url, hit: hit}
}
