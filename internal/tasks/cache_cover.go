package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelfstream/internal/entities"
)

// CoverFetcher stores a cover image locally.
type CoverFetcher interface {
	GetCover(ctx context.Context, key, coverURL string) (string, error)
}

// CacheCoverTask downloads one catalog cover into the local cover cache.
type CacheCoverTask struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Config returns the queue configuration for cover caching tasks.
func (t CacheCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cache_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   6 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// CacheCoverProcessor creates a processor function for CacheCoverTask.
func CacheCoverProcessor(fetcher CoverFetcher) backlite.QueueProcessor[CacheCoverTask] {
	return func(ctx context.Context, task CacheCoverTask) error {
		if fetcher == nil {
			return fmt.Errorf("cover cache not configured")
		}

		path, err := fetcher.GetCover(ctx, task.Key, task.URL)
		if err != nil {
			return fmt.Errorf("cache cover %s: %w", task.Key, err)
		}

		log.Printf("[TASK] Cached cover for %s at %s", task.Key, path)
		return nil
	}
}

// NewCacheCoverQueue creates a backlite queue for cover caching tasks.
func NewCacheCoverQueue(fetcher CoverFetcher) backlite.Queue {
	return backlite.NewQueue(CacheCoverProcessor(fetcher))
}

// TaskAdder enqueues tasks. Satisfied by *Client.
type TaskAdder interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// CoverQueue turns covers found during enrichment into CacheCoverTasks.
type CoverQueue struct {
	adder  TaskAdder
	cached func(key, coverURL string) bool
}

// NewCoverQueue creates a CoverQueue. cached, when non-nil, lets already
// cached covers skip the queue.
func NewCoverQueue(adder TaskAdder, cached func(key, coverURL string) bool) *CoverQueue {
	return &CoverQueue{adder: adder, cached: cached}
}

// CoverFound enqueues a caching task for item's cover.
func (q *CoverQueue) CoverFound(ctx context.Context, item entities.CatalogItem) error {
	if !item.HasCover() {
		return nil
	}
	if q.cached != nil && q.cached(item.Key(), item.CoverURL) {
		return nil
	}

	_, err := q.adder.Add(CacheCoverTask{Key: item.Key(), URL: item.CoverURL}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue cover for %s: %w", item.Key(), err)
	}
	return nil
}
