package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CoverPruner removes stale cached covers.
type CoverPruner interface {
	Prune(maxAge time.Duration) (int, error)
}

// PruneCoversTask removes cached covers older than MaxAge.
type PruneCoversTask struct {
	MaxAge time.Duration `json:"max_age"`
}

// Config returns the queue configuration for cover pruning tasks.
func (t PruneCoversTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_covers",
		MaxAttempts: 1,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// PruneCoversProcessor creates a processor function for PruneCoversTask.
func PruneCoversProcessor(pruner CoverPruner) backlite.QueueProcessor[PruneCoversTask] {
	return func(ctx context.Context, task PruneCoversTask) error {
		if pruner == nil {
			return fmt.Errorf("cover cache not configured")
		}
		if task.MaxAge <= 0 {
			return fmt.Errorf("invalid max age %s", task.MaxAge)
		}

		removed, err := pruner.Prune(task.MaxAge)
		if err != nil {
			return fmt.Errorf("prune covers: %w", err)
		}

		log.Printf("[TASK] Pruned %d cover(s) older than %s", removed, task.MaxAge)
		return nil
	}
}

// NewPruneCoversQueue creates a backlite queue for cover pruning tasks.
func NewPruneCoversQueue(pruner CoverPruner) backlite.Queue {
	return backlite.NewQueue(PruneCoversProcessor(pruner))
}
