package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shelfstream/internal/tasks"
)

// DefaultCoverPruneSchedule runs the prune daily at 03:00.
const DefaultCoverPruneSchedule = "0 3 * * *"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// NextRunTime returns when schedule next fires after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// CoverPruneScheduler periodically removes stale covers from the cache.
// With a task queue the prune is enqueued as a PruneCoversTask; without
// one it runs inline on the cron goroutine.
type CoverPruneScheduler struct {
	schedule string
	maxAge   time.Duration
	pruner   tasks.CoverPruner
	queue    tasks.TaskAdder

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isPruning bool
}

// NewCoverPruneScheduler creates a new scheduler instance. queue may be nil.
func NewCoverPruneScheduler(schedule string, maxAge time.Duration, pruner tasks.CoverPruner, queue tasks.TaskAdder) *CoverPruneScheduler {
	if schedule == "" {
		schedule = DefaultCoverPruneSchedule
	}
	return &CoverPruneScheduler{
		schedule: schedule,
		maxAge:   maxAge,
		pruner:   pruner,
		queue:    queue,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler. It stops when ctx is done.
func (s *CoverPruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.maxAge <= 0 {
		log.Printf("[SCHEDULER] Cover prune: disabled (no max age)")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule prune job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.schedule, time.Now())
	log.Printf("[SCHEDULER] Cover prune: started with schedule '%s'. Next run: %v", s.schedule, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *CoverPruneScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// Stop accepting new jobs and wait for running jobs to complete. The
	// lock is released first since a running job takes it.
	<-s.cron.Stop().Done()

	log.Printf("[SCHEDULER] Cover prune: stopped")
}

func (s *CoverPruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the prune will next fire, or nil when stopped.
func (s *CoverPruneScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}

// RunNow prunes immediately. Overlapping runs are skipped.
func (s *CoverPruneScheduler) RunNow(ctx context.Context) {
	s.mu.Lock()
	if s.isPruning {
		s.mu.Unlock()
		log.Printf("[SCHEDULER] Cover prune: skipped (already pruning)")
		return
	}
	s.isPruning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isPruning = false
		s.mu.Unlock()
	}()

	if s.queue != nil {
		if _, err := s.queue.Add(tasks.PruneCoversTask{MaxAge: s.maxAge}).Ctx(ctx).Save(); err != nil {
			log.Printf("[SCHEDULER] Cover prune: failed to enqueue: %v", err)
		}
		return
	}

	removed, err := s.pruner.Prune(s.maxAge)
	if err != nil {
		log.Printf("[SCHEDULER] Cover prune: failed: %v", err)
		return
	}
	log.Printf("[SCHEDULER] Cover prune: removed %d cover(s) older than %s", removed, s.maxAge)
}
