package workspace

import (
	"log"
	"sync"
	"time"
)

// Factory builds the workspace for a newly seen viewer.
type Factory func() *Workspace

// Registry maps viewer tokens to their workspaces and evicts the ones that
// have been idle for longer than the TTL.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

// NewRegistry creates a registry. A non-positive ttl disables eviction.
func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		factory:    factory,
		ttl:        ttl,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
		stopSweep:  make(chan struct{}),
	}
}

// Get returns the workspace for token, creating it on demand.
func (r *Registry) Get(token string) *Workspace {
	now := r.now()

	r.mu.Lock()
	w, ok := r.workspaces[token]
	if !ok {
		w = r.factory()
		r.workspaces[token] = w
	}
	r.mu.Unlock()

	w.touch(now)
	return w
}

// Drop tears down the workspace for token. It reports whether one existed.
func (r *Registry) Drop(token string) bool {
	r.mu.Lock()
	w, ok := r.workspaces[token]
	delete(r.workspaces, token)
	r.mu.Unlock()

	if ok {
		w.Close()
	}
	return ok
}

// Sweep drops every workspace idle for longer than the TTL and returns how
// many were dropped.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Workspace
	r.mu.Lock()
	for token, w := range r.workspaces {
		if w.idleSince(now) > r.ttl {
			expired = append(expired, w)
			delete(r.workspaces, token)
		}
	}
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	if len(expired) > 0 {
		log.Printf("[WORKSPACE] Evicted %d idle workspace(s)", len(expired))
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// StartSweeper runs Sweep every interval until Stop is called.
func (r *Registry) StartSweeper(interval time.Duration) {
	if interval <= 0 || r.ttl <= 0 {
		return
	}
	r.sweepInterval = interval
	go r.sweepLoop()
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(r.now())
		case <-r.stopSweep:
			return
		}
	}
}

// Stop halts the sweeper and tears down every workspace.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopSweep) })

	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range all {
		w.Close()
	}
}
