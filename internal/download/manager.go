package download

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

// Manager keeps at most one session per document reference.
type Manager struct {
	opts []Option

	mu       sync.Mutex
	sessions map[string]*Session
	byRef    map[string]string
}

// NewManager creates a manager whose sessions are built with opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		byRef:    make(map[string]string),
	}
}

// Open returns a new idle session for ref, cancelling and forgetting any
// session previously opened for the same reference.
func (m *Manager) Open(ref string, opts ...Option) *Session {
	ref = catalog.SecureURL(ref)

	m.mu.Lock()
	var previous *Session
	if id, ok := m.byRef[ref]; ok {
		previous = m.sessions[id]
		delete(m.sessions, id)
	}

	all := append(append([]Option{}, m.opts...), opts...)
	session := NewSession(uuid.NewString(), ref, all...)
	m.sessions[session.ID()] = session
	m.byRef[ref] = session.ID()
	m.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
	return session
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// Close cancels the session and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		if m.byRef[session.URL()] == id {
			delete(m.byRef, session.URL())
		}
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	session.Cancel()
	return nil
}

// CloseAll cancels every session. Used when the owning viewer goes away.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.byRef = make(map[string]string)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Cancel()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
