package service

import (
	"sync"
	"time"

	"github.com/yourname/healthday/internal"
)

type trackedSession struct {
	session  *EditSession
	openedAt time.Time
}

// EditSessions tracks open edit sessions by id. Each session belongs to one
// caller; the registry only hands them out.
type EditSessions struct {
	mu       sync.Mutex
	sessions map[string]trackedSession
	maxAge   time.Duration
	now      func() time.Time
}

func NewEditSessions(maxAge time.Duration) *EditSessions {
	return &EditSessions{
		sessions: make(map[string]trackedSession),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (m *EditSessions) Add(s *EditSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = trackedSession{session: s, openedAt: m.now()}
}

func (m *EditSessions) Get(id string) (*EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.sessions[id]
	if !ok {
		return nil, internal.ErrNoSession
	}
	return t.session, nil
}

func (m *EditSessions) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return internal.ErrNoSession
	}
	delete(m.sessions, id)
	return nil
}

func (m *EditSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune drops sessions older than maxAge and reports how many went.
func (m *EditSessions) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxAge <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.maxAge)
	n := 0
	for id, t := range m.sessions {
		if t.openedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
