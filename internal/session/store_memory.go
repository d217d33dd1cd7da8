package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/designsnack/leadharvest/internal/leads"
)

// MemoryStore keeps sessions in process memory. Useful for development and
// tests; nothing survives a restart.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]leads.SearchSession
	history    []leads.SessionSummary
	maxHistory int
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory < 1 {
		maxHistory = defaultMaxHistory
	}
	return &MemoryStore{
		sessions:   make(map[string]leads.SearchSession),
		maxHistory: maxHistory,
	}
}

func (s *MemoryStore) Save(_ context.Context, sess leads.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.history = append([]leads.SessionSummary{{
		ID:          sess.ID,
		SearchTerm:  sess.SearchTerm,
		Timestamp:   sess.Timestamp,
		ResultCount: sess.TotalResults,
	}}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (leads.SearchSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return leads.SearchSession{}, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

func (s *MemoryStore) History(context.Context) ([]leads.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]leads.SessionSummary, len(s.history))
	copy(out, s.history)
	return out, nil
}
