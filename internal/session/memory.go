package session

import (
	"context"
	"sync"
	"time"

	"github.com/aeroscout/fareengine/internal/models"
)

const DefaultMaxSessions = 1000

// MemoryStore keeps sessions in process memory, bounded to maxSessions. When
// full, the oldest sessions are evicted first.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*models.SearchSession
	order       []string
	maxSessions int
	now         func() time.Time
}

func NewMemoryStore(maxSessions int) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &MemoryStore{
		sessions:    make(map[string]*models.SearchSession),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

func (s *MemoryStore) Set(_ context.Context, session *models.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SearchID]; !exists {
		s.order = append(s.order, session.SearchID)
		s.evictLocked()
	}
	copied := *session
	copied.UpdatedAt = s.now()
	s.sessions[session.SearchID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, searchID string) (*models.SearchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[searchID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, searchID string, fn func(*models.SearchSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[searchID]
	if !ok {
		return ErrNotFound
	}
	fn(session)
	session.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, searchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[searchID]; !ok {
		return nil
	}
	delete(s.sessions, searchID)
	for i, id := range s.order {
		if id == searchID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, searchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[searchID]
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

func (s *MemoryStore) evictLocked() {
	for len(s.order) > s.maxSessions {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.sessions, oldest)
	}
}
