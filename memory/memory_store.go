package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SaiNageswarS/tube-agent/llm"
)

// MemoryStore keeps sessions in process memory. Sessions are never deleted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) CreateSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession("", s.now())
	s.sessions[sess.ID] = sess
	return sess.clone(), nil
}

func (s *MemoryStore) GetSession(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.clone(), nil
}

func (s *MemoryStore) GetOrCreateSession(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess.clone(), nil
	}
	sess := newSession(id, s.now())
	s.sessions[sess.ID] = sess
	return sess.clone(), nil
}

func (s *MemoryStore) Append(ctx context.Context, id string, msgs ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	return sess.appendMessages(s.now(), msgs...)
}

func (s *MemoryStore) Truncate(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.truncate(n, s.now())
	return nil
}

func (s *MemoryStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(out []SessionSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
}
