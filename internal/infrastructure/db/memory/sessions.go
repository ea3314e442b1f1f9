package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
)

type sessionEntry struct {
	user      domain.User
	expiresAt time.Time
}

// SessionStore keeps sessions in process memory. Expired entries are dropped
// lazily on Load.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

func (s *SessionStore) Save(_ context.Context, sessionID string, user *domain.User, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = sessionEntry{user: *user, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Load(_ context.Context, sessionID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	u := e.user
	return &u, nil
}

func (s *SessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// IdempotencyStore remembers idempotency keys for the life of the process. A
// claimed key maps to "" until its request completes.
type IdempotencyStore struct {
	mu   sync.Mutex
	refs map[string]string
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{refs: make(map[string]string)}
}

func (s *IdempotencyStore) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, taken := s.refs[key]; taken {
		return ref, false, nil
	}
	s.refs[key] = ""
	return "", true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[key] = ref
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[key] == "" {
		delete(s.refs, key)
	}
	return nil
}
