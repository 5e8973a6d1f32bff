package session

import (
	"context"
	"sync"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"
)

// MemoryStore keeps sessions in a mutex-guarded map.
//
// Expiry is lazy: a stale entry is removed by the first Resolve that sees it.
// Memory held by tokens that are never presented again is reclaimed only on
// restart, which is acceptable for correctness.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the store's clock. Used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Create issues a fresh session for the user
func (s *MemoryStore) Create(_ context.Context, userID string) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := models.Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	return &sess, nil
}

// Resolve looks a session up by token, deleting it if expired
func (s *MemoryStore) Resolve(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, token)
		return nil, apperr.ErrUnauthorized
	}

	out := sess
	return &out, nil
}

// Revoke removes the session; absent tokens are a no-op
func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
