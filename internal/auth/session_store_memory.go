package auth

import (
	"context"
	"sync"
)

// InMemorySessionStore keeps refresh sessions in a map. It backs tests and
// local development where no database is running.
type InMemorySessionStore struct {
	mu      sync.RWMutex
	byToken map[string]Session
}

// NewInMemorySessionStore returns an empty in-memory SessionStore.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{byToken: make(map[string]Session)}
}

// Save stores the session, replacing any record under the same token.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[session.RefreshToken] = session
	return nil
}

// Find looks up a session by its refresh token.
func (s *InMemorySessionStore) Find(_ context.Context, refreshToken string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byToken[refreshToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete revokes the session under the refresh token. Deleting an unknown
// token is a no-op.
func (s *InMemorySessionStore) Delete(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, refreshToken)
	return nil
}

// Has reports whether a refresh token is currently stored.
func (s *InMemorySessionStore) Has(refreshToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byToken[refreshToken]
	return ok
}
