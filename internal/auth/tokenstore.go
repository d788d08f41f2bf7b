package auth

import (
	"context"
	"sync"
)

// RefreshHandler obtains a fresh access token. It returns an empty token
// when no token could be obtained.
type RefreshHandler func(ctx context.Context) (string, error)

// TokenStore holds the current access token and the refresh handler used
// to replace it. It performs no I/O of its own.
type TokenStore struct {
	mu      sync.RWMutex
	token   string
	refresh RefreshHandler
}

// NewTokenStore creates a store holding the given token (empty for none)
func NewTokenStore(token string) *TokenStore {
	return &TokenStore{token: token}
}

// Token returns the current access token and whether one is set
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetToken replaces the current access token
func (s *TokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// ClearToken drops the current access token
func (s *TokenStore) ClearToken() {
	s.SetToken("")
}

// SetRefreshHandler registers the handler used to obtain new tokens.
// Passing nil unregisters it.
func (s *TokenStore) SetRefreshHandler(h RefreshHandler) {
	s.mu.Lock()
	s.refresh = h
	s.mu.Unlock()
}

// RefreshHandler returns the registered handler, or nil
func (s *TokenStore) RefreshHandler() RefreshHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}
