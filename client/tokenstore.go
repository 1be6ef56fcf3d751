package client

import "sync"

// TokenStore holds the current access token for a session context.
// There is no ambient global: construct one per app session and hand
// it to the pipeline.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current access token, or "" when logged out.
func (ts *TokenStore) Get() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

// Set replaces the access token. Writers are the login and refresh
// paths only.
func (ts *TokenStore) Set(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = token
}

// Clear drops the access token.
func (ts *TokenStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
}
