package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the bearer token for the backend API.
// It is the terminal-client analogue of browser credential storage:
// the token lives in a single file under the config directory.
type TokenStore struct {
	path string

	mu    sync.RWMutex
	token string
}

// NewTokenStore creates a token store backed by the given file path.
// An existing token is loaded eagerly; a missing file is not an error.
func NewTokenStore(path string) (*TokenStore, error) {
	ts := &TokenStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	ts.token = strings.TrimSpace(string(data))
	return ts, nil
}

// Token returns the stored token, or an empty string when logged out.
func (ts *TokenStore) Token() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

// Save stores the token in memory and on disk with owner-only permissions.
func (ts *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	if err := os.MkdirAll(filepath.Dir(ts.path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(ts.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	ts.mu.Lock()
	ts.token = token
	ts.mu.Unlock()
	return nil
}

// Clear forgets the token in memory and removes it from disk.
func (ts *TokenStore) Clear() error {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()

	if err := os.Remove(ts.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
