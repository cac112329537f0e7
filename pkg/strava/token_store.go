// Package strava provides the activity provider client and its credential
// lifecycle.
package strava

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Token holds the OAuth credentials persisted between ingestion runs.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// Expired reports whether the access token is past its expiry. A zero
// ExpiresAt is treated as expired so a refresh is forced.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt <= now.Unix()
}

// TokenStore persists the OAuth token as a JSON file.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the saved token. A missing or unreadable file returns nil, nil;
// the caller then runs the initial authorization instead of failing.
func (s *TokenStore) Load() (*Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, nil
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return nil, nil
	}
	return &token, nil
}

// Save writes the token atomically so a crash mid-write never leaves a
// truncated file behind.
func (s *TokenStore) Save(token *Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
