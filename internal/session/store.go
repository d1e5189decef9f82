// Package session persists the active token for the current execution
// context so the CLI stays logged in across invocations. The token lives
// in a single local file; absence of the file is the valid "logged out"
// state. All file access is serialized so concurrent saves cannot
// interleave into a corrupt artifact.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/auth"
)

// artifact is the on-disk shape of the session file.
type artifact struct {
	Token string `json:"token"`
}

// Store reads and writes the local session artifact and resolves the
// currently authenticated identity through the token service.
type Store struct {
	mu     sync.Mutex
	path   string
	tokens *auth.TokenService
}

// NewStore creates a session store bound to the given file path.
func NewStore(path string, tokens *auth.TokenService) *Store {
	return &Store{path: path, tokens: tokens}
}

// Save overwrites any previously stored token. The file is written with
// owner-only permissions; a temp-file rename keeps a crashed write from
// leaving a partial credential behind.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(artifact{Token: token})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// Load returns the stored token, or "" when absent or unreadable. A
// corrupt file reads as "not logged in" rather than an error.
func (s *Store) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads the artifact without taking the lock. Callers hold s.mu.
func (s *Store) load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return ""
	}
	return a.Token
}

// Clear deletes the stored token. Idempotent: clearing an absent session
// is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear()
}

// clear removes the artifact without taking the lock. Callers hold s.mu.
func (s *Store) clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// Current resolves the authenticated identity from the stored token. An
// absent token returns a session error; a tampered or expired token
// clears the artifact as a side effect and returns the same error kind,
// so callers observe "not logged in" rather than a raw token failure.
func (s *Store) Current() (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.load()
	if token == "" {
		return nil, apperror.NewSession("not logged in")
	}

	identity, err := s.tokens.Verify(token)
	if err != nil {
		// Stale credential: drop it so the next call short-circuits.
		_ = s.clear()
		return nil, err
	}
	return identity, nil
}
