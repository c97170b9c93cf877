// ABOUTME: Process-wide session holding the bearer token
// ABOUTME: The auth gate writes the token, the API client reads it on every request
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harperreed/ringbook/config"
)

// TokenKey is the fixed storage key for the bearer token.
const TokenKey = "access_token"

// ErrNotFound is returned by stores when a key has no value.
var ErrNotFound = errors.New("session: key not found")

// Store is durable client-side key/value storage.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is the single read/write access point for the bearer token.
type Session struct {
	mu    sync.RWMutex
	store Store
}

// New wraps a store.
func New(store Store) *Session {
	return &Session{store: store}
}

// Open builds the session over the backend named in cfg.
func Open(cfg *config.Config) (*Session, error) {
	var (
		store Store
		err   error
	)
	switch cfg.SessionBackend {
	case config.BackendBadger:
		store, err = OpenBadgerStore(BadgerPath())
	case config.BackendFile, "":
		store = NewFileStore(FilePath())
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, err := s.store.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return tok, nil
}

// SetToken persists a new bearer token.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the token. Clearing an empty session is not an error.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(TokenKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	tok, err := s.Token()
	return err == nil && tok != ""
}

// Close releases the underlying store if it holds resources.
func (s *Session) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
