// internal/session/session.go
// Server-side session values, keyed by a random ID carried in a signed cookie

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID has no stored data
var ErrNotFound = errors.New("session not found")

type contextKey struct{}

// Session holds the values of one browser session.
// Values are stored as raw JSON so any package can keep its own types in it.
type Session struct {
	ID string

	mu        sync.Mutex
	values    map[string]json.RawMessage
	isNew     bool
	modified  bool
	destroyed bool
	// previousID is the stored ID a renewed session moved away from
	previousID string
}

func newSession(id string, values map[string]json.RawMessage, isNew bool) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values, isNew: isNew}
}

// New returns an empty session that is not yet stored anywhere
func New(id string) *Session {
	return newSession(id, nil, true)
}

// Get decodes the value under key into dst. It reports false if the key is absent.
func (s *Session) Get(key string, dst interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("failed to decode session value %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key
func (s *Session) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session value %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	s.modified = true
	s.destroyed = false
	return nil
}

// Unset removes key
func (s *Session) Unset(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if _, ok := s.values[key]; ok {
			delete(s.values, key)
			s.modified = true
		}
	}
}

// Destroy drops every value and removes the session from the store.
// A Set after Destroy starts the session over under the same ID.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]json.RawMessage)
	s.destroyed = true
}

// Renew moves the session to a fresh ID and keeps its values.
// The old ID is dropped from the store when the session is saved.
// Call it whenever the session's privilege changes, e.g. on login.
func (s *Session) Renew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isNew && s.previousID == "" {
		s.previousID = s.ID
	}
	s.ID = uuid.NewString()
	s.modified = true
}

// Modified reports whether the session needs saving
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

func (s *Session) snapshot() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the middleware
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
