// Package memory implements the EntryStore port in process memory. Entries
// expire lazily against an injected clock; it is meant for development and
// single-process deployments where losing everything on restart is fine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryStore)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

// EntryStore is a mutex-protected map with per-entry deadlines.
type EntryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]entry
}

// NewEntryStore creates an empty store. Pass clock.WallClock in production.
func NewEntryStore(clk clock.Clock) *EntryStore {
	return &EntryStore{
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Set stores value under key until ttl elapses.
func (s *EntryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, expiresAt: s.clock.Now().Add(ttl)}
	return nil
}

// Get returns the live value under key. Expired entries are dropped on access.
func (s *EntryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

// Exists reports whether a live entry is stored under key.
func (s *EntryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(key)
	return ok, nil
}

// Delete removes the entry under key.
func (s *EntryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Ping always succeeds.
func (s *EntryStore) Ping(_ context.Context) error {
	return nil
}

// live must be called with mu held.
func (s *EntryStore) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}
