// Package memstore implements the session store in process memory. It backs
// tests and single-instance development runs; nothing survives a restart.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"geolens/domain/core"
	"geolens/ports"
)

type entry struct {
	value     []byte
	expiresAt time.Time
	updatedAt time.Time
}

// Store is a mutex-guarded map of session blobs.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{entries: map[string]entry{}, now: time.Now}
}

var _ ports.SessionStore = (*Store)(nil)

// Set stores a blob under a key, replacing any existing value.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := entry{value: append([]byte(nil), value...), updatedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Get retrieves a blob by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		return nil, core.ErrSessionNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// ListKeys returns all live keys with the given prefix, newest first.
func (s *Store) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !s.expired(e) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.entries[keys[i]].updatedAt.After(s.entries[keys[j]].updatedAt)
	})
	return keys, nil
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
