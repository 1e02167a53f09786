// Package memkv is an in-process key-value store with expiry, used for
// single-instance deployments and tests.
package memkv

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time // zero never expires
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Store {
	return &Store{entries: make(map[string]entry), now: time.Now}
}

// NewWithClock is New with an injected clock.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired(s.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// DeleteExpired purges expired entries and reports how many went.
func (s *Store) DeleteExpired(_ context.Context) (int64, error) {
	now := s.now()
	var n int64

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Len counts live entries.
func (s *Store) Len() int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}
