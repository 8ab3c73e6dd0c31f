// package cache implements the in-memory TTL cache that shields the remote
// task API from redundant calls.
//
// Entries are valid for a fixed duration after fetch and are invalidated
// early whenever a mutation makes the cached snapshot known to be wrong.
// The cache is process-local and never persisted; a restart starts cold.
package cache

import (
	"fmt"
	"time"
)

// Clock abstracts time so tests can assert staleness deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock implements [Clock] with the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry struct {
	value     any
	fetchedAt time.Time
}

// Store is a TTL cache keyed by string.
//
// Not safe for concurrent use; the sync control flow is single-threaded and
// each account owns its own Store.
type Store struct {
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

// New creates a Store with the given TTL. A nil clock defaults to [SystemClock].
func New(ttl time.Duration, clock Clock) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Store{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key if it exists and is still fresh.
func (s *Store) Get(key string) (any, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.clock.Now().Sub(e.fetchedAt) >= s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key, stamped with the current time.
func (s *Store) Set(key string, value any) {
	s.entries[key] = entry{value: value, fetchedAt: s.clock.Now()}
}

// Invalidate removes the entry for key, if any.
func (s *Store) Invalidate(key string) {
	delete(s.entries, key)
}

// Len returns the number of entries currently stored, fresh or not.
func (s *Store) Len() int {
	return len(s.entries)
}

// ListKey is the cache key for a list-name → list-id lookup.
func ListKey(name string) string {
	return fmt.Sprintf("list:%s", name)
}

// TasksKey is the cache key for a task collection snapshot.
func TasksKey(listID string) string {
	return fmt.Sprintf("tasks:%s", listID)
}
