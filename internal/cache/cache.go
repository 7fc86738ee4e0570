// Package cache provides an in-memory read-through cache over file contents
// with TTL expiration.
//
// The cache exists to absorb repeated reads of the same plan file within a
// short window. Entries are keyed by filesystem path and stamped with their
// capture time; staleness is purely time-based. There is no eviction and no
// negative caching: a failed read is retried on every call, and entries
// persist for the process lifetime unless overwritten by a later read.
package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultTTL is the default freshness window for cached file contents.
const DefaultTTL = 5 * time.Minute

// ErrNotFound is returned when a path cannot be read from disk and no fresh
// cached copy exists.
var ErrNotFound = errors.New("file not found")

// entry is a cached file content stamped with its capture time.
type entry struct {
	capturedAt time.Time
	content    string
}

// fresh reports whether the entry is still within the TTL window.
// A non-positive ttl makes every entry stale, forcing disk reads.
func (e entry) fresh(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.capturedAt) < ttl
}

// Store is a read-through file content cache shared by all connection
// handlers. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

// New creates a Store with the given TTL. A ttl <= 0 disables caching:
// every GetOrLoad hits the filesystem.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// SetTTL changes the freshness window. Existing entries are re-judged
// against the new value on their next lookup.
func (s *Store) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}

// TTL returns the current freshness window.
func (s *Store) TTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl
}

// Len returns the number of entries currently held, fresh or stale.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// GetOrLoad returns the content of path, serving a fresh cached copy when
// one exists and otherwise reading from disk. A successful read overwrites
// the entry for path with the current time. Read failures of any kind
// (missing file, permission, I/O) return ErrNotFound wrapping the cause and
// leave the cache untouched, so the next call retries the read.
//
// Concurrent misses on the same path may each read disk and store; the last
// write wins, which is acceptable because both carry current content.
func (s *Store) GetOrLoad(path string) (string, error) {
	now := time.Now()

	s.mu.Lock()
	e, ok := s.entries[path]
	ttl := s.ttl
	s.mu.Unlock()

	if ok && e.fresh(ttl, now) {
		return e.content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	content := string(data)

	s.mu.Lock()
	s.entries[path] = entry{capturedAt: now, content: content}
	s.mu.Unlock()

	return content, nil
}
