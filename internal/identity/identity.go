package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// #region source
// Source mints identifiers for personas, persona sets and respawn records.
// Everything else in the respawn pipeline is deterministic, so tests swap
// this for a Sequence.
type Source interface {
	NewID() string
}

// UUIDSource returns random v4 UUIDs.
type UUIDSource struct{}

// NewID returns a fresh UUID string.
func (UUIDSource) NewID() string {
	return uuid.New().String()
}
// #endregion source

// #region sequence
// Sequence hands out a fixed list of IDs in order, then falls back to
// "<prefix>-<n>" once the list is exhausted. Safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	ids    []string
	prefix string
	n      int
}

// NewSequence creates a Sequence over ids.
func NewSequence(prefix string, ids ...string) *Sequence {
	return &Sequence{ids: ids, prefix: prefix}
}

// NewID returns the next ID in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.n <= len(s.ids) {
		return s.ids[s.n-1]
	}
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}

// Issued reports how many IDs have been handed out.
func (s *Sequence) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
// #endregion sequence

// #region short
// Short truncates an ID to at most n characters.
func Short(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
// #endregion short
