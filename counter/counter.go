// Package counter is a minimal example store: an integer count with a few
// mutators and derived values.
package counter

import "sync"

// Store holds a count starting at zero.
type Store struct {
	mu    sync.RWMutex
	count int
}

// New returns a store at zero. Stores do not share state.
func New() *Store {
	return &Store{}
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// DoubleCount is twice the count.
func (s *Store) DoubleCount() int {
	return s.Count() * 2
}

// IsPositive reports count > 0.
func (s *Store) IsPositive() bool {
	return s.Count() > 0
}

func (s *Store) Increment() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
}

func (s *Store) Decrement() {
	s.mu.Lock()
	s.count--
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.SetCount(0)
}

func (s *Store) SetCount(n int) {
	s.mu.Lock()
	s.count = n
	s.mu.Unlock()
}

// Snapshot is the wire form of a store.
type Snapshot struct {
	Count       int  `json:"count"`
	DoubleCount int  `json:"doubleCount"`
	IsPositive  bool `json:"isPositive"`
}

// Snapshot reads the count and derived values together.
func (s *Store) Snapshot() Snapshot {
	n := s.Count()
	return Snapshot{Count: n, DoubleCount: n * 2, IsPositive: n > 0}
}
