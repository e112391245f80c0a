package region

import (
	"sync"
	"sync/atomic"
)

// Set is the inside-set. Insertion and removal are idempotent and report
// whether they changed the set.
type Set struct {
	mu     sync.RWMutex
	inside map[string]Region
	order  []string // insertion order, for deterministic Members
	size   atomic.Int64
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{inside: make(map[string]Region)}
}

// Add inserts r. Returns false if r was already inside.
func (s *Set) Add(r Region) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inside[r.Name]; exists {
		return false
	}
	s.inside[r.Name] = r
	s.order = append(s.order, r.Name)
	s.size.Add(1)
	return true
}

// Remove deletes r. Returns false if r was not inside.
func (s *Set) Remove(r Region) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inside[r.Name]; !exists {
		return false
	}
	delete(s.inside, r.Name)
	for i, name := range s.order {
		if name == r.Name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.size.Add(-1)
	return true
}

// Contains reports whether r is inside.
func (s *Set) Contains(r Region) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inside[r.Name]
	return ok
}

// Members returns the regions in insertion order.
func (s *Set) Members() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Region, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.inside[name])
	}
	return out
}

// Size returns the number of regions inside.
func (s *Set) Size() int64 {
	return s.size.Load()
}
