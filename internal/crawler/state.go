package crawler

import (
	"sort"
	"sync"
)

// NameSet is the shared set of discovered names. It only grows; the
// final output is its sorted projection.
type NameSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewNameSet returns an empty NameSet.
func NewNameSet() *NameSet {
	return &NameSet{names: make(map[string]struct{})}
}

// Add unions names into the set and returns how many were new.
// Duplicate additions are harmless, which is what makes racing
// duplicate fetches of the same prefix tolerable.
func (s *NameSet) Add(names ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, n := range names {
		if _, ok := s.names[n]; !ok {
			s.names[n] = struct{}{}
			added++
		}
	}
	return added
}

// Len returns the number of distinct names.
func (s *NameSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Sorted returns the names in ascending order.
func (s *NameSet) Sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ExploredSet is the shared set of prefixes that have been fully
// processed. A prefix enters at most once and is never removed.
type ExploredSet struct {
	mu       sync.Mutex
	prefixes map[string]struct{}
}

// NewExploredSet returns an empty ExploredSet.
func NewExploredSet() *ExploredSet {
	return &ExploredSet{prefixes: make(map[string]struct{})}
}

// Add marks prefix as explored. Returns false when it was already
// present.
func (s *ExploredSet) Add(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prefixes[prefix]; ok {
		return false
	}
	s.prefixes[prefix] = struct{}{}
	return true
}

// Contains reports whether prefix has been explored.
func (s *ExploredSet) Contains(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.prefixes[prefix]
	return ok
}

// Len returns the number of explored prefixes.
func (s *ExploredSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prefixes)
}

// All returns every explored prefix, sorted for deterministic
// serialization.
func (s *ExploredSet) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.prefixes))
	for p := range s.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
