// Package index holds the in-memory tables of custom property definitions
// and var() references, keyed name → value → path.
package index

import (
	"sync"

	"bennypowers.dev/cpls/internal/collections"
)

// Store is the incremental symbol index. Every name a path contributes is
// tracked in a per-path set so the path can be evicted without scanning
// the whole index. Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]ValueLocations
	references  map[string]ValueLocations
	paths       map[string]collections.Set[string]
}

// Stats summarises the contents of a Store
type Stats struct {
	Paths       int
	Names       int
	Definitions int
	References  int
}

// NewStore creates an empty Store
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.definitions = make(map[string]ValueLocations)
	s.references = make(map[string]ValueLocations)
	s.paths = make(map[string]collections.Set[string])
}

// Reset empties the store
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// RecordDefinition appends a definition of name with the given value found in path
func (s *Store) RecordDefinition(name, value, path string, occ Occurrence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.definitions, name, value, path, occ)
}

// RecordReference appends a var() usage of name inside a declaration whose
// value is value, found in path
func (s *Store) RecordReference(name, value, path string, occ Occurrence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.references, name, value, path, occ)
}

// EvictPath removes every occurrence contributed by path, pruning value and
// name buckets left empty. Evicting an unknown path is a no-op.
func (s *Store) EvictPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict(path)
}

// ReplacePath evicts path and records entries for it in one step, so
// readers never observe a partially re-indexed file.
func (s *Store) ReplacePath(path string, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict(path)
	for _, e := range entries {
		switch e.Kind {
		case Definition:
			s.record(s.definitions, e.Name, e.Value, path, e.Occurrence)
		case Reference:
			s.record(s.references, e.Name, e.Value, path, e.Occurrence)
		}
	}
}

// Definitions returns a copy of every definition of name, or nil
func (s *Store) Definitions(name string) ValueLocations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.definitions[name]; ok {
		return v.clone()
	}
	return nil
}

// References returns a copy of every var() usage of name, or nil
func (s *Store) References(name string) ValueLocations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.references[name]; ok {
		return v.clone()
	}
	return nil
}

// AllDefinitions returns a copy of the whole definitions table, taken
// under a single read lock
func (s *Store) AllDefinitions() map[string]ValueLocations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ValueLocations, len(s.definitions))
	for name, v := range s.definitions {
		out[name] = v.clone()
	}
	return out
}

// Names returns every name that is defined or referenced, sorted
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := collections.NewSet[string]()
	for name := range s.definitions {
		names.Add(name)
	}
	for name := range s.references {
		names.Add(name)
	}
	return collections.Sorted(names)
}

// Paths returns every path that contributed at least one occurrence, sorted
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.paths)
}

// NamesForPath returns the names path contributed, sorted
func (s *Store) NamesForPath(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collections.Sorted(s.paths[path])
}

// Stats counts paths, names and occurrences
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Paths:       len(s.paths),
		Names:       len(s.definitions) + countMissing(s.references, s.definitions),
		Definitions: countOccurrences(s.definitions),
		References:  countOccurrences(s.references),
	}
}

func (s *Store) record(table map[string]ValueLocations, name, value, path string, occ Occurrence) {
	byValue, ok := table[name]
	if !ok {
		byValue = make(ValueLocations)
		table[name] = byValue
	}
	byPath, ok := byValue[value]
	if !ok {
		byPath = make(map[string][]Occurrence)
		byValue[value] = byPath
	}
	byPath[path] = append(byPath[path], occ)

	names, ok := s.paths[path]
	if !ok {
		names = collections.NewSet[string]()
		s.paths[path] = names
	}
	names.Add(name)
}

func (s *Store) evict(path string) {
	for name := range s.paths[path] {
		evictFrom(s.definitions, name, path)
		evictFrom(s.references, name, path)
	}
	delete(s.paths, path)
}

func evictFrom(table map[string]ValueLocations, name, path string) {
	byValue, ok := table[name]
	if !ok {
		return
	}
	for value, byPath := range byValue {
		delete(byPath, path)
		if len(byPath) == 0 {
			delete(byValue, value)
		}
	}
	if len(byValue) == 0 {
		delete(table, name)
	}
}

func countOccurrences(table map[string]ValueLocations) int {
	n := 0
	for _, byValue := range table {
		for _, byPath := range byValue {
			for _, occs := range byPath {
				n += len(occs)
			}
		}
	}
	return n
}

func countMissing(table, other map[string]ValueLocations) int {
	n := 0
	for name := range table {
		if _, ok := other[name]; !ok {
			n++
		}
	}
	return n
}
