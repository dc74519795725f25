package index

import "sort"

// Position is a zero-based line and UTF-16 character offset
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is an end-exclusive span between two positions
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Occurrence is one place a custom property is declared or used.
// File is the base name of the containing file.
type Occurrence struct {
	File      string   `json:"file"`
	Range     Range    `json:"range"`
	Selectors []string `json:"selectors"`
	Media     string   `json:"media"`
}

// Kind distinguishes declarations from var() usages
type Kind int

const (
	// Definition is a `--name: value` declaration
	Definition Kind = iota
	// Reference is a `var(--name)` usage
	Reference
)

func (k Kind) String() string {
	if k == Reference {
		return "reference"
	}
	return "definition"
}

// Entry is one indexed occurrence together with the keys it is stored under
type Entry struct {
	Kind       Kind
	Name       string
	Value      string
	Occurrence Occurrence
}

// ValueLocations groups the occurrences of one name: value → path → occurrences.
// For definitions the value is the property's own value; for references it
// is the value of the declaration containing the var() call.
type ValueLocations map[string]map[string][]Occurrence

// Location is a flattened ValueLocations entry
type Location struct {
	Path       string
	Value      string
	Occurrence Occurrence
}

// Locations flattens the groups ordered by value, then path, keeping
// occurrences of one path in source order.
func (v ValueLocations) Locations() []Location {
	var out []Location
	for _, value := range sortedKeys(v) {
		byPath := v[value]
		for _, path := range sortedKeys(byPath) {
			for _, occ := range byPath[path] {
				out = append(out, Location{Path: path, Value: value, Occurrence: occ})
			}
		}
	}
	return out
}

// Values returns the distinct values in ascending order
func (v ValueLocations) Values() []string {
	return sortedKeys(v)
}

// Files returns the distinct paths across all values
func (v ValueLocations) Files() []string {
	seen := map[string]struct{}{}
	for _, byPath := range v {
		for path := range byPath {
			seen[path] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func (v ValueLocations) clone() ValueLocations {
	out := make(ValueLocations, len(v))
	for value, byPath := range v {
		paths := make(map[string][]Occurrence, len(byPath))
		for path, occs := range byPath {
			copied := make([]Occurrence, len(occs))
			for i, occ := range occs {
				occ.Selectors = append([]string(nil), occ.Selectors...)
				copied[i] = occ
			}
			paths[path] = copied
		}
		out[value] = paths
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
