// Package completion builds completion entries from the definitions table.
package completion

import (
	"fmt"
	"sort"
	"strings"

	"bennypowers.dev/cpls/internal/color"
	"bennypowers.dev/cpls/internal/index"
)

// Kind is how an entry presents itself to an editor
type Kind int

const (
	// Variable is a custom property with non-color values
	Variable Kind = iota
	// Color is a custom property whose every value is a color literal
	Color
)

func (k Kind) String() string {
	if k == Color {
		return "color"
	}
	return "variable"
}

// Entry is one suggestion: a defined custom property and a summary of its
// definitions
type Entry struct {
	Label           string
	Documentation   string
	Detail          string
	Kind            Kind
	Values          []string
	DefinitionCount int
	FileCount       int
}

// Build rebuilds every entry from scratch, one per defined name, sorted
// by label.
func Build(definitions map[string]index.ValueLocations) []Entry {
	entries := make([]Entry, 0, len(definitions))
	for name, byValue := range definitions {
		if len(byValue) == 0 {
			continue
		}
		entries = append(entries, entryFor(name, byValue))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// FromStore builds entries from a consistent copy of the store's definitions
func FromStore(store *index.Store) []Entry {
	return Build(store.AllDefinitions())
}

func entryFor(name string, byValue index.ValueLocations) Entry {
	values := byValue.Values()

	// a path defining the name under two values counts once per value
	definitions := 0
	for _, byPath := range byValue {
		definitions += len(byPath)
	}
	files := len(byValue.Files())

	entry := Entry{
		Label:           name,
		Kind:            Variable,
		Values:          values,
		DefinitionCount: definitions,
		FileCount:       files,
		Documentation:   Documentation(definitions, files, values),
	}
	if color.AllColors(values) {
		entry.Kind = Color
		entry.Detail, _ = color.ToHex(values[0])
	}
	return entry
}

// Documentation renders the markdown summary of a name's definitions:
//
//	**2** definitions in **2** files
//
//	blue, red
func Documentation(definitions, files int, values []string) string {
	return fmt.Sprintf("**%d** %s in **%d** %s\n\n%s",
		definitions, plural(definitions, "definition"),
		files, plural(files, "file"),
		strings.Join(values, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
