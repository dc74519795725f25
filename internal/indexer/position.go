package indexer

import (
	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/parser/css"
	"bennypowers.dev/cpls/internal/position"
)

// Resolver converts byte offsets reported by the parser into zero-based,
// UTF-16 ranges for one file.
type Resolver struct {
	lines *position.LineIndex
}

// NewResolver indexes the line starts of the file's decoded text
func NewResolver(text string) *Resolver {
	return &Resolver{lines: position.NewLineIndex(text)}
}

// Range converts the byte span [start, end) into an index.Range
func (r *Resolver) Range(start, end int) index.Range {
	sl, sc := r.lines.Position(start)
	el, ec := r.lines.Position(end)
	return index.Range{
		Start: index.Position{Line: sl, Character: sc},
		End:   index.Position{Line: el, Character: ec},
	}
}

// DefinitionRange covers the property token of a declaration
func (r *Resolver) DefinitionRange(decl *css.Declaration) index.Range {
	return r.Range(decl.PropertyOffset, decl.PropertyOffset+len(decl.Property))
}

// UsageRange covers a variable name found at [start, end) within the
// declaration's value text. Values may span several lines; the offsets
// are relative to the value, not to the line.
func (r *Resolver) UsageRange(decl *css.Declaration, start, end int) index.Range {
	return r.Range(decl.ValueOffset+start, decl.ValueOffset+end)
}
