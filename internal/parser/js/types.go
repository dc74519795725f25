package js

import "bennypowers.dev/cpls/internal/parser/css"

// Dialect selects the tree-sitter grammar used for a script file
type Dialect int

const (
	// JavaScript covers .js, .mjs, .cjs and .jsx
	JavaScript Dialect = iota
	// TypeScript covers .ts, .mts and .cts
	TypeScript
	// TSX covers .tsx
	TSX
)

func (d Dialect) String() string {
	switch d {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	}
	return "javascript"
}

// TemplateRegion represents a tagged template literal found in JS/TS source.
// All spans are absolute byte offsets into the source.
type TemplateRegion struct {
	// Tag is the template tag function name ("css" or "html")
	Tag string
	// Body is everything between the backticks
	Body css.Span
	// Segments are the literal text parts of the body, split at ${...} boundaries
	Segments []css.Span
	// Substitutions are the ${...} expressions inside the body
	Substitutions []css.Span
	// Line and Column locate the opening backtick, 0-based
	Line   uint
	Column uint
}
