package css

import (
	"bytes"
	"regexp"
	"strings"
)

// Recovery for the regions tree-sitter gives up on. The grammar rejects
// some CSS that browsers accept, such as an empty custom property value
// (`--a:;`) or an empty var() fallback (`var(--a,)`), and wraps the
// surrounding text in an ERROR node. These helpers read such a region
// as plain text, one rule or declaration at a time, so that a single
// odd declaration does not cost the rest of the stylesheet.

var propertyNameRegexp = regexp.MustCompile(`^-?-?[A-Za-z_][A-Za-z0-9_-]*$`)

const cssSpace = " \t\r\n\f"

// scanner walks source[start:end] skipping comments and quoted strings,
// tracking nesting depth of parentheses and braces
type scanner struct {
	source []byte
	pos    int
	end    int
	parens int
	braces int
}

// next returns the next structural byte and its offset, or -1 at the end
func (s *scanner) next() (byte, int) {
	for s.pos < s.end {
		i := s.pos
		b := s.source[i]
		switch {
		case b == '/' && i+1 < s.end && s.source[i+1] == '*':
			closeAt := bytes.Index(s.source[i+2:s.end], []byte("*/"))
			if closeAt < 0 {
				s.pos = s.end
			} else {
				s.pos = i + 2 + closeAt + 2
			}
			continue
		case b == '"' || b == '\'':
			s.pos = i + 1
			for s.pos < s.end && s.source[s.pos] != b {
				if s.source[s.pos] == '\\' {
					s.pos++
				}
				s.pos++
			}
			s.pos++
			continue
		}
		s.pos++
		switch b {
		case '(':
			s.parens++
		case ')':
			s.parens = max(s.parens-1, 0)
		case '{':
			s.braces++
		case '}':
			s.braces = max(s.braces-1, 0)
		}
		return b, i
	}
	return 0, -1
}

// recoverNodes reads source[start:end] as a run of `prelude { body }`
// statements. Rules whose block never closes are dropped, as is anything
// that is not a qualified rule or an @media block.
func recoverNodes(source []byte, start, end int) []Node {
	var nodes []Node
	for _, stmt := range statements(source, start, end) {
		prelude := strings.TrimSpace(string(source[stmt.prelude:stmt.open]))
		switch {
		case prelude == "":
		case strings.HasPrefix(prelude, "@media"):
			media := &MediaRule{
				Query:    strings.TrimSpace(strings.TrimPrefix(prelude, "@media")),
				Position: positionAt(source, stmt.prelude),
			}
			for _, inner := range recoverNodes(source, stmt.open+1, stmt.close) {
				if rule, ok := inner.(*Rule); ok {
					media.Rules = append(media.Rules, rule)
				}
			}
			nodes = append(nodes, media)
		case strings.HasPrefix(prelude, "@"):
		default:
			nodes = append(nodes, &Rule{
				Selectors: splitSelectors(prelude),
				Items:     recoverItems(source, stmt.open+1, stmt.close),
				Position:  positionAt(source, stmt.prelude),
			})
		}
	}
	return nodes
}

type statement struct {
	prelude int
	open    int
	close   int
}

// statements finds each closed top-level block in source[start:end]. The
// prelude of a block starts after the previous block or semicolon, past
// any leading whitespace.
func statements(source []byte, start, end int) []statement {
	var found []statement
	s := &scanner{source: source, pos: start, end: end}
	prelude, open := start, -1
	for {
		b, at := s.next()
		if at < 0 {
			return found
		}
		switch {
		case b == '{' && s.braces == 1:
			open = at
		case b == '}' && s.braces == 0:
			if open >= 0 {
				found = append(found, statement{prelude: skipSpace(source, prelude, open), open: open, close: at})
			}
			prelude, open = at+1, -1
		case b == ';' && s.braces == 0:
			prelude = at + 1
		}
	}
}

// recoverItems reads a block body as declarations separated by
// semicolons. Segments holding a nested block are kept as Other.
func recoverItems(source []byte, start, end int) []BlockItem {
	var items []BlockItem
	s := &scanner{source: source, pos: start, end: end}
	segment, colon, nested := start, -1, false
	flush := func(stop int) {
		from := skipSpace(source, segment, stop)
		switch {
		case from >= stop:
		case nested:
			items = append(items, &Other{Kind: "rule_set", Position: positionAt(source, from)})
		default:
			if decl := recoverDeclaration(source, from, colon, stop); decl != nil {
				items = append(items, decl)
			}
		}
		colon, nested = -1, false
	}
	for {
		b, at := s.next()
		if at < 0 {
			flush(end)
			return items
		}
		switch {
		case b == '{':
			nested = true
		case b == '}' && s.braces == 0 && nested:
			flush(at + 1)
			segment = at + 1
		case s.braces > 0 || s.parens > 0:
		case b == ':' && colon < 0:
			colon = at
		case b == ';':
			flush(at)
			segment = at + 1
		}
	}
}

// recoverDeclaration builds a declaration from `property: value`, where
// colon is the offset of the separator
func recoverDeclaration(source []byte, start, colon, end int) *Declaration {
	if colon < 0 {
		return nil
	}
	property := strings.TrimRight(string(source[start:colon]), cssSpace)
	if !propertyNameRegexp.MatchString(property) {
		return nil
	}
	decl := &Declaration{
		Property:       property,
		Position:       positionAt(source, start),
		PropertyOffset: start,
	}
	raw := string(source[colon+1 : end])
	trimmed := strings.TrimLeft(raw, cssSpace)
	decl.ValueOffset = colon + 1 + len(raw) - len(trimmed)
	decl.Value = strings.TrimRight(trimmed, cssSpace)
	return decl
}

func splitSelectors(prelude string) []string {
	var selectors []string
	for _, part := range strings.Split(prelude, ",") {
		if part = strings.TrimSpace(part); part != "" {
			selectors = append(selectors, part)
		}
	}
	return selectors
}

func skipSpace(source []byte, from, to int) int {
	for from < to && strings.IndexByte(cssSpace, source[from]) >= 0 {
		from++
	}
	return from
}

// positionAt converts a byte offset to a Position
func positionAt(source []byte, offset int) Position {
	before := source[:offset]
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	return Position{
		Offset: offset,
		Line:   bytes.Count(before, []byte{'\n'}) + 1,
		Column: offset - lineStart + 1,
	}
}
