package css

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("css syntax error")

// Parser builds a rule tree from CSS source with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

// parserPool is a pool of reusable CSS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(cssLang); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
		}
		return &Parser{parser: parser}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ClosePool closes all parsers in the pool
func ClosePool() {
	for range 100 {
		if p, ok := parserPool.Get().(*Parser); ok && p != nil {
			p.Close()
		}
	}
}

// Parse parses source into a Stylesheet. Offsets in the result are byte
// offsets into source.
//
// A syntax error costs only the statement that holds it: top-level
// statements tree-sitter could not parse cleanly are read again as plain
// text, keeping each closed rule and each well-formed declaration. Rules
// whose block never closes are dropped. When errors leave no rule at all
// Parse fails with an error wrapping ErrSyntax.
func (p *Parser) Parse(source []byte) (*Stylesheet, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: parser returned no tree", ErrSyntax)
	}
	defer tree.Close()

	root := tree.RootNode()
	sheet := &Stylesheet{}
	rules := 0
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if broken(child) {
			// the tail of a broken rule can surface as top-level siblings
			// (a bare declaration, a stray brace), so recover up to the
			// next intact rule
			end := child.EndByte()
			for i+1 < root.ChildCount() && !intactRule(root.Child(i+1)) {
				i++
				end = root.Child(i).EndByte()
			}
			recovered := recoverNodes(source, int(child.StartByte()), int(end))
			sheet.Nodes = append(sheet.Nodes, recovered...)
			rules += len(recovered)
			continue
		}
		switch child.Kind() {
		case "rule_set":
			sheet.Nodes = append(sheet.Nodes, buildRule(child, source))
			rules++
		case "media_statement":
			sheet.Nodes = append(sheet.Nodes, buildMediaRule(child, source))
			rules++
		case "comment":
			sheet.Nodes = append(sheet.Nodes, &Comment{
				Text:     text(child, source),
				Position: positionOf(child),
			})
		}
	}

	if root.HasError() && rules == 0 {
		if bad := firstError(root); bad != nil {
			pos := bad.StartPosition()
			return nil, fmt.Errorf("%w at %d:%d", ErrSyntax, pos.Row+1, pos.Column+1)
		}
		return nil, ErrSyntax
	}
	return sheet, nil
}

func broken(node *sitter.Node) bool {
	return node.HasError() || node.IsMissing()
}

func intactRule(node *sitter.Node) bool {
	kind := node.Kind()
	return (kind == "rule_set" || kind == "media_statement") && !broken(node)
}

func buildRule(node *sitter.Node, source []byte) *Rule {
	rule := &Rule{Position: positionOf(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "selectors":
			rule.Selectors = selectorList(child, source)
		case "block":
			rule.Items = blockItems(child, source)
		}
	}
	return rule
}

func buildMediaRule(node *sitter.Node, source []byte) *MediaRule {
	media := &MediaRule{Position: positionOf(node)}

	queryStart := node.StartByte() + uint(len("@media"))
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "block" {
			continue
		}
		if child.StartByte() > queryStart {
			media.Query = strings.TrimSpace(string(source[queryStart:child.StartByte()]))
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			if inner := child.Child(j); inner.Kind() == "rule_set" {
				media.Rules = append(media.Rules, buildRule(inner, source))
			}
		}
	}
	return media
}

func selectorList(node *sitter.Node, source []byte) []string {
	selectors := make([]string, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		selectors = append(selectors, strings.TrimSpace(text(child, source)))
	}
	return selectors
}

func blockItems(block *sitter.Node, source []byte) []BlockItem {
	var items []BlockItem
	for i := uint(0); i < block.ChildCount(); i++ {
		child := block.Child(i)
		switch child.Kind() {
		case "{", "}":
			continue
		case "declaration":
			items = append(items, buildDeclaration(child, source))
		default:
			items = append(items, &Other{Kind: child.Kind(), Position: positionOf(child)})
		}
	}
	return items
}

// buildDeclaration slices the value straight from source so that
// whitespace and line breaks inside it survive.
func buildDeclaration(node *sitter.Node, source []byte) *Declaration {
	decl := &Declaration{Position: positionOf(node)}

	valueStart, valueEnd := -1, int(node.EndByte())
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "property_name":
			decl.Property = text(child, source)
			decl.PropertyOffset = int(child.StartByte())
		case ":":
			if valueStart < 0 {
				valueStart = int(child.EndByte())
			}
		case ";":
			valueEnd = int(child.StartByte())
		}
	}
	if valueStart < 0 || valueStart > valueEnd {
		return decl
	}

	raw := string(source[valueStart:valueEnd])
	trimmed := strings.TrimLeft(raw, " \t\r\n\f")
	decl.ValueOffset = valueStart + len(raw) - len(trimmed)
	decl.Value = strings.TrimRight(trimmed, " \t\r\n\f")
	return decl
}

func positionOf(node *sitter.Node) Position {
	pos := node.StartPosition()
	return Position{
		Offset: int(node.StartByte()),
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
}

func text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}
