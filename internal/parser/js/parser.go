package js

import (
	"errors"
	"fmt"
	"sync"

	"bennypowers.dev/cpls/internal/parser/css"
	htmlparser "bennypowers.dev/cpls/internal/parser/html"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Parser handles parsing JS/TS to extract CSS from tagged template literals
type Parser struct {
	dialect       Dialect
	parser        *sitter.Parser
	templateQuery *sitter.Query
	genericQuery  *sitter.Query // matches css<Type>`...` (generic form parsed as binary_expression)
}

var languages = map[Dialect]*sitter.Language{
	JavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
	TypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	TSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
}

// pools holds one pool of reusable parsers per dialect
var pools = map[Dialect]*sync.Pool{
	JavaScript: newPool(JavaScript),
	TypeScript: newPool(TypeScript),
	TSX:        newPool(TSX),
}

func newPool(dialect Dialect) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			lang := languages[dialect]
			parser := sitter.NewParser()
			if err := parser.SetLanguage(lang); err != nil {
				panic(fmt.Sprintf("failed to set %s language: %v", dialect, err))
			}

			templateQuery, qerr := sitter.NewQuery(lang, `
				(call_expression
					function: (identifier) @tag
					arguments: (template_string) @template)
			`)
			if qerr != nil {
				panic(fmt.Sprintf("failed to compile template query: %v", qerr))
			}

			// Generic form: css<Type>`...` is valid TypeScript (since TS 2.9) but
			// both grammars misparse it as binary expressions instead of a
			// call_expression with type_arguments.
			// See: https://github.com/tree-sitter/tree-sitter-typescript/issues/341
			genericQuery, qerr := sitter.NewQuery(lang, `
				(binary_expression
					left: (binary_expression
						left: (identifier) @tag)
					right: (template_string) @template)
			`)
			if qerr != nil {
				panic(fmt.Sprintf("failed to compile generic query: %v", qerr))
			}

			return &Parser{
				dialect:       dialect,
				parser:        parser,
				templateQuery: templateQuery,
				genericQuery:  genericQuery,
			}
		},
	}
}

// AcquireParser gets a parser for the dialect from the pool
func AcquireParser(dialect Dialect) *Parser {
	pool, ok := pools[dialect]
	if !ok {
		pool = pools[JavaScript]
	}
	p := pool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to its pool
func ReleaseParser(p *Parser) {
	if p != nil {
		pools[p.dialect].Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
	if p.templateQuery != nil {
		p.templateQuery.Close()
	}
	if p.genericQuery != nil {
		p.genericQuery.Close()
	}
}

// ClosePool closes all pooled parsers of every dialect
func ClosePool() {
	for _, pool := range pools {
		for range 100 {
			if p, ok := pool.Get().(*Parser); ok && p != nil {
				p.Close()
			}
		}
	}
}

// ParseTemplates finds css/html tagged template literals.
// Handles both standard form (css`...`) and generic form (css<Type>`...`).
func (p *Parser) ParseTemplates(source []byte) []TemplateRegion {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	var regions []TemplateRegion
	for _, query := range []*sitter.Query{p.templateQuery, p.genericQuery} {
		regions = p.runTemplateQuery(query, root, source, regions)
	}
	return regions
}

func (p *Parser) runTemplateQuery(query *sitter.Query, root *sitter.Node, source []byte, regions []TemplateRegion) []TemplateRegion {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, root, source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var tagName string
		var templateNode sitter.Node
		foundTemplate := false

		for _, capture := range match.Captures {
			switch query.CaptureNames()[capture.Index] {
			case "tag":
				tagName = string(source[capture.Node.StartByte():capture.Node.EndByte()])
			case "template":
				templateNode = capture.Node
				foundTemplate = true
			}
		}

		if !foundTemplate || (tagName != "css" && tagName != "html") {
			continue
		}
		regions = append(regions, templateRegion(tagName, &templateNode))
	}
	return regions
}

// templateRegion records the body of a template_string node together with
// its literal fragments and ${...} substitutions
func templateRegion(tag string, node *sitter.Node) TemplateRegion {
	region := TemplateRegion{
		Tag:    tag,
		Body:   css.Span{Start: int(node.StartByte()) + 1, End: int(node.EndByte()) - 1},
		Line:   node.StartPosition().Row,
		Column: node.StartPosition().Column,
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		span := css.Span{Start: int(child.StartByte()), End: int(child.EndByte())}
		switch child.Kind() {
		case "string_fragment":
			region.Segments = append(region.Segments, span)
		case "template_substitution":
			region.Substitutions = append(region.Substitutions, span)
		}
	}
	return region
}

// ParseStylesheets parses the CSS of every css`` template, and of every
// <style> element or style attribute inside html`` templates. Offsets in
// the returned stylesheets are absolute in source. Templates that fail to
// parse are reported through the joined error; the others are returned.
func (p *Parser) ParseStylesheets(source []byte) ([]*css.Stylesheet, error) {
	templates := p.ParseTemplates(source)
	if len(templates) == 0 {
		return nil, nil
	}

	cssParser := css.AcquireParser()
	defer css.ReleaseParser(cssParser)

	var sheets []*css.Stylesheet
	var errs []error
	for _, tmpl := range templates {
		masked := maskTemplate(source, tmpl)
		switch tmpl.Tag {
		case "css":
			sheet, err := cssParser.Parse(masked)
			if err != nil {
				errs = append(errs, fmt.Errorf("css template at %d:%d: %w", tmpl.Line+1, tmpl.Column+1, err))
				continue
			}
			sheets = append(sheets, sheet)
		case "html":
			htmlParser := htmlparser.AcquireParser()
			found, err := htmlParser.ParseStylesheets(masked)
			htmlparser.ReleaseParser(htmlParser)
			if err != nil {
				errs = append(errs, fmt.Errorf("html template at %d:%d: %w", tmpl.Line+1, tmpl.Column+1, err))
			}
			sheets = append(sheets, found...)
		}
	}
	return sheets, errors.Join(errs...)
}

// maskTemplate blanks everything but the template body, then fills each
// ${...} with identifier characters so that an interpolated value still
// reads as a single CSS token.
func maskTemplate(source []byte, tmpl TemplateRegion) []byte {
	masked := css.Blank(source, tmpl.Body)
	for _, sub := range tmpl.Substitutions {
		for i := sub.Start; i < sub.End && i < len(masked); i++ {
			if masked[i] != '\n' && masked[i] != '\r' {
				masked[i] = 'x'
			}
		}
	}
	return masked
}
