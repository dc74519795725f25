package html

import (
	"errors"
	"fmt"
	"sync"

	"bennypowers.dev/cpls/internal/parser/css"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
)

// Parser handles parsing HTML to extract CSS regions
type Parser struct {
	parser     *sitter.Parser
	styleQuery *sitter.Query
	attrQuery  *sitter.Query
}

var htmlLang = sitter.NewLanguage(tree_sitter_html.Language())

// parserPool is a pool of reusable HTML parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(htmlLang); err != nil {
			panic(fmt.Sprintf("failed to set HTML language: %v", err))
		}

		styleQuery, qerr := sitter.NewQuery(htmlLang, `(style_element (raw_text) @css)`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile style query: %v", qerr))
		}

		attrQuery, qerr := sitter.NewQuery(htmlLang, `
			(attribute
				(attribute_name) @attr_name
				(quoted_attribute_value (attribute_value) @attr_value)
				(#eq? @attr_name "style"))
		`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile attribute query: %v", qerr))
		}

		return &Parser{
			parser:     parser,
			styleQuery: styleQuery,
			attrQuery:  attrQuery,
		}
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
	if p.styleQuery != nil {
		p.styleQuery.Close()
	}
	if p.attrQuery != nil {
		p.attrQuery.Close()
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

// ParseCSSRegions finds <style> element bodies and style="..." attribute
// values in source, in document order per kind.
func (p *Parser) ParseCSSRegions(source []byte) []CSSRegion {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	regions := p.collect(p.styleQuery, "css", StyleTag, root, source, nil)
	return p.collect(p.attrQuery, "attr_value", StyleAttribute, root, source, regions)
}

func (p *Parser) collect(query *sitter.Query, capture string, kind RegionType, root *sitter.Node, source []byte, regions []CSSRegion) []CSSRegion {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, root, source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, c := range match.Captures {
			if query.CaptureNames()[c.Index] != capture {
				continue
			}
			node := c.Node
			regions = append(regions, CSSRegion{
				Span:   css.Span{Start: int(node.StartByte()), End: int(node.EndByte())},
				Line:   node.StartPosition().Row,
				Column: node.StartPosition().Column,
				Type:   kind,
			})
		}
	}
	return regions
}

// ParseStylesheets parses every CSS region of an HTML document. Offsets in
// the returned stylesheets are absolute in source. Regions that fail to
// parse are left out and reported through the joined error; the others are
// still returned.
func (p *Parser) ParseStylesheets(source []byte) ([]*css.Stylesheet, error) {
	regions := p.ParseCSSRegions(source)
	if len(regions) == 0 {
		return nil, nil
	}

	cssParser := css.AcquireParser()
	defer css.ReleaseParser(cssParser)

	var sheets []*css.Stylesheet
	var errs []error
	for _, region := range regions {
		sheet, err := parseRegion(cssParser, source, region)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s at %d:%d: %w", region.Type, region.Line+1, region.Column+1, err))
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets, errors.Join(errs...)
}

func parseRegion(cssParser *css.Parser, source []byte, region CSSRegion) (*css.Stylesheet, error) {
	masked := css.Blank(source, region.Span)
	if region.Type != StyleAttribute {
		return cssParser.Parse(masked)
	}

	// A style attribute holds bare declarations. Turn the surrounding
	// `="` and `"` into `x{` and `}` so the value reads as a rule without
	// moving any offsets.
	open, end := region.Span.Start-1, region.Span.End
	if open < 1 || end >= len(masked) || masked[open-1] == '\n' {
		return nil, fmt.Errorf("%w: no room to wrap style attribute", css.ErrSyntax)
	}
	masked[open-1], masked[open], masked[end] = 'x', '{', '}'

	sheet, err := cssParser.Parse(masked)
	if err != nil {
		return nil, err
	}
	for _, node := range sheet.Nodes {
		if rule, ok := node.(*css.Rule); ok {
			rule.Selectors = nil
		}
	}
	return sheet, nil
}
