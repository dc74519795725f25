package parser

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/cpls/internal/parser/css"
	"bennypowers.dev/cpls/internal/parser/html"
	"bennypowers.dev/cpls/internal/parser/js"
)

// Format is the kind of document a file holds, which decides how its CSS
// is found.
type Format int

const (
	// FormatCSS is a plain stylesheet; any other extension is read as CSS too
	FormatCSS Format = iota
	// FormatHTML carries CSS in <style> elements and style attributes
	FormatHTML
	// FormatScript carries CSS in css`` and html`` tagged templates
	FormatScript
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatScript:
		return "script"
	}
	return "css"
}

// scriptDialects maps script extensions to the grammar that parses them.
var scriptDialects = map[string]js.Dialect{
	".js":  js.JavaScript,
	".mjs": js.JavaScript,
	".cjs": js.JavaScript,
	".jsx": js.JavaScript,
	".ts":  js.TypeScript,
	".mts": js.TypeScript,
	".cts": js.TypeScript,
	".tsx": js.TSX,
}

// FormatForPath picks the document format from the file extension.
// The dialect is only meaningful for FormatScript.
func FormatForPath(path string) (Format, js.Dialect) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".html", ".htm":
		return FormatHTML, js.JavaScript
	}
	if dialect, ok := scriptDialects[ext]; ok {
		return FormatScript, dialect
	}
	return FormatCSS, js.JavaScript
}

// ParseStylesheets extracts the stylesheets of a file, dispatching on its
// extension. Offsets in every stylesheet are absolute in source.
//
// A plain stylesheet keeps every rule that survives error recovery, and
// yields an error wrapping css.ErrSyntax only when none does. HTML and
// script files return whatever regions parsed, alongside a joined error
// describing the ones that did not.
func ParseStylesheets(path string, source []byte) ([]*css.Stylesheet, error) {
	format, dialect := FormatForPath(path)
	switch format {
	case FormatHTML:
		p := html.AcquireParser()
		defer html.ReleaseParser(p)
		return p.ParseStylesheets(source)

	case FormatScript:
		p := js.AcquireParser(dialect)
		defer js.ReleaseParser(p)
		return p.ParseStylesheets(source)

	default:
		p := css.AcquireParser()
		defer css.ReleaseParser(p)
		sheet, err := p.Parse(source)
		if err != nil {
			return nil, err
		}
		return []*css.Stylesheet{sheet}, nil
	}
}

// ClosePools releases every pooled tree-sitter parser
func ClosePools() {
	css.ClosePool()
	html.ClosePool()
	js.ClosePool()
}
