package parser_test

import (
	"testing"

	"bennypowers.dev/cpls/internal/parser"
	"bennypowers.dev/cpls/internal/parser/css"
	"bennypowers.dev/cpls/internal/parser/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path        string
		wantFormat  parser.Format
		wantDialect js.Dialect
	}{
		{"/ws/tokens.css", parser.FormatCSS, js.JavaScript},
		{"/ws/theme.scss", parser.FormatCSS, js.JavaScript},
		{"/ws/no-extension", parser.FormatCSS, js.JavaScript},
		{"/ws/index.html", parser.FormatHTML, js.JavaScript},
		{"/ws/INDEX.HTM", parser.FormatHTML, js.JavaScript},
		{"/ws/card.js", parser.FormatScript, js.JavaScript},
		{"/ws/card.mjs", parser.FormatScript, js.JavaScript},
		{"/ws/card.jsx", parser.FormatScript, js.JavaScript},
		{"/ws/card.ts", parser.FormatScript, js.TypeScript},
		{"/ws/card.tsx", parser.FormatScript, js.TSX},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, dialect := parser.FormatForPath(tt.path)
			assert.Equal(t, tt.wantFormat, format)
			if format == parser.FormatScript {
				assert.Equal(t, tt.wantDialect, dialect)
			}
		})
	}
}

func TestParseStylesheetsCSS(t *testing.T) {
	sheets, err := parser.ParseStylesheets("/ws/a.css", []byte(`.button { color: var(--color-primary); }`))
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	require.Len(t, sheets[0].Nodes, 1)
}

func TestParseStylesheetsCSSSyntaxError(t *testing.T) {
	sheets, err := parser.ParseStylesheets("/ws/a.css", []byte(`.button { color: `))
	assert.ErrorIs(t, err, css.ErrSyntax)
	assert.Nil(t, sheets)
}

func TestParseStylesheetsHTML(t *testing.T) {
	sheets, err := parser.ParseStylesheets("/ws/a.html", []byte(`<style>:root { --x: 1px; }</style>`))
	require.NoError(t, err)
	assert.Len(t, sheets, 1)
}

func TestParseStylesheetsScript(t *testing.T) {
	sheets, err := parser.ParseStylesheets("/ws/a.ts", []byte("export const s = css`:host { --x: 1px; }`;"))
	require.NoError(t, err)
	assert.Len(t, sheets, 1)
}
