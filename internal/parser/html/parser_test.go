package html_test

import (
	"strings"
	"testing"

	"bennypowers.dev/cpls/internal/parser/css"
	"bennypowers.dev/cpls/internal/parser/html"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!doctype html>
<html>
<head>
  <style>
    :root { --brand: #f60; }
  </style>
</head>
<body>
  <p style="color: var(--brand)">hi</p>
  <div style="--gap: 4px">x</div>
</body>
</html>
`

func TestParseCSSRegions(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantTags int
		wantAttr int
	}{
		{"style tag and attributes", page, 1, 2},
		{"multiple style tags", "<style>a{}</style><style>b{}</style>", 2, 0},
		{"non-style attributes are ignored", `<p class="x" title="color: red">x</p>`, 0, 0},
		{"no CSS", "<p>plain</p>", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := html.AcquireParser()
			defer html.ReleaseParser(parser)

			regions := parser.ParseCSSRegions([]byte(tt.source))

			tags, attrs := 0, 0
			for _, r := range regions {
				switch r.Type {
				case html.StyleTag:
					tags++
				case html.StyleAttribute:
					attrs++
				}
			}
			assert.Equal(t, tt.wantTags, tags, "style tag count")
			assert.Equal(t, tt.wantAttr, attrs, "style attribute count")
		})
	}
}

func TestParseStylesheets(t *testing.T) {
	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)

	sheets, err := parser.ParseStylesheets([]byte(page))
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	var decls []*css.Declaration
	for _, sheet := range sheets {
		for _, node := range sheet.Nodes {
			rule, ok := node.(*css.Rule)
			require.True(t, ok)
			for _, item := range rule.Items {
				if d, ok := item.(*css.Declaration); ok {
					decls = append(decls, d)
				}
			}
		}
	}
	require.Len(t, decls, 3)

	byProperty := map[string]*css.Declaration{}
	for _, d := range decls {
		byProperty[d.Property] = d
	}

	brand := byProperty["--brand"]
	require.NotNil(t, brand)
	assert.Equal(t, "#f60", brand.Value)
	assert.Equal(t, strings.Index(page, "--brand"), brand.PropertyOffset)
	assert.Equal(t, 5, brand.Position.Line)

	color := byProperty["color"]
	require.NotNil(t, color)
	assert.Equal(t, "var(--brand)", color.Value)
	assert.Equal(t, strings.Index(page, "var(--brand)"), color.ValueOffset)

	gap := byProperty["--gap"]
	require.NotNil(t, gap)
	assert.Equal(t, "4px", gap.Value)
}

func TestStyleAttributeRulesHaveNoSelectors(t *testing.T) {
	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)

	sheets, err := parser.ParseStylesheets([]byte(`<p style="--x: 1px">x</p>`))
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	require.Len(t, sheets[0].Nodes, 1)

	rule := sheets[0].Nodes[0].(*css.Rule)
	assert.Empty(t, rule.Selectors)
}

func TestBrokenRegionIsSkipped(t *testing.T) {
	source := `<style>.a { --ok: 1px; }</style>
<style>.b { --bad: 1px; </style>`

	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)

	sheets, err := parser.ParseStylesheets([]byte(source))
	require.Error(t, err)
	assert.ErrorIs(t, err, css.ErrSyntax)
	require.Len(t, sheets, 1, "the well-formed style element still parses")
}

func TestParseStylesheetsNoCSS(t *testing.T) {
	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)

	sheets, err := parser.ParseStylesheets([]byte("<p>plain</p>"))
	require.NoError(t, err)
	assert.Empty(t, sheets)
}
