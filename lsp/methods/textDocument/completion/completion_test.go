package completion

import (
	"context"
	"testing"

	"bennypowers.dev/cpls/internal/completion"
	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/lsp/testutil"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const sourceA = `:root { --brand: red; --space: 4px; }`

func setup(t *testing.T, languages ...string) *testutil.MockServerContext {
	t.Helper()
	ctx := testutil.NewMockServerContext()
	require.NoError(t, ctx.WriteFile("/ws/a.css", sourceA))
	require.NoError(t, ctx.WriteFile("/ws/b.css", `.x { --brand: blue; }`))
	ctx.SetConfig(config.Config{Files: []string{"*.css"}, Languages: languages, LogLevel: "info"})
	require.NoError(t, ctx.IndexWorkspace(context.Background()))
	ctx.DocumentManager().DidOpen("file:///ws/a.css", "css", 1, sourceA)
	return ctx
}

func request(uri string) *protocol.CompletionParams {
	return &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 10},
		},
	}
}

func TestCompletion(t *testing.T) {
	ctx := setup(t, "css")

	result, err := Completion(types.NewRequestContext(ctx, nil), request("file:///ws/a.css"))
	require.NoError(t, err)
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)
	require.Len(t, items, 2)

	brand := items[0]
	assert.Equal(t, "--brand", brand.Label)
	require.NotNil(t, brand.Kind)
	assert.Equal(t, protocol.CompletionItemKindColor, *brand.Kind)
	require.NotNil(t, brand.InsertText)
	assert.Equal(t, "--brand", *brand.InsertText)
	doc, ok := brand.Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Equal(t, protocol.MarkupKindMarkdown, doc.Kind)
	assert.Equal(t, "**2** definitions in **2** files\n\nblue, red", doc.Value)

	space := items[1]
	assert.Equal(t, "--space", space.Label)
	require.NotNil(t, space.Kind)
	assert.Equal(t, protocol.CompletionItemKindVariable, *space.Kind)
}

func TestCompletionDisabledLanguage(t *testing.T) {
	ctx := setup(t, "scss")

	result, err := Completion(types.NewRequestContext(ctx, nil), request("file:///ws/a.css"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCompletionClosedDocument(t *testing.T) {
	ctx := setup(t, "css")

	result, err := Completion(types.NewRequestContext(ctx, nil), request("file:///ws/b.css"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestItemDetail(t *testing.T) {
	item := Item(completion.Entry{Label: "--x", Kind: completion.Color, Detail: "red"})
	require.NotNil(t, item.Detail)
	assert.Equal(t, "red", *item.Detail)

	item = Item(completion.Entry{Label: "--y"})
	assert.Nil(t, item.Detail)
}
