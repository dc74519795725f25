package workspace

import (
	"context"
	"testing"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/lsp/testutil"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func indexedServer(t *testing.T, files map[string]string) *testutil.MockServerContext {
	t.Helper()
	ctx := testutil.NewMockServerContext()
	for path, content := range files {
		require.NoError(t, ctx.WriteFile(path, content))
	}
	cfg := config.Default()
	cfg.Files = []string{"**/*.css"}
	ctx.SetConfig(cfg)
	require.NoError(t, ctx.IndexWorkspace(context.Background()))
	return ctx
}

func TestDidChangeWatchedFiles(t *testing.T) {
	ctx := indexedServer(t, map[string]string{
		"/ws/tokens.css": `:root { --a: 1px; }`,
	})

	require.NoError(t, ctx.WriteFile("/ws/tokens.css", `:root { --b: 1px; }`))
	require.NoError(t, ctx.WriteFile("/ws/new.css", `:root { --c: 1px; }`))

	params := &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: "file:///ws/tokens.css", Type: protocol.FileChangeTypeChanged},
			{URI: "file:///ws/new.css", Type: protocol.FileChangeTypeCreated},
		},
	}
	require.NoError(t, DidChangeWatchedFiles(types.NewRequestContext(ctx, nil), params))

	ws := ctx.Workspace()
	assert.Empty(t, ws.FindDefinitions("--a"))
	assert.Len(t, ws.FindDefinitions("--b"), 1)
	assert.Len(t, ws.FindDefinitions("--c"), 1)
	assert.Len(t, ws.SuggestCompletions(), 2)
}

func TestDidChangeWatchedFiles_Deleted(t *testing.T) {
	ctx := indexedServer(t, map[string]string{
		"/ws/tokens.css": `:root { --a: 1px; }`,
	})
	require.NoError(t, ctx.FS().Remove("/ws/tokens.css"))

	req := types.NewRequestContext(ctx, nil)
	err := DidChangeWatchedFiles(req, &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{{URI: "file:///ws/tokens.css", Type: protocol.FileChangeTypeDeleted}},
	})
	require.NoError(t, err)
	assert.Empty(t, ctx.Workspace().SuggestCompletions())
	assert.False(t, req.HasWarnings())
}

func TestDidChangeWatchedFiles_BrokenFileWarns(t *testing.T) {
	ctx := indexedServer(t, map[string]string{
		"/ws/tokens.css": `:root { --a: 1px; }`,
	})
	require.NoError(t, ctx.WriteFile("/ws/tokens.css", `:root { --a: `))

	req := types.NewRequestContext(ctx, nil)
	err := DidChangeWatchedFiles(req, &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{{URI: "file:///ws/tokens.css", Type: protocol.FileChangeTypeChanged}},
	})
	require.NoError(t, err)
	assert.True(t, req.HasWarnings())
	assert.Empty(t, ctx.Workspace().FindDefinitions("--a"))
}

func TestDidChangeWatchedFiles_UnknownType(t *testing.T) {
	ctx := indexedServer(t, nil)
	err := DidChangeWatchedFiles(types.NewRequestContext(ctx, nil), &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{{URI: "file:///ws/a.css", Type: 99}},
	})
	assert.NoError(t, err)
}
