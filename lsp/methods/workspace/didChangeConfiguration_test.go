package workspace

import (
	"errors"
	"testing"

	"bennypowers.dev/cpls/lsp/testutil"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDidChangeConfiguration(t *testing.T) {
	t.Run("new file patterns re-index and re-register watchers", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		require.NoError(t, ctx.WriteFile("/ws/theme.css", `:root { --a: red; }`))

		err := DidChangeConfiguration(types.NewRequestContext(ctx, nil), &protocol.DidChangeConfigurationParams{
			Settings: map[string]any{
				"cssCustomProperties": map[string]any{
					"files":     []any{"*.css"},
					"languages": []any{"css"},
				},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"*.css"}, ctx.Config().Files)
		assert.Equal(t, []string{"css"}, ctx.Config().Languages)
		assert.Equal(t, 1, ctx.IndexCalled)
		assert.True(t, ctx.RegisterWatchersCalled)
		assert.Len(t, ctx.Workspace().FindDefinitions("--a"), 1)
	})

	t.Run("unchanged patterns do not re-index", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()

		err := DidChangeConfiguration(types.NewRequestContext(ctx, nil), &protocol.DidChangeConfigurationParams{
			Settings: map[string]any{
				"cssCustomProperties": map[string]any{"languages": []any{"html"}},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"html"}, ctx.Config().Languages)
		assert.Zero(t, ctx.IndexCalled)
		assert.False(t, ctx.RegisterWatchersCalled)
	})

	t.Run("other sections are ignored", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()

		err := DidChangeConfiguration(types.NewRequestContext(ctx, nil), &protocol.DidChangeConfigurationParams{
			Settings: map[string]any{"editor": map[string]any{"tabSize": 2}},
		})
		require.NoError(t, err)
		assert.True(t, ctx.LoadConfigCalled)
		assert.Nil(t, ctx.Settings())
	})

	t.Run("malformed section is an error", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()

		err := DidChangeConfiguration(types.NewRequestContext(ctx, nil), &protocol.DidChangeConfigurationParams{
			Settings: map[string]any{"cssCustomProperties": "files"},
		})
		assert.Error(t, err)
	})

	t.Run("load errors become warnings", func(t *testing.T) {
		ctx := testutil.NewMockServerContext()
		ctx.LoadConfigFunc = func() (bool, error) {
			return false, errors.New("package.json: unexpected end of input")
		}

		req := types.NewRequestContext(ctx, nil)
		err := DidChangeConfiguration(req, &protocol.DidChangeConfigurationParams{Settings: nil})
		require.NoError(t, err)
		assert.True(t, req.HasWarnings())
	})
}
