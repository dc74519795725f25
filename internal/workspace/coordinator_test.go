package workspace_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"bennypowers.dev/cpls/internal/completion"
	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T, files map[string]string) (afero.Fs, *workspace.Coordinator) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs, workspace.New(fs, "/ws", workspace.WithConcurrency(4))
}

func labels(entries []completion.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

func TestBootstrapFindsDefinition(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `.x { --color: blue; }`,
	})
	assert.Equal(t, workspace.Uninitialized, c.State())

	require.NoError(t, c.Bootstrap(context.Background(), []string{"**/*.css"}))
	assert.Equal(t, workspace.Ready, c.State())

	defs := c.FindDefinitions("--color")
	require.Len(t, defs, 1)
	assert.Equal(t, "/ws/a.css", defs[0].Path)
	assert.Equal(t, "a.css", defs[0].Occurrence.File)
	assert.Equal(t, []string{".x"}, defs[0].Occurrence.Selectors)
	assert.Equal(t, "", defs[0].Occurrence.Media)
}

func TestBootstrapFindsReference(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `.x { color: var(--color); }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"*.css"}))

	refs := c.FindReferences("--color")
	require.Len(t, refs, 1)
	assert.Equal(t, index.Range{
		Start: index.Position{Line: 0, Character: 16},
		End:   index.Position{Line: 0, Character: 23},
	}, refs[0].Occurrence.Range)
}

func TestDeleteEventRemovesEverything(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `.x { --color: blue; }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"**/*.css"}))
	require.Equal(t, []string{"--color"}, labels(c.SuggestCompletions()))

	require.NoError(t, fs.Remove("/ws/a.css"))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Deleted, Path: "/ws/a.css"}))

	assert.Empty(t, c.FindDefinitions("--color"))
	assert.Empty(t, c.SuggestCompletions())
	assert.Empty(t, c.Store().Paths())
}

func TestDeleteEventLogsEvictedNames(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(log.LevelDebug)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.LevelInfo)
	})

	fs, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `.x { --gap: 4px; color: var(--fg); }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"*.css"}))

	require.NoError(t, fs.Remove("/ws/a.css"))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Deleted, Path: "/ws/a.css"}))
	assert.Contains(t, buf.String(), "Evicted /ws/a.css: --fg, --gap")
}

func TestCompletionAcrossFiles(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --color: red; }`,
		"/ws/b.css": `:root { --color: blue; }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"**/*.css"}))

	entries := c.SuggestCompletions()
	require.Len(t, entries, 1)
	assert.Equal(t, "**2** definitions in **2** files\n\nblue, red", entries[0].Documentation)
	assert.Equal(t, completion.Color, entries[0].Kind)
}

func TestReferencesIncludeDefinitions(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/tokens.css": `:root { --gap: 4px; --gap-lg: calc(var(--gap) * 2); }`,
		"/ws/card.css":   `.card { padding: var(--gap); }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"**/*.css"}))

	refs := c.FindReferences("--gap")
	defs := c.FindDefinitions("--gap")
	require.Len(t, defs, 1)
	require.Len(t, refs, 3)
	assert.Subset(t, refs, defs)
	assert.Equal(t, defs[0], refs[len(refs)-1], "definitions follow usages")
	assert.Len(t, c.FindUsages("--gap"), 2)
}

func TestCompletionExistsIffDefined(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `.x { --a: 1px; color: var(--b); }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"**/*.css"}))

	check := func() {
		t.Helper()
		for _, name := range c.Store().Names() {
			_, has := lookup(c.SuggestCompletions(), name)
			assert.Equal(t, c.Store().Definitions(name) != nil, has, name)
		}
	}
	check()
	_, ok := lookup(c.SuggestCompletions(), "--b")
	assert.False(t, ok, "names that are only used are not suggested")

	require.NoError(t, afero.WriteFile(fs, "/ws/b.css", []byte(`:root { --b: red; }`), 0o644))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Created, Path: "/ws/b.css"}))
	check()
	_, ok = lookup(c.SuggestCompletions(), "--b")
	assert.True(t, ok)

	require.NoError(t, afero.WriteFile(fs, "/ws/a.css", []byte(`.x { color: var(--b); }`), 0o644))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: "/ws/a.css"}))
	check()
	_, ok = lookup(c.SuggestCompletions(), "--a")
	assert.False(t, ok)
}

func lookup(entries []completion.Entry, label string) (completion.Entry, bool) {
	for _, e := range entries {
		if e.Label == label {
			return e, true
		}
	}
	return completion.Entry{}, false
}

func TestReprocessingIsIdempotent(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": ".x {\n  --a: var(--b)\n    var(--c);\n}\n@media print { .y { --d: 0; } }",
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"**/*.css"}))

	snapshot := func() map[string][2]index.ValueLocations {
		out := map[string][2]index.ValueLocations{}
		for _, name := range c.Store().Names() {
			out[name] = [2]index.ValueLocations{c.Store().Definitions(name), c.Store().References(name)}
		}
		return out
	}
	before := snapshot()
	beforeCompletions := c.SuggestCompletions()

	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: "/ws/a.css"}))

	assert.Equal(t, before, snapshot())
	assert.Equal(t, beforeCompletions, c.SuggestCompletions())
}

func TestEventsOutsidePatternsAreIgnored(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/src/a.css": `:root { --a: 1px; }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"src/**/*.css"}))

	require.NoError(t, afero.WriteFile(fs, "/ws/vendor/b.css", []byte(`:root { --b: 1px; }`), 0o644))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Created, Path: "/ws/vendor/b.css"}))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Created, Path: "/elsewhere/c.css"}))

	assert.Empty(t, c.FindDefinitions("--b"))
	assert.Equal(t, []string{"/ws/src/a.css"}, c.Store().Paths())
}

func TestMatches(t *testing.T) {
	_, c := newWorkspace(t, nil)
	require.NoError(t, c.Bootstrap(context.Background(), []string{"src/**/*.css", "./theme.css", "/abs/**/*.css"}))

	assert.True(t, c.Matches("/ws/src/a.css"))
	assert.True(t, c.Matches("/ws/src/deep/b.css"))
	assert.True(t, c.Matches("/ws/theme.css"))
	assert.True(t, c.Matches("/abs/x/y.css"))
	assert.False(t, c.Matches("/ws/other.css"))
	assert.False(t, c.Matches("/ws/src/a.scss"))
	assert.False(t, c.Matches("/elsewhere/src/a.css"))
}

func TestBrokenFileContributesNothing(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/good.css": `:root { --ok: 1px; }`,
		"/ws/bad.css":  `:root { --bad: 1px; `,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"*.css"}))

	assert.NotEmpty(t, c.FindDefinitions("--ok"))
	assert.Empty(t, c.FindDefinitions("--bad"))

	// a file that breaks after being indexed loses its old entries
	require.NoError(t, afero.WriteFile(fs, "/ws/good.css", []byte(`:root { --ok: `), 0o644))
	err := c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: "/ws/good.css"})
	assert.Error(t, err)
	assert.Empty(t, c.FindDefinitions("--ok"))
}

func TestChangedEventForMissingFileEvicts(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"*.css"}))

	require.NoError(t, fs.Remove("/ws/a.css"))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: "/ws/a.css"}))
	assert.Empty(t, c.FindDefinitions("--a"))
}

func TestReconfigure(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css":       `:root { --a: 1px; }`,
		"/ws/theme/b.css": `:root { --b: 1px; }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"a.css"}))
	assert.Equal(t, []string{"--a"}, labels(c.SuggestCompletions()))

	require.NoError(t, c.Reconfigure(ctx, []string{"theme/*.css"}))
	assert.Equal(t, []string{"--b"}, labels(c.SuggestCompletions()))
	assert.Equal(t, []string{"theme/*.css"}, c.Patterns())
}

func TestNoPatternsMeansNoFiles(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), nil))
	assert.Empty(t, c.SuggestCompletions())
	assert.Equal(t, workspace.Ready, c.State())
}

func TestInvalidPatternIsSkipped(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"[", "*.css"}))
	assert.Len(t, c.SuggestCompletions(), 1)
}

func TestBootstrapCancelled(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Bootstrap(ctx, []string{"*.css"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, workspace.Uninitialized, c.State())
}

func TestFailedReconfigureLeavesUninitialized(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"*.css"}))
	require.Equal(t, workspace.Ready, c.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, c.Reconfigure(ctx, []string{"*.css"}))

	assert.Equal(t, workspace.Uninitialized, c.State())
	assert.Empty(t, c.Store().Paths())
	assert.Empty(t, c.SuggestCompletions())

	require.NoError(t, c.Bootstrap(context.Background(), []string{"*.css"}))
	assert.Equal(t, workspace.Ready, c.State())
	assert.Len(t, c.SuggestCompletions(), 1)
}

func TestConcurrentEventsOnOnePath(t *testing.T) {
	fs, c := newWorkspace(t, map[string]string{
		"/ws/a.css": `:root { --a: 1px; }`,
	})
	ctx := context.Background()
	require.NoError(t, c.Bootstrap(ctx, []string{"*.css"}))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: "/ws/a.css"})
			_ = c.HandleEvent(ctx, workspace.Event{Kind: workspace.Changed, Path: fmt.Sprintf("/ws/n%d.css", i)})
		}()
	}
	wg.Wait()

	// the last event decides the final state of a path
	require.NoError(t, fs.Remove("/ws/a.css"))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Deleted, Path: "/ws/a.css"}))
	require.NoError(t, afero.WriteFile(fs, "/ws/a.css", []byte(`:root { --a: 2px; }`), 0o644))
	require.NoError(t, c.HandleEvent(ctx, workspace.Event{Kind: workspace.Created, Path: "/ws/a.css"}))

	defs := c.Store().Definitions("--a")
	assert.Equal(t, []string{"2px"}, defs.Values())
	assert.Len(t, defs.Locations(), 1)
}

func TestEmbeddedStylesheets(t *testing.T) {
	_, c := newWorkspace(t, map[string]string{
		"/ws/index.html": `<style>:root { --brand: #f60; }</style>`,
		"/ws/card.ts":    "export const styles = css`.card { color: var(--brand); }`;",
	})
	require.NoError(t, c.Bootstrap(context.Background(), []string{"**/*.{html,ts}"}))

	assert.Len(t, c.FindDefinitions("--brand"), 1)
	assert.Len(t, c.FindUsages("--brand"), 1)
}
