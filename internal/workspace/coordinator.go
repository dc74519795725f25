// Package workspace keeps the symbol index in step with the files on disk:
// the initial scan, re-indexing on file events, and the queries editors ask.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bennypowers.dev/cpls/internal/collections"
	"bennypowers.dev/cpls/internal/completion"
	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/indexer"
	"bennypowers.dev/cpls/internal/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Coordinator owns the index for one workspace root. It is safe for
// concurrent use: mutations of one path are serialized, while different
// paths are indexed in parallel.
type Coordinator struct {
	fs          afero.Fs
	root        string
	store       *index.Store
	concurrency int

	patternsMu sync.RWMutex
	patterns   []string

	state atomic.Int32
	paths keyedMutex

	synthMu     sync.Mutex
	completions atomic.Pointer[[]completion.Entry]
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithConcurrency bounds how many patterns or files Bootstrap works on at
// once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithStore makes the coordinator use an existing store
func WithStore(store *index.Store) Option {
	return func(c *Coordinator) {
		if store != nil {
			c.store = store
		}
	}
}

// New creates a coordinator for the workspace at root on fsys
func New(fsys afero.Fs, root string, opts ...Option) *Coordinator {
	c := &Coordinator{
		fs:          fsys,
		root:        filepath.Clean(root),
		store:       index.NewStore(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	empty := []completion.Entry{}
	c.completions.Store(&empty)
	return c
}

// Root returns the workspace root
func (c *Coordinator) Root() string {
	return c.root
}

// Store returns the underlying index
func (c *Coordinator) Store() *index.Store {
	return c.store
}

// State returns the lifecycle stage
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Patterns returns the configured glob patterns
func (c *Coordinator) Patterns() []string {
	c.patternsMu.RLock()
	defer c.patternsMu.RUnlock()
	return slices.Clone(c.patterns)
}

// Bootstrap indexes every file matching patterns and publishes the
// completion list once. Files that cannot be read or parsed contribute
// nothing; only cancellation of ctx makes Bootstrap fail. A failed
// bootstrap empties the index and returns the coordinator to
// Uninitialized, ready to be bootstrapped again.
func (c *Coordinator) Bootstrap(ctx context.Context, patterns []string) (err error) {
	c.setPatterns(patterns)
	c.state.Store(int32(Bootstrapping))
	defer func() {
		if err != nil {
			c.store.Reset()
			c.synthesize()
			c.state.Store(int32(Uninitialized))
		}
	}()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	start := time.Now()

	files, err := c.Discover(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.indexPath(path); err != nil {
				log.Warn("%v", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	c.synthesize()
	c.state.Store(int32(Ready))

	stats := c.store.Stats()
	log.Info("Indexed %d files (%d definitions, %d references) in %v",
		len(files), stats.Definitions, stats.References, time.Since(start).Round(time.Millisecond))
	return nil
}

// Reconfigure drops the whole index and bootstraps again with patterns
func (c *Coordinator) Reconfigure(ctx context.Context, patterns []string) error {
	c.store.Reset()
	return c.Bootstrap(ctx, patterns)
}

// Discover expands the configured patterns concurrently and returns the
// matching files, absolute and sorted. A pattern that fails to expand is
// logged and skipped.
func (c *Coordinator) Discover(ctx context.Context) ([]string, error) {
	patterns := c.Patterns()

	var mu sync.Mutex
	found := collections.NewSet[string]()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, pattern := range patterns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matches, err := c.glob(pattern)
			if err != nil {
				log.Warn("Skipping pattern %q: %v", pattern, err)
				return nil
			}
			mu.Lock()
			found.Add(matches...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	return collections.Sorted(found), nil
}

// HandleEvent applies one file event and republishes completions
func (c *Coordinator) HandleEvent(ctx context.Context, event Event) error {
	return c.HandleEvents(ctx, []Event{event})
}

// HandleEvents applies a batch of file events in order, then republishes
// completions once. Events for paths no configured pattern matches are
// ignored. The returned error joins per-file failures; the index stays
// consistent either way.
func (c *Coordinator) HandleEvents(ctx context.Context, events []Event) error {
	var errs []error
	applied := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !c.Matches(event.Path) {
			log.Debug("Ignoring %s event for unwatched %s", event.Kind, event.Path)
			continue
		}
		applied++
		if err := c.apply(event); err != nil {
			errs = append(errs, err)
		}
	}
	if applied > 0 {
		c.synthesize()
	}
	return errors.Join(errs...)
}

func (c *Coordinator) apply(event Event) error {
	path := filepath.Clean(event.Path)
	switch event.Kind {
	case Deleted:
		unlock := c.paths.Lock(path)
		defer unlock()
		names := c.store.NamesForPath(path)
		c.store.EvictPath(path)
		log.Debug("Evicted %s: %s", path, strings.Join(names, ", "))
		return nil
	case Created, Changed:
		return c.indexPath(path)
	}
	return fmt.Errorf("unknown event kind %d for %s", event.Kind, path)
}

// indexPath reads, parses and replaces the entries of one path while
// holding that path's lock. A missing file is evicted.
func (c *Coordinator) indexPath(path string) error {
	unlock := c.paths.Lock(path)
	defer unlock()

	data, err := afero.ReadFile(c.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		c.store.EvictPath(path)
		return nil
	}
	if err != nil {
		c.store.EvictPath(path)
		return fmt.Errorf("reading %s: %w", path, err)
	}

	entries, err := indexer.IndexFile(path, data)
	c.store.ReplacePath(path, entries)
	log.Debug("Indexed %s: %d entries", path, len(entries))
	return err
}

// synthesize rebuilds the completion list and publishes it atomically
func (c *Coordinator) synthesize() {
	c.synthMu.Lock()
	defer c.synthMu.Unlock()
	entries := completion.FromStore(c.store)
	c.completions.Store(&entries)
}

// SuggestCompletions returns the current completion entries, sorted by
// label. The slice is shared and must not be modified.
func (c *Coordinator) SuggestCompletions() []completion.Entry {
	return *c.completions.Load()
}

// FindDefinitions returns every declaration of name
func (c *Coordinator) FindDefinitions(name string) []index.Location {
	return c.store.Definitions(name).Locations()
}

// FindReferences returns every var() usage of name followed by every
// declaration of it
func (c *Coordinator) FindReferences(name string) []index.Location {
	refs := c.store.References(name).Locations()
	return append(refs, c.store.Definitions(name).Locations()...)
}

// FindUsages returns only the var() usages of name
func (c *Coordinator) FindUsages(name string) []index.Location {
	return c.store.References(name).Locations()
}

func (c *Coordinator) setPatterns(patterns []string) {
	c.patternsMu.Lock()
	defer c.patternsMu.Unlock()
	c.patterns = slices.Clone(patterns)
}
