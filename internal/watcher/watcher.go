// Package watcher turns filesystem notifications under a set of
// directories into debounced batches of workspace events.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is how long the watcher waits for a burst of
// changes to settle before delivering it
const DefaultDebounceDelay = 200 * time.Millisecond

// DefaultSkipDirs are directories never watched
var DefaultSkipDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true,
	".cache":       true,
	"coverage":     true,
}

// Config controls what a Watcher watches
type Config struct {
	Paths         []string
	DebounceDelay time.Duration
	SkipDirs      []string
	// FileFilter, when set, drops events for paths it rejects
	FileFilter func(path string) bool
	// KnownPaths, when set, lists the files already indexed. fsnotify
	// names only a directory that is removed or renamed away, so each
	// known path below it is reported as well.
	KnownPaths func() []string
}

// Handler receives each debounced batch, sorted by path
type Handler interface {
	OnEvents(events []workspace.Event)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(events []workspace.Event)

// OnEvents calls f
func (f HandlerFunc) OnEvents(events []workspace.Event) {
	f(events)
}

// Watcher watches directory trees recursively
type Watcher struct {
	fsnotify *fsnotify.Watcher
	config   Config
	skip     map[string]bool
	handlers []Handler
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.Mutex
	pending     map[string]fsnotify.Op
	timerActive bool
	dirsWatched int
}

// New creates a watcher. Call Start to begin delivering events.
func New(config Config, handlers ...Handler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = DefaultDebounceDelay
	}

	skip := make(map[string]bool, len(DefaultSkipDirs)+len(config.SkipDirs))
	for k, v := range DefaultSkipDirs {
		skip[k] = v
	}
	for _, d := range config.SkipDirs {
		skip[d] = true
	}

	return &Watcher{
		fsnotify: fsWatcher,
		config:   config,
		skip:     skip,
		handlers: handlers,
		stop:     make(chan struct{}),
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Start registers every directory below the configured paths and starts
// the event loop
func (w *Watcher) Start() error {
	paths := w.config.Paths
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		paths = []string{cwd}
	}

	for _, root := range paths {
		if err := w.addTree(root, false); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.processEvents()

	log.Info("Watching %d directories in %v (debounce: %v)", w.DirsWatched(), paths, w.config.DebounceDelay)
	return nil
}

// Stop ends the event loop, dropping undelivered changes
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	return w.fsnotify.Close()
}

// DirsWatched reports how many directories are registered
func (w *Watcher) DirsWatched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirsWatched
}

// addTree watches root and every directory below it. With queueFiles, the
// files already inside are queued too, as for a directory moved in.
func (w *Watcher) addTree(root string, queueFiles bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if queueFiles && w.accepts(path) {
				w.queue(path, fsnotify.Create)
			}
			return nil
		}
		if path != root && w.skipped(d.Name()) {
			return filepath.SkipDir
		}
		w.addDir(path)
		return nil
	})
}

func (w *Watcher) addDir(path string) {
	if err := w.fsnotify.Add(path); err != nil {
		log.Debug("Cannot watch %s: %v", path, err)
		return
	}
	w.mu.Lock()
	w.dirsWatched++
	w.mu.Unlock()
}

func (w *Watcher) skipped(name string) bool {
	return w.skip[name] || (len(name) > 1 && name[0] == '.')
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			log.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipped(filepath.Base(event.Name)) {
				if err := w.addTree(event.Name, true); err != nil {
					log.Debug("Cannot watch %s: %v", event.Name, err)
				}
				log.Debug("Watching new directory %s", event.Name)
			}
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.queueBelow(event.Name)
	}
	if !w.accepts(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
		w.queue(event.Name, event.Op)
	}
}

// accepts drops editor scratch files and whatever FileFilter rejects
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return w.config.FileFilter == nil || w.config.FileFilter(path)
}

// queueBelow queues a removal for every known path inside dir
func (w *Watcher) queueBelow(dir string) {
	if w.config.KnownPaths == nil {
		return
	}
	prefix := dir + string(filepath.Separator)
	for _, known := range w.config.KnownPaths() {
		if strings.HasPrefix(known, prefix) {
			w.queue(known, fsnotify.Remove)
		}
	}
}

func (w *Watcher) queue(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] |= op
	if w.timerActive {
		return
	}
	w.timerActive = true
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-time.After(w.config.DebounceDelay):
			w.flush()
		case <-w.stop:
		}
	}()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.timerActive = false
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	events := Events(pending)
	log.Debug("Delivering %d file changes", len(events))
	for _, h := range w.handlers {
		h.OnEvents(events)
	}
}

// Events converts the operations accumulated per path into workspace
// events, sorted by path. A path whose file no longer exists is reported deleted
// whatever its last operation was.
func Events(ops map[string]fsnotify.Op) []workspace.Event {
	events := make([]workspace.Event, 0, len(ops))
	for path, op := range ops {
		events = append(events, workspace.Event{Kind: kindOf(path, op), Path: path})
	}
	slices.SortFunc(events, func(a, b workspace.Event) int {
		return strings.Compare(a.Path, b.Path)
	})
	return events
}

func kindOf(path string, op fsnotify.Op) workspace.EventKind {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return workspace.Deleted
	}
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		// replaced in place by an atomic save
		return workspace.Changed
	case op.Has(fsnotify.Create):
		return workspace.Created
	}
	return workspace.Changed
}
