package lsp

import (
	"context"
	"path/filepath"

	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/watcher"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const watcherRegistrationID = "css-custom-properties-file-watcher"

// RegisterFileWatchers asks the client to watch every configured glob.
// Clients that cannot register watchers dynamically get a server-side
// fsnotify watcher on the workspace root instead.
func (s *Server) RegisterFileWatchers(context *glsp.Context) error {
	if !s.SupportsWatchedFilesRegistration() {
		return s.startFallbackWatcher()
	}

	// An empty context (created with &glsp.Context{}) won't have Call initialized
	if context == nil || context.Call == nil {
		log.Info("Skipping file watcher registration (no client context)")
		return nil
	}

	watchers := FileSystemWatchers(s.RootPath(), s.Config().Files)

	s.mu.Lock()
	previously := s.registered
	s.registered = len(watchers) > 0
	s.mu.Unlock()

	if len(watchers) == 0 && !previously {
		log.Info("No file watchers to register")
		return nil
	}

	// client/registerCapability is a request, so it must not block the
	// message loop that will read the client's response
	go func(ctx *glsp.Context) {
		var result any
		if previously {
			ctx.Call(protocol.ServerClientUnregisterCapability, protocol.UnregistrationParams{
				Unregisterations: []protocol.Unregistration{{
					ID:     watcherRegistrationID,
					Method: protocol.MethodWorkspaceDidChangeWatchedFiles,
				}},
			}, &result)
		}
		if len(watchers) == 0 {
			return
		}
		ctx.Call(protocol.ServerClientRegisterCapability, protocol.RegistrationParams{
			Registrations: []protocol.Registration{{
				ID:     watcherRegistrationID,
				Method: protocol.MethodWorkspaceDidChangeWatchedFiles,
				RegisterOptions: protocol.DidChangeWatchedFilesRegistrationOptions{
					Watchers: watchers,
				},
			}},
		}, &result)
		log.Info("File watcher registration completed")
	}(context)

	log.Info("Sent file watcher registration request (%d watchers)", len(watchers))
	return nil
}

// FileSystemWatchers builds one watcher per pattern, with relative
// patterns anchored at root in forward-slash form
func FileSystemWatchers(root string, patterns []string) []protocol.FileSystemWatcher {
	watchers := make([]protocol.FileSystemWatcher, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		var glob string
		switch {
		case filepath.IsAbs(pattern):
			glob = filepath.ToSlash(pattern)
		case root != "":
			glob = filepath.ToSlash(root) + "/" + trimDotSlash(filepath.ToSlash(pattern))
		default:
			glob = filepath.ToSlash(pattern)
		}
		watchers = append(watchers, protocol.FileSystemWatcher{GlobPattern: glob})
	}
	return watchers
}

func trimDotSlash(p string) string {
	for len(p) >= 2 && p[:2] == "./" {
		p = p[2:]
	}
	return p
}

// startFallbackWatcher watches the workspace root with fsnotify once
func (s *Server) startFallbackWatcher() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallback != nil {
		return nil
	}

	w, err := watcher.New(watcher.Config{
		Paths: []string{s.rootPath},
		FileFilter: func(path string) bool {
			return s.Workspace().Matches(path)
		},
		KnownPaths: func() []string {
			return s.Workspace().Store().Paths()
		},
	}, watcher.HandlerFunc(s.applyFileEvents))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	s.fallback = w
	log.Info("Client cannot register file watchers; watching %s directly", s.rootPath)
	return nil
}

func (s *Server) applyFileEvents(events []workspace.Event) {
	if err := s.Workspace().HandleEvents(context.Background(), events); err != nil {
		log.Warn("Re-indexing changed files: %v", err)
	}
}
