package lsp

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/documents"
	"bennypowers.dev/cpls/internal/parser"
	"bennypowers.dev/cpls/internal/uriutil"
	"bennypowers.dev/cpls/internal/watcher"
	"bennypowers.dev/cpls/internal/workspace"
	"bennypowers.dev/cpls/lsp/methods/lifecycle"
	"bennypowers.dev/cpls/lsp/methods/textDocument"
	"bennypowers.dev/cpls/lsp/methods/textDocument/completion"
	"bennypowers.dev/cpls/lsp/methods/textDocument/definition"
	"bennypowers.dev/cpls/lsp/methods/textDocument/references"
	lspworkspace "bennypowers.dev/cpls/lsp/methods/workspace"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/spf13/afero"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

// Name is the server name reported to clients
const Name = lifecycle.ServerName

// Verify that Server implements ServerContext interface
var _ types.ServerContext = (*Server)(nil)

// Server is the CSS custom properties language server
type Server struct {
	fs         afero.Fs
	documents  *documents.Manager
	glspServer *server.Server

	mu             sync.RWMutex // Protects everything below
	context        *glsp.Context
	ws             *workspace.Coordinator
	rootURI        string
	rootPath       string
	config         config.Config
	base           map[string]any
	clientSettings map[string]any
	dynamicWatch   bool
	registered     bool
	fallback       *watcher.Watcher

	closeOnce sync.Once
}

// Option configures a Server
type Option func(*Server)

// WithFs makes the server read files from fsys instead of the OS
func WithFs(fsys afero.Fs) Option {
	return func(s *Server) {
		s.fs = fsys
	}
}

// WithConfig sets the base configuration that package.json and client
// settings are layered over
func WithConfig(cfg config.Config) Option {
	return func(s *Server) {
		s.base = map[string]any{
			"files":     cfg.Files,
			"languages": cfg.Languages,
			"logLevel":  cfg.LogLevel,
		}
		s.config = cfg
	}
}

// NewServer creates a new language server rooted at the current directory
// until the client names a workspace root
func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		fs:        afero.NewOsFs(),
		documents: documents.NewManager(),
		config:    config.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = string(filepath.Separator)
	}
	s.SetRoot("", cwd)

	// Create the GLSP server with our handlers wrapped with middleware
	handler := protocol.Handler{
		Initialize:                      method(s, "initialize", lifecycle.Initialize),
		Initialized:                     notify(s, "initialized", lifecycle.Initialized),
		Shutdown:                        noParam(s, "shutdown", lifecycle.Shutdown),
		SetTrace:                        notify(s, "$/setTrace", lifecycle.SetTrace),
		WorkspaceDidChangeConfiguration: notify(s, "workspace/didChangeConfiguration", lspworkspace.DidChangeConfiguration),
		WorkspaceDidChangeWatchedFiles:  notify(s, "workspace/didChangeWatchedFiles", lspworkspace.DidChangeWatchedFiles),
		TextDocumentDidOpen:             notify(s, "textDocument/didOpen", textDocument.DidOpen),
		TextDocumentDidChange:           notify(s, "textDocument/didChange", textDocument.DidChange),
		TextDocumentDidClose:            notify(s, "textDocument/didClose", textDocument.DidClose),
		TextDocumentCompletion:          method(s, "textDocument/completion", completion.Completion),
		TextDocumentDefinition:          method(s, "textDocument/definition", definition.Definition),
		TextDocumentReferences:          method(s, "textDocument/references", references.References),
	}

	s.glspServer = server.NewServer(&handler, Name, false)
	return s, nil
}

// RunStdio starts the LSP server using stdio transport
func (s *Server) RunStdio() error {
	defer s.Close()
	return s.glspServer.RunStdio()
}

// Close releases the parser pools and stops the fallback watcher.
// It is safe to call Close multiple times.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		w := s.fallback
		s.fallback = nil
		s.mu.Unlock()
		if w != nil {
			err = w.Stop()
		}
		parser.ClosePools()
	})
	return err
}

// Document returns the document with the given URI
func (s *Server) Document(uri string) *documents.Document {
	return s.documents.Get(uri)
}

// DocumentManager returns the document manager
func (s *Server) DocumentManager() *documents.Manager {
	return s.documents
}

// AllDocuments returns all tracked documents
func (s *Server) AllDocuments() []*documents.Document {
	return s.documents.GetAll()
}

// Workspace returns the coordinator for the current root
func (s *Server) Workspace() *workspace.Coordinator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws
}

// IndexWorkspace drops the index and rebuilds it from the configured files
func (s *Server) IndexWorkspace(ctx context.Context) error {
	return s.Workspace().Reconfigure(ctx, s.Config().Files)
}

// FS returns the filesystem the server reads
func (s *Server) FS() afero.Fs {
	return s.fs
}

// RootURI returns the workspace root URI
func (s *Server) RootURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootURI
}

// RootPath returns the workspace root path
func (s *Server) RootPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootPath
}

// SetRoot sets the workspace root, deriving whichever of uri and path is
// empty from the other, and starts a fresh index for it
func (s *Server) SetRoot(uri, path string) {
	switch {
	case path == "" && uri != "":
		path = uriutil.URIToPath(uri)
	case uri == "" && path != "":
		uri = uriutil.PathToURI(path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ws != nil && path == s.rootPath {
		return
	}
	s.rootURI = uri
	s.rootPath = path
	s.ws = workspace.New(s.fs, path)
}

// GLSPContext returns the GLSP context
func (s *Server) GLSPContext() *glsp.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

// SetGLSPContext sets the GLSP context
func (s *Server) SetGLSPContext(ctx *glsp.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = ctx
}

// SupportsWatchedFilesRegistration reports whether the client accepts
// dynamic registration of workspace/didChangeWatchedFiles
func (s *Server) SupportsWatchedFilesRegistration() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dynamicWatch
}

// SetSupportsWatchedFilesRegistration records the client capability
func (s *Server) SetSupportsWatchedFilesRegistration(supported bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dynamicWatch = supported
}
