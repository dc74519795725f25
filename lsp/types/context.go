package types

import (
	"context"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/documents"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/spf13/afero"
	"github.com/tliron/glsp"
)

// ServerContext provides all dependencies needed for LSP handlers.
// Handlers depend on this interface so tests can inject a mock.
type ServerContext interface {
	// Document operations
	Document(uri string) *documents.Document
	DocumentManager() *documents.Manager
	AllDocuments() []*documents.Document

	// Index operations
	Workspace() *workspace.Coordinator
	IndexWorkspace(ctx context.Context) error
	FS() afero.Fs

	// Workspace root
	RootURI() string
	RootPath() string
	SetRoot(uri, path string)

	// Configuration
	Config() config.Config
	SetClientSettings(settings map[string]any)
	// LoadConfig recomputes the configuration from package.json and client
	// settings, reporting whether the file patterns changed
	LoadConfig() (filesChanged bool, err error)

	// File watching
	SupportsWatchedFilesRegistration() bool
	SetSupportsWatchedFilesRegistration(supported bool)
	RegisterFileWatchers(ctx *glsp.Context) error

	// LSP context, for notifications outside a request
	GLSPContext() *glsp.Context
	SetGLSPContext(ctx *glsp.Context)

	// Close releases parsers and stops any fallback watcher
	Close() error
}
