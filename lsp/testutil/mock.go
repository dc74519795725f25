package testutil

import (
	"context"
	"slices"
	"sync"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/documents"
	"bennypowers.dev/cpls/internal/uriutil"
	"bennypowers.dev/cpls/internal/workspace"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/spf13/afero"
	"github.com/tliron/glsp"
)

// Verify that MockServerContext implements ServerContext
var _ types.ServerContext = (*MockServerContext)(nil)

// MockServerContext implements types.ServerContext for testing.
// It indexes an in-memory filesystem rooted at /ws with a real
// Coordinator; behavior can be overridden via callback functions.
type MockServerContext struct {
	mu          sync.Mutex
	fs          afero.Fs
	docs        *documents.Manager
	ws          *workspace.Coordinator
	rootURI     string
	rootPath    string
	config      config.Config
	settings    map[string]any
	glspContext *glsp.Context
	dynamic     bool

	// Optional callbacks for custom behavior in tests
	LoadConfigFunc       func() (bool, error)
	RegisterWatchersFunc func(*glsp.Context) error

	// Tracking flags for tests that need to verify methods were called
	LoadConfigCalled       bool
	IndexCalled            int
	RegisterWatchersCalled bool
	Closed                 bool
}

// NewMockServerContext creates a mock rooted at /ws over an empty
// in-memory filesystem
func NewMockServerContext() *MockServerContext {
	fs := afero.NewMemMapFs()
	return &MockServerContext{
		fs:       fs,
		docs:     documents.NewManager(),
		ws:       workspace.New(fs, "/ws"),
		rootURI:  "file:///ws",
		rootPath: "/ws",
		config:   config.Default(),
	}
}

// WriteFile adds a file to the in-memory filesystem
func (m *MockServerContext) WriteFile(path, content string) error {
	return afero.WriteFile(m.fs, path, []byte(content), 0o644)
}

// SetConfig replaces the configuration
func (m *MockServerContext) SetConfig(cfg config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// Settings returns the last client settings received
func (m *MockServerContext) Settings() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Document returns the document with the given URI
func (m *MockServerContext) Document(uri string) *documents.Document {
	return m.docs.Get(uri)
}

// DocumentManager returns the document manager
func (m *MockServerContext) DocumentManager() *documents.Manager {
	return m.docs
}

// AllDocuments returns all tracked documents
func (m *MockServerContext) AllDocuments() []*documents.Document {
	return m.docs.GetAll()
}

// Workspace returns the coordinator
func (m *MockServerContext) Workspace() *workspace.Coordinator {
	return m.ws
}

// IndexWorkspace bootstraps the coordinator with the configured files
func (m *MockServerContext) IndexWorkspace(ctx context.Context) error {
	m.mu.Lock()
	m.IndexCalled++
	files := m.config.Files
	m.mu.Unlock()
	return m.ws.Reconfigure(ctx, files)
}

// FS returns the in-memory filesystem
func (m *MockServerContext) FS() afero.Fs {
	return m.fs
}

// RootURI returns the workspace root URI
func (m *MockServerContext) RootURI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootURI
}

// RootPath returns the workspace root path
func (m *MockServerContext) RootPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootPath
}

// SetRoot records the root; the coordinator stays at /ws
func (m *MockServerContext) SetRoot(uri, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uri == "" && path != "" {
		uri = uriutil.PathToURI(path)
	}
	m.rootURI = uri
	m.rootPath = path
}

// Config returns the configuration
func (m *MockServerContext) Config() config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetClientSettings stores settings for LoadConfig
func (m *MockServerContext) SetClientSettings(settings map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// LoadConfig layers the client settings over the defaults
func (m *MockServerContext) LoadConfig() (bool, error) {
	m.mu.Lock()
	m.LoadConfigCalled = true
	fn := m.LoadConfigFunc
	settings := m.settings
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	cfg, err := config.Layered(settings)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := !slices.Equal(cfg.Files, m.config.Files)
	m.config = cfg
	return changed, nil
}

// SupportsWatchedFilesRegistration reports the detected client capability
func (m *MockServerContext) SupportsWatchedFilesRegistration() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dynamic
}

// SetSupportsWatchedFilesRegistration records the client capability
func (m *MockServerContext) SetSupportsWatchedFilesRegistration(supported bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dynamic = supported
}

// RegisterFileWatchers records the call
func (m *MockServerContext) RegisterFileWatchers(ctx *glsp.Context) error {
	m.mu.Lock()
	m.RegisterWatchersCalled = true
	fn := m.RegisterWatchersFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// GLSPContext returns the GLSP context
func (m *MockServerContext) GLSPContext() *glsp.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.glspContext
}

// SetGLSPContext sets the GLSP context
func (m *MockServerContext) SetGLSPContext(ctx *glsp.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.glspContext = ctx
}

// Close records the call
func (m *MockServerContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
