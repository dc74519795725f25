package lifecycle

import (
	"fmt"

	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Initialized handles the LSP initialized notification. Nothing here fails
// the handshake: problems are reported as warnings.
func Initialized(req *types.RequestContext, params *protocol.InitializedParams) error {
	log.Info("Server initialized")

	req.Server.SetGLSPContext(req.GLSP)

	if _, err := req.Server.LoadConfig(); err != nil {
		req.AddWarning(fmt.Errorf("loading configuration: %w", err))
	}

	if err := req.Server.IndexWorkspace(req.Context()); err != nil {
		req.AddWarning(fmt.Errorf("indexing workspace: %w", err))
	}

	if err := req.Server.RegisterFileWatchers(req.GLSP); err != nil {
		req.AddWarning(fmt.Errorf("registering file watchers: %w", err))
	}

	return nil
}
