package workspace

import (
	"fmt"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeConfiguration handles the workspace/didChangeConfiguration
// notification. When the file patterns change the index is rebuilt and
// the client's file watchers are re-registered.
func DidChangeConfiguration(req *types.RequestContext, params *protocol.DidChangeConfigurationParams) error {
	settings, err := config.SectionOf(params.Settings)
	if err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	req.Server.SetClientSettings(settings)

	changed, err := req.Server.LoadConfig()
	if err != nil {
		req.AddWarning(err)
	}
	if !changed {
		log.Debug("Configuration changed; file patterns unchanged")
		return nil
	}

	log.Info("File patterns changed to %v; re-indexing", req.Server.Config().Files)
	if err := req.Server.IndexWorkspace(req.Context()); err != nil {
		return err
	}
	if err := req.Server.RegisterFileWatchers(req.GLSP); err != nil {
		req.AddWarning(fmt.Errorf("registering file watchers: %w", err))
	}
	return nil
}
