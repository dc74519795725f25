package lifecycle

import (
	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/version"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ServerName is reported to clients in serverInfo
const ServerName = "css-custom-properties-language-server"

// Initialize handles the LSP initialize request
func Initialize(req *types.RequestContext, params *protocol.InitializeParams) (any, error) {
	clientName := "unknown"
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	log.Info("Initializing for client: %s", clientName)

	switch {
	case params.RootURI != nil && *params.RootURI != "":
		req.Server.SetRoot(*params.RootURI, "")
	case params.RootPath != nil && *params.RootPath != "":
		req.Server.SetRoot("", *params.RootPath)
	}
	log.Info("Workspace root: %s", req.Server.RootPath())

	settings, err := config.SectionOf(params.InitializationOptions)
	if err != nil {
		req.AddWarning(err)
	} else if settings != nil {
		req.Server.SetClientSettings(settings)
	}

	dynamic := supportsDynamicWatchers(params.Capabilities)
	req.Server.SetSupportsWatchedFilesRegistration(dynamic)
	log.Debug("Client supports dynamic file watcher registration: %t", dynamic)

	syncKind := protocol.TextDocumentSyncKindIncremental
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: boolPtr(true),
				Change:    &syncKind,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"-"},
			},
			DefinitionProvider: true,
			ReferencesProvider: true,
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: strPtr(version.Get()),
		},
	}, nil
}

func supportsDynamicWatchers(caps protocol.ClientCapabilities) bool {
	if caps.Workspace == nil || caps.Workspace.DidChangeWatchedFiles == nil {
		return false
	}
	dynamic := caps.Workspace.DidChangeWatchedFiles.DynamicRegistration
	return dynamic != nil && *dynamic
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
