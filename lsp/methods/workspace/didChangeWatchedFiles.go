package workspace

import (
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/uriutil"
	"bennypowers.dev/cpls/internal/workspace"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeWatchedFiles handles the workspace/didChangeWatchedFiles
// notification by re-indexing the changed files as one batch
func DidChangeWatchedFiles(req *types.RequestContext, params *protocol.DidChangeWatchedFilesParams) error {
	log.Debug("Watched files changed: %d files", len(params.Changes))

	events := make([]workspace.Event, 0, len(params.Changes))
	for _, change := range params.Changes {
		kind, ok := eventKind(change.Type)
		if !ok {
			log.Warn("Ignoring unknown file change type %d for %s", change.Type, change.URI)
			continue
		}
		events = append(events, workspace.Event{Kind: kind, Path: uriutil.URIToPath(change.URI)})
	}

	// a file that fails to index is already evicted; the others still apply
	if err := req.Server.Workspace().HandleEvents(req.Context(), events); err != nil {
		req.AddWarning(err)
	}
	return nil
}

func eventKind(t protocol.UInteger) (workspace.EventKind, bool) {
	switch t {
	case protocol.FileChangeTypeCreated:
		return workspace.Created, true
	case protocol.FileChangeTypeChanged:
		return workspace.Changed, true
	case protocol.FileChangeTypeDeleted:
		return workspace.Deleted, true
	}
	return 0, false
}
