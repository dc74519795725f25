package definition

import (
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/helpers"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Definition handles the textDocument/definition request
func Definition(req *types.RequestContext, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	log.Debug("Definition requested: %s at line %d, char %d", uri, pos.Line, pos.Character)

	if !helpers.Enabled(req.Server, uri) {
		return nil, nil
	}

	variable, err := helpers.VariableAt(req.Server, uri, pos)
	if err != nil {
		return nil, err
	}
	if !variable.Found() {
		return nil, nil
	}

	locations := helpers.Locations(req.Server.Workspace().FindDefinitions(variable.Name))
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}
