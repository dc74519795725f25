package references

import (
	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/helpers"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// References handles the textDocument/references request. Declarations
// follow the usages unless the client excludes them.
func References(req *types.RequestContext, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	pos := params.Position
	log.Debug("References requested: %s at line %d, char %d", uri, pos.Line, pos.Character)

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

	var found []index.Location
	if params.Context.IncludeDeclaration {
		found = req.Server.Workspace().FindReferences(variable.Name)
	} else {
		found = req.Server.Workspace().FindUsages(variable.Name)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return helpers.Locations(found), nil
}
