package lifecycle

import (
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SetTrace handles the $/setTrace notification
func SetTrace(req *types.RequestContext, params *protocol.SetTraceParams) error {
	log.Debug("Trace level set to: %s", params.Value)
	return nil
}
