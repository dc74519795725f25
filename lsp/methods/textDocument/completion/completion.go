package completion

import (
	"bennypowers.dev/cpls/internal/completion"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/lsp/helpers"
	"bennypowers.dev/cpls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Completion handles the textDocument/completion request. Every defined
// custom property is offered; the editor filters by what was typed.
func Completion(req *types.RequestContext, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	log.Debug("Completion requested: %s at line %d, char %d", uri, params.Position.Line, params.Position.Character)

	if !helpers.Enabled(req.Server, uri) {
		return nil, nil
	}

	entries := req.Server.Workspace().SuggestCompletions()
	items := make([]protocol.CompletionItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, Item(entry))
	}
	return items, nil
}

// Item converts an index entry to an LSP completion item
func Item(entry completion.Entry) protocol.CompletionItem {
	kind := protocol.CompletionItemKindVariable
	if entry.Kind == completion.Color {
		kind = protocol.CompletionItemKindColor
	}
	label := entry.Label
	item := protocol.CompletionItem{
		Label:      entry.Label,
		Kind:       &kind,
		InsertText: &label,
		Documentation: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: entry.Documentation,
		},
	}
	if entry.Detail != "" {
		detail := entry.Detail
		item.Detail = &detail
	}
	return item
}
