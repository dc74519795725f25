package helpers

import (
	"fmt"

	"bennypowers.dev/cpls/internal/cursor"
	"bennypowers.dev/cpls/internal/position"
	"bennypowers.dev/cpls/internal/uriutil"
	"bennypowers.dev/cpls/lsp/types"
	"github.com/spf13/afero"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LanguageID returns the language of an open document, or "" when the
// document is not open
func LanguageID(server types.ServerContext, uri string) string {
	if doc := server.Document(uri); doc != nil {
		return doc.LanguageID()
	}
	return ""
}

// Enabled reports whether completion, definition and references should
// answer for the document at uri
func Enabled(server types.ServerContext, uri string) bool {
	return server.Config().SupportsLanguage(LanguageID(server, uri))
}

// LineAt returns one line of the document, preferring unsaved editor
// content over the file on disk
func LineAt(server types.ServerContext, uri string, line uint32) (string, error) {
	if text, ok := server.DocumentManager().Line(uri, int(line)); ok {
		return text, nil
	}
	data, err := afero.ReadFile(server.FS(), uriutil.URIToPath(uri))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", uri, err)
	}
	return position.NewLineIndex(string(data)).Line(int(line)), nil
}

// VariableAt resolves the custom property at a position
func VariableAt(server types.ServerContext, uri string, pos protocol.Position) (cursor.Result, error) {
	line, err := LineAt(server, uri, pos.Line)
	if err != nil {
		return cursor.Result{}, err
	}
	return cursor.Resolve(line, int(pos.Character)), nil
}
