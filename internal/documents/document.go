package documents

import (
	"fmt"

	"bennypowers.dev/cpls/internal/position"
	"bennypowers.dev/cpls/internal/uriutil"
)

// Document is a text document open in the editor
type Document struct {
	uri        string
	path       string
	languageID string
	content    string
	version    int
	lines      *position.LineIndex
}

// NewDocument creates a new document
func NewDocument(uri, languageID string, version int, content string) *Document {
	return &Document{
		uri:        uri,
		path:       uriutil.URIToPath(uri),
		languageID: languageID,
		version:    version,
		content:    content,
		lines:      position.NewLineIndex(content),
	}
}

// URI returns the document's URI
func (d *Document) URI() string {
	return d.uri
}

// Path returns the filesystem path of the document
func (d *Document) Path() string {
	return d.path
}

// LanguageID returns the document's language identifier
func (d *Document) LanguageID() string {
	return d.languageID
}

// Version returns the document's version
func (d *Document) Version() int {
	return d.version
}

// Content returns the document's current content
func (d *Document) Content() string {
	return d.content
}

// Line returns one zero-based line of the current content
func (d *Document) Line(line int) string {
	return d.lines.Line(line)
}

// SetContent updates the document's content and version.
// Updates older than the current version are rejected.
func (d *Document) SetContent(content string, version int) error {
	if version < d.version {
		return fmt.Errorf("rejected stale update: document version is %d but update version is %d", d.version, version)
	}
	d.content = content
	d.version = version
	d.lines = position.NewLineIndex(content)
	return nil
}
