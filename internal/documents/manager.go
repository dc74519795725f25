// Package documents tracks the text of documents open in the editor, so
// cursor lookups see unsaved edits.
package documents

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/cpls/internal/position"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Manager manages text documents for the language server
type Manager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewManager creates a new document manager
func NewManager() *Manager {
	return &Manager{
		documents: make(map[string]*Document),
	}
}

// Get retrieves a document by URI
func (m *Manager) Get(uri string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documents[uri]
}

// GetAll returns all managed documents, ordered by URI
func (m *Manager) GetAll() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b *Document) int {
		return strings.Compare(a.URI(), b.URI())
	})
	return docs
}

// Line returns one line of an open document
func (m *Manager) Line(uri string, line int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[uri]
	if !ok {
		return "", false
	}
	return doc.Line(line), true
}

// DidOpen handles the textDocument/didOpen notification
func (m *Manager) DidOpen(uri, languageID string, version int, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[uri] = NewDocument(uri, languageID, version, content)
}

// DidClose handles the textDocument/didClose notification
func (m *Manager) DidClose(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; !exists {
		return fmt.Errorf("document not found: %s", uri)
	}
	delete(m.documents, uri)
	return nil
}

// DidChange handles the textDocument/didChange notification
func (m *Manager) DidChange(uri string, version int, changes []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[uri]
	if !exists {
		return fmt.Errorf("document not found: %s", uri)
	}

	content := doc.Content()
	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				content = c.Text
				continue
			}
			content, err = applyIncrementalChange(content, *c.Range, c.Text)
		default:
			err = fmt.Errorf("unsupported change %T", change)
		}
		if err != nil {
			return fmt.Errorf("failed to apply changes: %w", err)
		}
	}

	if err := doc.SetContent(content, version); err != nil {
		return fmt.Errorf("failed to set document content: %w", err)
	}
	return nil
}

// applyIncrementalChange replaces the text in rng, whose positions are
// UTF-16 based. Characters past a line's end clamp to the end; lines past
// the document's end are an error, except for an insertion at EOF.
func applyIncrementalChange(content string, rng protocol.Range, text string) (string, error) {
	lines := position.NewLineIndex(content)
	count := uint32(lines.LineCount())

	if rng.Start.Line > count {
		return "", fmt.Errorf("start line %d out of bounds (total lines: %d)", rng.Start.Line, count)
	}
	if rng.End.Line > count {
		return "", fmt.Errorf("end line %d out of bounds (total lines: %d)", rng.End.Line, count)
	}

	start := lines.Offset(rng.Start.Line, rng.Start.Character)
	end := lines.Offset(rng.End.Line, rng.End.Character)
	if end < start {
		return "", fmt.Errorf("range end %d:%d precedes start %d:%d",
			rng.End.Line, rng.End.Character, rng.Start.Line, rng.Start.Character)
	}
	return content[:start] + text + content[end:], nil
}
