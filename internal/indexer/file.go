// Package indexer turns file contents into index entries: decode, parse,
// walk the rule tree, and resolve source ranges.
package indexer

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/parser"
	"bennypowers.dev/cpls/internal/parser/css"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrDecode is returned for content that is not valid text
var ErrDecode = errors.New("cannot decode file as UTF-8")

var (
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// Decode returns the UTF-8 text of data with any byte order mark removed.
// UTF-16 input is accepted when it starts with a BOM; anything else must
// already be valid UTF-8.
func Decode(data []byte) ([]byte, error) {
	utf16 := bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM)
	if !utf16 && !utf8.Valid(data) {
		return nil, ErrDecode
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return decoded, nil
}

// IndexFile decodes and parses the file at path and returns every
// definition and usage it contains.
//
// A decode failure, or a plain stylesheet with no recoverable rule, yields
// no entries and an error. For HTML and script files the regions that parsed
// are still indexed and the error describes the rest.
func IndexFile(path string, data []byte) ([]index.Entry, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}

	sheets, parseErr := parser.ParseStylesheets(path, text)
	resolver := NewResolver(string(text))

	var entries []index.Entry
	for _, sheet := range sheets {
		entries = append(entries, IndexStylesheet(sheet, path, resolver)...)
	}
	if parseErr != nil {
		return entries, fmt.Errorf("indexing %s: %w", path, parseErr)
	}
	return entries, nil
}

// IndexStylesheet walks a rule tree. Rules contribute their declarations
// with their selectors and no media; media rules contribute the rules
// directly inside them with the media query; comments contribute nothing.
func IndexStylesheet(sheet *css.Stylesheet, path string, r *Resolver) []index.Entry {
	var entries []index.Entry
	for _, node := range sheet.Nodes {
		switch n := node.(type) {
		case *css.Rule:
			entries = append(entries, indexRule(n, Context{Path: path, Selectors: n.Selectors}, r)...)
		case *css.MediaRule:
			for _, rule := range n.Rules {
				entries = append(entries, indexRule(rule, Context{Path: path, Selectors: rule.Selectors, Media: n.Query}, r)...)
			}
		case *css.Comment:
		}
	}
	return entries
}

func indexRule(rule *css.Rule, ctx Context, r *Resolver) []index.Entry {
	var entries []index.Entry
	for _, item := range rule.Items {
		entries = append(entries, ProcessDeclaration(item, ctx, r)...)
	}
	return entries
}
