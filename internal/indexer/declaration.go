package indexer

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/parser/common"
	"bennypowers.dev/cpls/internal/parser/css"
)

// Context is where a declaration sits: its file, rule and media query
type Context struct {
	Path      string
	Selectors []string
	Media     string
}

// ProcessDeclaration extracts the definition and the var() usages of one
// block item. Items that are not declarations, or that lack a property or
// a value, yield nothing.
func ProcessDeclaration(item css.BlockItem, ctx Context, r *Resolver) []index.Entry {
	decl, ok := item.(*css.Declaration)
	if !ok || decl.Property == "" || decl.Value == "" {
		return nil
	}

	file := filepath.Base(ctx.Path)
	occurrence := func(rng index.Range) index.Occurrence {
		return index.Occurrence{
			File:      file,
			Range:     rng,
			Selectors: ctx.Selectors,
			Media:     ctx.Media,
		}
	}

	var entries []index.Entry
	if strings.HasPrefix(decl.Property, "--") {
		entries = append(entries, index.Entry{
			Kind:       index.Definition,
			Name:       decl.Property,
			Value:      decl.Value,
			Occurrence: occurrence(r.DefinitionRange(decl)),
		})
	}

	for _, m := range common.UsageRegexp.FindAllStringSubmatchIndex(decl.Value, -1) {
		start, end := m[2], m[3]
		entries = append(entries, index.Entry{
			Kind:       index.Reference,
			Name:       decl.Value[start:end],
			Value:      decl.Value,
			Occurrence: occurrence(r.UsageRange(decl, start, end)),
		})
	}
	return entries
}
