// Package helpers converts between index results and protocol types, and
// finds the custom property under an editor cursor.
package helpers

import (
	"bennypowers.dev/cpls/internal/index"
	"bennypowers.dev/cpls/internal/uriutil"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Range converts an index range to a protocol range
func Range(r index.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

// Locations converts index locations to protocol locations, keeping order
// and dropping exact duplicates
func Locations(locs []index.Location) []protocol.Location {
	out := make([]protocol.Location, 0, len(locs))
	seen := make(map[protocol.Location]bool, len(locs))
	for _, loc := range locs {
		l := protocol.Location{
			URI:   uriutil.PathToURI(loc.Path),
			Range: Range(loc.Occurrence.Range),
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
