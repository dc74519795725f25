package html

import "bennypowers.dev/cpls/internal/parser/css"

// RegionType identifies the kind of CSS region found in HTML
type RegionType int

const (
	// UnknownRegion is the zero value, indicating an uninitialized region type
	UnknownRegion RegionType = iota
	// StyleTag represents CSS inside a <style> element
	StyleTag
	// StyleAttribute represents CSS inside a style="..." attribute
	StyleAttribute
)

func (t RegionType) String() string {
	switch t {
	case StyleTag:
		return "style element"
	case StyleAttribute:
		return "style attribute"
	}
	return "unknown region"
}

// CSSRegion is a stretch of CSS inside an HTML document. Span holds
// absolute byte offsets into the document; Line and Column are 0-based.
type CSSRegion struct {
	Span   css.Span
	Line   uint
	Column uint
	Type   RegionType
}
