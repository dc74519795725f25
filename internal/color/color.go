// Package color recognises CSS color literals in custom property values.
package color

import (
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Parse reports whether value is a CSS color literal: a hex color, a named
// color, or one of the rgb(), hsl(), hwb(), lab(), lch(), oklab() and
// oklch() functions.
func Parse(value string) (csscolorparser.Color, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return csscolorparser.Color{}, false
	}
	c, err := csscolorparser.Parse(value)
	if err != nil {
		return csscolorparser.Color{}, false
	}
	return c, true
}

// IsColor reports whether value is a CSS color literal
func IsColor(value string) bool {
	_, ok := Parse(value)
	return ok
}

// AllColors reports whether every value is a color. It is false for an
// empty list.
func AllColors(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !IsColor(v) {
			return false
		}
	}
	return true
}

// ToHex normalises a color literal to #rrggbb, or #rrggbbaa when it is
// not fully opaque. ok is false when value is not a color.
func ToHex(value string) (hex string, ok bool) {
	c, ok := Parse(value)
	if !ok {
		return "", false
	}
	return c.HexString(), true
}
