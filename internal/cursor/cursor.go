// Package cursor finds the custom property under an editor cursor.
package cursor

import (
	"bennypowers.dev/cpls/internal/parser/common"
	"bennypowers.dev/cpls/internal/position"
)

// Result is the custom property at a cursor. Name is empty when the cursor
// is not on one; in that case both flags are false.
type Result struct {
	Name         string
	IsDefinition bool
	IsReference  bool
}

// Found reports whether a custom property was found
func (r Result) Found() bool {
	return r.Name != ""
}

// Resolve inspects line at the UTF-16 column character.
//
// The word under the cursor is a run of [A-Za-z0-9_-]. If the character
// just left of the word is "(" the word is read as a var() usage,
// otherwise as a declaration; the text around the word must then match
// the usage or the definition pattern.
func Resolve(line string, character int) Result {
	offset := position.UTF16ToByteOffset(line, character)
	start, end := wordAt(line, offset)
	if start == end {
		return Result{}
	}

	isReference := start > 0 && line[start-1] == '('

	var from int
	if isReference {
		// include the "var(" before the word
		from = max(start-len("var("), 0)
	} else {
		from = start
	}
	// one character past the word: ")" or "," for usages, ":" for definitions
	to := min(end+1, len(line))
	candidate := line[from:to]

	pattern := common.DefinitionRegexp
	if isReference {
		pattern = common.UsageRegexp
	}
	m := pattern.FindStringSubmatch(candidate)
	if m == nil || m[1] == "" {
		return Result{}
	}
	return Result{
		Name:         m[1],
		IsDefinition: !isReference,
		IsReference:  isReference,
	}
}

// wordAt returns the byte span of the word touching offset
func wordAt(line string, offset int) (start, end int) {
	offset = min(max(offset, 0), len(line))
	start, end = offset, offset
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return start, end
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' ||
		b == '_' || b == '-'
}
