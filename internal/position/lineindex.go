package position

import (
	"math"
	"sort"
	"strings"
)

// LineIndex maps absolute byte offsets in a document to zero-based
// (line, UTF-16 character) pairs. It is built once per file and is
// safe for concurrent reads.
type LineIndex struct {
	text   string
	starts []int // byte offset at which each line begins
}

// NewLineIndex records the start offset of every line in text.
// Lines are terminated by '\n'; a preceding '\r' stays part of the line.
func NewLineIndex(text string) *LineIndex {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Line returns the text of the zero-based line without its terminator.
// Out-of-range lines yield "".
func (li *LineIndex) Line(line int) string {
	if line < 0 || line >= len(li.starts) {
		return ""
	}
	start := li.starts[line]
	end := len(li.text)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}
	return strings.TrimSuffix(li.text[start:end], "\r")
}

// Position converts a byte offset to a zero-based line and UTF-16 column.
// Offsets are clamped to [0, len(text)].
func (li *LineIndex) Position(offset int) (line, character uint32) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	// last line whose start is <= offset
	l := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	start := li.starts[l]
	col := ByteOffsetToUTF16(li.text[start:], offset-start)
	if l > math.MaxUint32 {
		return math.MaxUint32, col
	}
	return uint32(l), col
}

// Offset converts a zero-based line and UTF-16 column back to a byte
// offset. Columns past the end of the line clamp to the line end.
func (li *LineIndex) Offset(line, character uint32) int {
	if int(line) >= len(li.starts) {
		return len(li.text)
	}
	start := li.starts[line]
	return start + UTF16ToByteOffset(li.Line(int(line)), int(character))
}
