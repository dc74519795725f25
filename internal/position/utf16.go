package position

import (
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// LSP columns count UTF-16 code units; the index works in UTF-8 bytes.
// Both conversions read a single line and never split a rune.

// UTF16ToByteOffset returns the byte offset of the UTF-16 column character
// in line. A column inside a surrogate pair lands on the start of its
// rune, and columns past the end clamp to len(line). Each invalid byte
// counts as one unit.
func UTF16ToByteOffset(line string, character int) int {
	offset, units := 0, 0
	for offset < len(line) {
		r, size := utf8.DecodeRuneInString(line[offset:])
		width := 1
		if r != utf8.RuneError || size != 1 {
			width = utf16.RuneLen(r)
		}
		if units+width > character {
			break
		}
		units += width
		offset += size
	}
	return offset
}

// ByteOffsetToUTF16 returns the UTF-16 column of the byte offset in line.
// An offset inside a multi-byte rune counts only the runes before it.
func ByteOffsetToUTF16(line string, offset int) uint32 {
	offset = min(max(offset, 0), len(line))
	units := 0
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(line[i:])
		if i+size > offset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			units++
		} else {
			units += utf16.RuneLen(r)
		}
		i += size
	}
	return uint32(min(units, math.MaxUint32))
}
