package css

// Span is a half-open byte range [Start, End) of a host document.
type Span struct {
	Start int
	End   int
}

// Blank returns a copy of source in which every byte outside the kept
// spans is replaced by a space. Line breaks are preserved, so byte
// offsets and line numbers in the copy match the original document.
func Blank(source []byte, keep ...Span) []byte {
	out := make([]byte, len(source))
	for i, b := range source {
		if b == '\n' || b == '\r' {
			out[i] = b
		} else {
			out[i] = ' '
		}
	}
	for _, s := range keep {
		start, end := max(s.Start, 0), min(s.End, len(source))
		if start < end {
			copy(out[start:end], source[start:end])
		}
	}
	return out
}
