package protocol

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clean - drops invalid unicode sequences and control characters from text,
// every other whitespace rune is replaced with single space.
func Clean(text string) string {
	b := strings.Builder{}
	b.Grow(len(text))
	var prev rune
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		switch {
		case r == utf8.RuneError && size <= 1:
			// drop
			continue
		case r == '\n':
			// continuous EOL becomes single space
			if prev != r {
				b.WriteByte(' ')
			}
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
