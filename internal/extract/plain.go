package extract

import (
	"strings"
	"unicode/utf8"
)

// sanitize replaces invalid UTF-8 sequences with the replacement character so
// a stray byte in a hand-edited file does not reject the whole document.
func sanitize(content []byte) []byte {
	if utf8.Valid(content) {
		return content
	}
	return []byte(strings.ToValidUTF8(string(content), "\ufffd"))
}
