package indexer

import (
	"strings"
	"unicode"
)

// Preprocess trims text and collapses runs of whitespace, including line
// breaks pasted into a form, to single spaces.
func Preprocess(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pending := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalize(ingredients []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = Preprocess(ing); ing != "" {
			out = append(out, ing)
		}
	}
	return out
}
