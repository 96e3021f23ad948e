package markdown

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

var leftoverEntity = regexp.MustCompile(`&(?:#(\d+)|times|apos|quot|amp);`)

// DecodeEntities folds the small set of entities left behind by rendering
// back into literal characters: numeric references, &times;, &apos;,
// &quot; and &amp;. Other entities are kept.
func DecodeEntities(html string) string {
	return leftoverEntity.ReplaceAllStringFunc(html, func(m string) string {
		switch m {
		case "&times;":
			return "×"
		case "&apos;":
			return "ʼ"
		case "&quot;":
			return `"`
		case "&amp;":
			return "&"
		}
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || n <= 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
			return m
		}
		return string(rune(n))
	})
}
