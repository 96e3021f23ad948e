package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// leadingLines returns the first n non-blank lines of s.
func leadingLines(s string, n int) string {
	var b strings.Builder
	count := 0
	for line := range strings.SplitSeq(s, "\n") {
		if count >= n {
			break
		}
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		count++
	}
	return b.String()
}

// firstImageSource returns the src of the first <img> within the first
// scanLines lines of rendered HTML. Images further down are ignored so a
// picture deep in an article is not mistaken for its cover.
func firstImageSource(rendered string, scanLines int) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(leadingLines(rendered, scanLines)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" && len(val) > 0 {
					return string(val), true
				}
				if !more {
					break
				}
			}
		}
	}
}

// stripMarkup removes <figcaption> blocks (with their text), a level-1
// heading that opens the document, every other tag, comments and block-quote
// markers at line starts, leaving text with its original line structure.
func stripMarkup(rendered string) string {
	z := html.NewTokenizer(strings.NewReader(rendered))
	var b strings.Builder
	skipDepth := 0
	started := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return stripQuoteMarkers(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			switch {
			case string(name) == "figcaption":
				skipDepth++
			case string(name) == "h1" && !started:
				skipDepth++
			}
			started = true
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "figcaption" || string(name) == "h1") && skipDepth > 0 {
				skipDepth--
			}
		case html.SelfClosingTagToken:
			started = true
		case html.TextToken:
			if strings.TrimSpace(string(z.Raw())) != "" {
				started = true
			}
			if skipDepth == 0 {
				b.Write(z.Raw())
			}
		}
	}
}

func stripQuoteMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if trimmed := strings.TrimLeft(line, " \t"); strings.HasPrefix(trimmed, ">") {
			lines[i] = strings.TrimLeft(strings.TrimLeft(trimmed, ">"), " ")
		}
	}
	return strings.Join(lines, "\n")
}

var attributionLine = regexp.MustCompile(`(?i)^[^\n]*(photo by|courtesy of|source:)[^\n]*`)

// describe derives a one-line summary from rendered HTML: the first non-empty
// text line after removing markup and a leading photo-credit line, truncated
// to limit characters (the last being an ellipsis).
func describe(rendered string, limit int) (string, bool) {
	text := strings.TrimSpace(stripMarkup(rendered))
	text = attributionLine.ReplaceAllString(text, "")

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return truncate(line, limit), true
	}
	return "", false
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
