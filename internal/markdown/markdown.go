// Package markdown renders Markdown bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options configures a Renderer.
type Options struct {
	// Extensions names goldmark extensions to enable. Empty means GFM.
	Extensions []string
	// Typographer enables smart punctuation. Substitutions are emitted as
	// numeric entities so DecodeEntities can fold them back into characters.
	Typographer bool
	// Unsafe passes raw HTML through untouched.
	Unsafe bool
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
	// Highlight renders fenced code blocks. Nil means escaped plain text.
	Highlight Highlighter
}

// DefaultOptions matches the blog's historical rendering: GFM, raw HTML
// allowed, smart punctuation on.
func DefaultOptions() Options {
	return Options{
		Extensions:  []string{"gfm"},
		Typographer: true,
		Unsafe:      true,
	}
}

// Renderer converts Markdown to HTML. A Renderer is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a goldmark engine for opts.
func NewRenderer(opts Options) *Renderer {
	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(newCodeBlockRenderer(opts.Highlight), 200)),
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	exts := collectExtensions(opts.Extensions)
	if opts.Typographer {
		exts = append(exts, extension.NewTypographer(
			extension.WithTypographicSubstitutions(numericSubstitutions),
		))
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(exts...),
			goldmark.WithParserOptions(parserOptions...),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}
}

// Render converts body to HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

var numericSubstitutions = extension.TypographicSubstitutions{
	extension.LeftSingleQuote:  []byte("&#8216;"),
	extension.RightSingleQuote: []byte("&#8217;"),
	extension.LeftDoubleQuote:  []byte("&#8220;"),
	extension.RightDoubleQuote: []byte("&#8221;"),
	extension.EnDash:           []byte("&#8211;"),
	extension.EmDash:           []byte("&#8212;"),
	extension.Ellipsis:         []byte("&#8230;"),
	extension.LeftAngleQuote:   []byte("&#171;"),
	extension.RightAngleQuote:  []byte("&#187;"),
	extension.Apostrophe:       []byte("&#8217;"),
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions maps names to extenders; unknown names are ignored.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
