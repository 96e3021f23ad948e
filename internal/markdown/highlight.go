package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Highlighter turns raw code and a language tag into HTML. The returned markup
// is inserted inside <pre><code> verbatim.
type Highlighter func(code, lang string) (string, error)

// ErrUnknownLanguage is returned by ChromaHighlighter when no lexer matches.
var ErrUnknownLanguage = errors.New("no lexer for language")

// ChromaHighlighter returns a Highlighter that emits class-based chroma
// markup. Styling is left to the site's stylesheet.
func ChromaHighlighter(style string) Highlighter {
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
	)
	st := styles.Get(style)
	if st == nil {
		st = styles.Fallback
	}

	return func(code, lang string) (string, error) {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return "", ErrUnknownLanguage
		}
		lexer := lexers.Get(lang)
		if lexer == nil {
			return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
		}
		lexer = chroma.Coalesce(lexer)
		it, err := lexer.Tokenise(nil, code)
		if err != nil {
			return "", fmt.Errorf("tokenise %s: %w", lang, err)
		}
		var buf bytes.Buffer
		if err := formatter.Format(&buf, st, it); err != nil {
			return "", fmt.Errorf("format %s: %w", lang, err)
		}
		return buf.String(), nil
	}
}

// EscapeCode escapes the characters that matter inside a <code> element.
func EscapeCode(code string) string {
	return codeEscaper.Replace(code)
}

var codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// codeBlockRenderer replaces goldmark's fenced code block rendering with
// a call to the configured Highlighter.
type codeBlockRenderer struct {
	highlight Highlighter
}

func newCodeBlockRenderer(h Highlighter) renderer.NodeRenderer {
	return &codeBlockRenderer{highlight: h}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var lang string
	if raw := n.Language(source); raw != nil {
		lang = string(raw)
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.WriteString(EscapeCode(lang))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.WriteString(r.highlightOrEscape(code.String(), lang))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) highlightOrEscape(code, lang string) string {
	if r.highlight == nil {
		return EscapeCode(code)
	}
	out, err := r.highlight(code, lang)
	if err != nil || out == "" {
		if err != nil {
			slog.Debug("Highlighter failed, falling back to plain text", "lang", lang, "error", err)
		}
		return EscapeCode(code)
	}
	return out
}
