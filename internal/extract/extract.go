// Package extract turns a raw Markdown document into rendered HTML plus
// normalised metadata. Both the content aggregator and the single-file
// markdown loader go through Extractor so their heuristics cannot drift.
package extract

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

const (
	// DefaultDescriptionLimit is the maximum inferred description length in characters.
	DefaultDescriptionLimit = 200
	// DefaultImageScanLines bounds how far into the rendered HTML the cover image is searched.
	DefaultImageScanLines = 10
)

// Document is the result of transforming one Markdown file.
type Document struct {
	HTML string
	Meta Meta
}

// Options configures an Extractor.
type Options struct {
	Markdown         markdown.Options
	DescriptionLimit int
	ImageScanLines   int
	Logger           *slog.Logger
}

// Extractor is stateless apart from its configuration; it is safe for
// concurrent use and Extract is deterministic for a given input.
type Extractor struct {
	renderer         *markdown.Renderer
	descriptionLimit int
	imageScanLines   int
	logger           *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.DescriptionLimit <= 0 {
		opts.DescriptionLimit = DefaultDescriptionLimit
	}
	if opts.ImageScanLines <= 0 {
		opts.ImageScanLines = DefaultImageScanLines
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		renderer:         markdown.NewRenderer(opts.Markdown),
		descriptionLimit: opts.DescriptionLimit,
		imageScanLines:   opts.ImageScanLines,
		logger:           opts.Logger,
	}
}

// ExtractFile reads path and extracts it. Read failures are fatal.
func (e *Extractor) ExtractFile(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.WrapError(err, errors.CategoryFileSystem, "read markdown file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	doc, err := e.Extract(raw)
	if err != nil {
		return Document{}, errors.WrapError(err, errors.CategoryBuild, "render markdown file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return doc, nil
}

// Extract renders raw and derives its metadata. Malformed front matter and
// heuristic misses degrade to absent fields; only a renderer failure is
// returned as an error.
func (e *Extractor) Extract(raw []byte) (Document, error) {
	meta, body := e.splitFrontMatter(frontmatter.NormalizeNewlines(raw))
	body = e.consumeTitle(meta, body)

	rendered, err := e.renderer.Render([]byte(body))
	if err != nil {
		return Document{}, err
	}
	rendered = markdown.DecodeEntities(rendered)

	if !meta.Has(KeyImage) {
		if src, ok := firstImageSource(rendered, e.imageScanLines); ok {
			meta[KeyImage] = src
		}
	}
	if !meta.Has(KeyDescription) {
		if desc, ok := describe(rendered, e.descriptionLimit); ok {
			meta[KeyDescription] = desc
		}
	}

	collapseRedundant(meta)
	dropPrivate(meta)

	return Document{HTML: rendered, Meta: meta}, nil
}

func (e *Extractor) splitFrontMatter(content []byte) (Meta, string) {
	fm, body, had, err := frontmatter.Split(content)
	if err != nil {
		e.logger.Debug("Front matter not terminated, treating document as body", logfields.Error(err))
		return Meta{}, string(content)
	}
	if !had {
		return Meta{}, string(body)
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		e.logger.Debug("Malformed front matter ignored", logfields.Error(err))
		return Meta{}, string(body)
	}
	return Meta(fields), string(body)
}

// consumeTitle handles a leading level-1 heading. Without a title the heading
// becomes the title; with a title the heading is dropped only when it repeats
// it (case and surrounding whitespace ignored).
func (e *Extractor) consumeTitle(meta Meta, body string) string {
	heading, rest, ok := leadingHeading(body)
	if !ok {
		return body
	}
	if !meta.Has(KeyTitle) {
		meta[KeyTitle] = heading
		return rest
	}
	if e.sameTitle(meta.String(KeyTitle), heading) {
		return rest
	}
	return body
}

// sameTitle compares case-folded titles. Casers carry state, so each call
// gets its own.
func (e *Extractor) sameTitle(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// leadingHeading matches an ATX level-1 heading as the first non-blank line.
// rest is body with that line and the blank lines after it removed.
func leadingHeading(body string) (heading, rest string, ok bool) {
	s := strings.TrimLeft(body, " \t\n")
	if !strings.HasPrefix(s, "#") || len(s) < 2 || (s[1] != ' ' && s[1] != '\t') {
		return "", body, false
	}
	line, after, _ := strings.Cut(s, "\n")
	heading = strings.TrimSpace(strings.TrimLeft(line, "#"))
	if heading == "" {
		return "", body, false
	}
	return heading, strings.TrimLeft(after, "\n"), true
}

// collapseRedundant removes metadata that repeats other fields.
func collapseRedundant(meta Meta) {
	if meta.Has(KeyPublished) && meta.Has(KeyUpdated) {
		pub, okPub := ParseDate(meta[KeyPublished])
		upd, okUpd := ParseDate(meta[KeyUpdated])
		if okPub && okUpd && SameMinute(pub, upd) {
			delete(meta, KeyUpdated)
		}
	}
	if v, ok := meta[KeyMetaDescription]; ok && sameValue(v, meta[KeyDescription]) {
		delete(meta, KeyMetaDescription)
	}
	if v, ok := meta[KeyMetaTitle]; ok && sameValue(v, meta[KeyTitle]) {
		delete(meta, KeyMetaTitle)
	}
}

func sameValue(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == nil && b == nil
}

func dropPrivate(meta Meta) {
	for k := range meta {
		if IsPrivateKey(k) {
			delete(meta, k)
		}
	}
}
