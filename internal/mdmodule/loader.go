// Package mdmodule loads single Markdown files as modules. The rendered
// document is emitted as a build asset and the module's default export is
// that asset's URL, keeping HTML out of generated JavaScript.
package mdmodule

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/document"
	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// Scheme tags markdown specifiers and module IDs.
const Scheme = "markdown"

// Options configures a Loader.
type Options struct {
	// Root is the project root. Asset names are paths relative to it.
	Root      string
	Extractor *extract.Extractor
	// Extension marks plain specifiers the loader claims. Defaults to ".md".
	Extension string
	Logger    *slog.Logger
}

// Loader is the modules.Handler for "markdown:" and "*.md" specifiers.
type Loader struct {
	root      string
	extractor *extract.Extractor
	extension string
	logger    *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	if opts.Extractor == nil {
		opts.Extractor = extract.New(extract.Options{Markdown: markdown.DefaultOptions(), Logger: opts.Logger})
	}
	if opts.Extension == "" {
		opts.Extension = ".md"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		root:      opts.Root,
		extractor: opts.Extractor,
		extension: opts.Extension,
		logger:    opts.Logger,
	}
}

func (l *Loader) Name() string { return Scheme }

// TryResolve claims "markdown:<path>" and any specifier ending in the
// Markdown extension, resolved against the importer's directory. The file is
// not checked here; a missing file fails at load time.
func (l *Loader) TryResolve(_ context.Context, spec string, importer modules.ModuleID, _ modules.Resolver) (modules.Resolution, error) {
	if modules.IsVirtualSpecifier(spec) {
		return modules.Unhandled(), nil
	}
	rest, ok := strings.CutPrefix(spec, Scheme+":")
	if !ok {
		if !strings.HasSuffix(spec, l.extension) {
			return modules.Unhandled(), nil
		}
		rest = spec
	}
	if rest == "" {
		return modules.Unhandled(), nil
	}
	return modules.Resolved(modules.Virtual(Scheme, modules.ResolvePath(rest, importer, l.root))), nil
}

// Load renders the file, emits it as an asset in the document wire format
// and returns a module exporting the asset URL.
func (l *Loader) Load(_ context.Context, id modules.ModuleID, lc modules.LoadContext) (*modules.Module, error) {
	if !id.HasScheme(Scheme) {
		return nil, nil
	}
	path := id.Path()
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}

	lc.AddWatchFile(path)
	doc, err := l.extractor.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	source, err := document.Encode(doc.Meta, doc.HTML)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryBuild, "encode markdown document").
			WithContext("path", path).
			Build()
	}

	fileName, err := l.assetName(path)
	if err != nil {
		return nil, err
	}
	ref, err := lc.EmitAsset(fileName, fileName, source)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Emitted markdown document", logfields.Path(path), logfields.Asset(fileName))

	return &modules.Module{
		ID:   id,
		Code: "export default " + modules.FileURL(ref) + ";\n",
		Data: doc,
	}, nil
}

// assetName is the slash-separated path of file relative to the root. Files
// outside the root cannot be emitted.
func (l *Loader) assetName(path string) (string, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.ResolveError("markdown file is outside the project root").
			Fatal().
			WithContext("path", path).
			WithContext("root", l.root).
			Build()
	}
	return filepath.ToSlash(rel), nil
}
