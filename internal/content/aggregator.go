package content

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// Scheme tags content directory specifiers and module IDs.
const Scheme = "content"

// Options configures an Aggregator.
type Options struct {
	// Root resolves specifiers imported without an importer.
	Root      string
	Extractor *extract.Extractor
	// Extensions selects Markdown files. Defaults to ".md".
	Extensions []string
	// Concurrency bounds parallel extraction. Defaults to GOMAXPROCS.
	Concurrency int
	Logger      *slog.Logger
}

// Aggregator is the modules.Handler for "content:" specifiers.
type Aggregator struct {
	root        string
	extractor   *extract.Extractor
	extensions  []string
	concurrency int
	logger      *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts Options) *Aggregator {
	if opts.Extractor == nil {
		opts.Extractor = extract.New(extract.Options{Markdown: markdown.DefaultOptions(), Logger: opts.Logger})
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".md"}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{
		root:        opts.Root,
		extractor:   opts.Extractor,
		extensions:  opts.Extensions,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

func (a *Aggregator) Name() string { return Scheme }

// TryResolve claims "content:<path>". The path goes through the rest of the
// chain first; when nothing claims it, an existing directory relative to the
// importer is accepted. Anything else is left unhandled.
func (a *Aggregator) TryResolve(ctx context.Context, spec string, importer modules.ModuleID, r modules.Resolver) (modules.Resolution, error) {
	if modules.IsVirtualSpecifier(spec) {
		return modules.Unhandled(), nil
	}
	rest, ok := strings.CutPrefix(spec, Scheme+":")
	if !ok {
		return modules.Unhandled(), nil
	}

	res, err := r.Resolve(ctx, rest, importer, a.Name())
	if err != nil {
		return modules.Unhandled(), err
	}
	if res.Handled() {
		return modules.Resolved(modules.Virtual(Scheme, res.ID().Path())), nil
	}

	dir := modules.ResolvePath(rest, importer, a.root)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return modules.Resolved(modules.Virtual(Scheme, dir)), nil
	}
	return modules.Unhandled(), nil
}

// Load aggregates the directory behind a content ID into a generated module.
func (a *Aggregator) Load(ctx context.Context, id modules.ModuleID, lc modules.LoadContext) (*modules.Module, error) {
	if !id.HasScheme(Scheme) {
		return nil, nil
	}
	dir := id.Path()
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.root, dir)
	}

	manifest, err := a.Aggregate(ctx, dir)
	if err != nil {
		return nil, err
	}

	lc.AddWatchFile(dir)
	for _, it := range manifest.Items {
		lc.AddWatchFile(it.Path)
	}

	code, imports, err := GenerateModule(manifest)
	if err != nil {
		return nil, err
	}
	return &modules.Module{ID: id, Code: code, Imports: imports, Data: manifest}, nil
}

// Aggregate extracts metadata from every Markdown file below dir and returns
// the sorted manifest. Extraction runs concurrently; sorting waits for all
// files.
func (a *Aggregator) Aggregate(ctx context.Context, dir string) (*Manifest, error) {
	start := time.Now()
	files, err := Tree(dir)
	if err != nil {
		return nil, err
	}
	files = a.filter(files)

	items := make([]Item, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := a.item(dir, rel)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkDuplicates(items); err != nil {
		return nil, err
	}
	SortItems(items)

	a.logger.Debug("Aggregated content directory",
		logfields.Path(dir),
		logfields.Items(len(items)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return &Manifest{Dir: dir, Items: items}, nil
}

func (a *Aggregator) filter(files []string) []string {
	out := files[:0:0]
	for _, f := range files {
		if a.extension(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

func (a *Aggregator) extension(file string) string {
	for _, ext := range a.extensions {
		if strings.HasSuffix(file, ext) {
			return ext
		}
	}
	return ""
}

func (a *Aggregator) item(dir, rel string) (Item, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	doc, err := a.extractor.ExtractFile(path)
	if err != nil {
		return Item{}, err
	}
	meta := doc.Meta
	name := strings.TrimSuffix(rel, a.extension(rel))
	if slug := meta.String(extract.KeySlug); slug != "" {
		name = slug
	}
	delete(meta, extract.KeySlug)
	return Item{Name: name, Path: path, Meta: meta}, nil
}

func checkDuplicates(items []Item) error {
	seen := make(map[string]string, len(items))
	for _, it := range items {
		if prev, ok := seen[it.Name]; ok {
			return errors.ContentError("duplicate content name").
				Fatal().
				UserAction().
				WithContext("name", it.Name).
				WithContext("first", prev).
				WithContext("second", it.Path).
				Build()
		}
		seen[it.Name] = it.Path
	}
	return nil
}
