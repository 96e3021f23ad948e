package build

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// Bundle is a loaded module graph with everything it emitted.
type Bundle struct {
	Entries []modules.ModuleID
	// Modules are in depth-first load order.
	Modules    []*modules.Module
	Assets     []*modules.Asset
	WatchFiles []string
	// External lists bare specifiers no handler claimed. They are left for
	// the runtime to resolve.
	External []string

	collector *modules.Collector
	byID      map[modules.ModuleID]*modules.Module
	links     map[modules.ModuleID]map[string]modules.ModuleID
}

// Module returns the loaded module with id.
func (b *Bundle) Module(id modules.ModuleID) (*modules.Module, bool) {
	m, ok := b.byID[id]
	return m, ok
}

// Link returns the module spec resolved to when imported from importer.
func (b *Bundle) Link(importer modules.ModuleID, spec string) (modules.ModuleID, bool) {
	id, ok := b.links[importer][spec]
	return id, ok
}

// FindAsset returns the asset emitted under fileName.
func (b *Bundle) FindAsset(fileName string) (*modules.Asset, bool) {
	return b.collector.FindFile(fileName)
}

// Bundler walks module graphs through a handler chain.
type Bundler struct {
	chain    *modules.Chain
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewBundler creates a Bundler. A nil recorder records nothing.
func NewBundler(chain *modules.Chain, logger *slog.Logger, recorder metrics.Recorder) *Bundler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Bundler{chain: chain, logger: logger, recorder: recorder}
}

// Bundle resolves every entry specifier against the project root and loads
// the graph reachable from them. Each module is loaded once.
func (b *Bundler) Bundle(ctx context.Context, entries []string) (*Bundle, error) {
	bundle := &Bundle{
		collector: modules.NewCollector(),
		byID:      make(map[modules.ModuleID]*modules.Module),
		links:     make(map[modules.ModuleID]map[string]modules.ModuleID),
	}
	external := make(map[string]struct{})

	for _, spec := range entries {
		id, err := b.chain.MustResolve(ctx, spec, "")
		if err != nil {
			return nil, err
		}
		if !slices.Contains(bundle.Entries, id) {
			bundle.Entries = append(bundle.Entries, id)
		}
		if err := b.visit(ctx, id, bundle, external); err != nil {
			return nil, err
		}
	}

	bundle.Assets = bundle.collector.Assets()
	bundle.WatchFiles = bundle.collector.WatchFiles()
	bundle.External = slices.Sorted(maps.Keys(external))
	return bundle, nil
}

func (b *Bundler) visit(ctx context.Context, id modules.ModuleID, bundle *Bundle, external map[string]struct{}) error {
	if _, ok := bundle.byID[id]; ok {
		return nil
	}

	start := time.Now()
	mod, err := b.chain.Load(ctx, id, bundle.collector)
	if err != nil {
		return err
	}
	b.recorder.ObserveModuleLoad(handlerLabel(id), time.Since(start))
	bundle.byID[id] = mod
	bundle.Modules = append(bundle.Modules, mod)

	for _, spec := range mod.Imports {
		res, err := b.chain.Resolve(ctx, spec, id, "")
		if err != nil {
			return err
		}
		if !res.Handled() {
			if isBare(spec) {
				external[spec] = struct{}{}
				b.logger.Debug("Leaving bare import external", logfields.Specifier(spec), logfields.Importer(id.String()))
				continue
			}
			return errors.ResolveError("cannot resolve import").
				WithContext("specifier", spec).
				WithContext("importer", id.String()).
				Build()
		}
		if bundle.links[id] == nil {
			bundle.links[id] = make(map[string]modules.ModuleID)
		}
		bundle.links[id][spec] = res.ID()
		if err := b.visit(ctx, res.ID(), bundle, external); err != nil {
			return err
		}
	}
	return nil
}

// isBare reports whether spec is a package import such as "preact" rather
// than a path or a scheme-tagged specifier.
func isBare(spec string) bool {
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return false
	}
	if scheme, _, ok := strings.Cut(spec, ":"); ok && scheme != "" && !strings.Contains(scheme, "/") {
		return false
	}
	return true
}

func handlerLabel(id modules.ModuleID) string {
	if id.IsVirtual() {
		return id.Scheme()
	}
	return "file"
}
