// Package watch reruns a build whenever one of its inputs changes.
package watch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// DefaultDebounce coalesces bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build and reports the paths it read. Directories are
// watched recursively, files individually.
type BuildFunc func(ctx context.Context) ([]string, error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Always are watched regardless of what builds report, e.g. the config file.
	Always []string
	// Fallback is watched while no build has reported inputs yet.
	Fallback []string
	// Ignore lists path prefixes whose events never trigger a rebuild.
	Ignore []string
	Logger *slog.Logger
}

// Watcher drives rebuilds from file system events.
type Watcher struct {
	fs     *fsnotify.Watcher
	opts   Options
	logger *slog.Logger

	files      map[string]struct{}
	roots      map[string]struct{}
	registered map[string]struct{}
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create file watcher").Build()
	}
	return &Watcher{
		fs:         fw,
		opts:       opts,
		logger:     opts.Logger,
		files:      make(map[string]struct{}),
		roots:      make(map[string]struct{}),
		registered: make(map[string]struct{}),
	}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run builds once, then rebuilds after every debounced batch of relevant
// changes until ctx is done. Build failures are logged and watching goes on.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	w.rebuild(ctx, build)

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && w.underRoot(ev.Name) {
					w.addTree(ev.Name)
				}
			}
			w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.opts.Debounce)
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			w.rebuild(ctx, build)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, build BuildFunc) {
	paths, err := build(ctx)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return
		}
		errors.LogError(w.logger, errors.WrapError(err, errors.GetCategory(err), "Build failed; waiting for changes").Warning().Build())
	}
	if len(paths) == 0 {
		if len(w.files)+len(w.roots) > 0 {
			return
		}
		paths = w.opts.Fallback
	}
	w.sync(slices.Concat(paths, w.opts.Always))
}

// sync makes the registered set match paths.
func (w *Watcher) sync(paths []string) {
	files := make(map[string]struct{})
	roots := make(map[string]struct{})
	want := make(map[string]struct{})

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if info.IsDir() {
			roots[abs] = struct{}{}
			for _, dir := range w.tree(abs) {
				want[dir] = struct{}{}
			}
			continue
		}
		files[abs] = struct{}{}
		want[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range w.registered {
		if _, ok := want[dir]; !ok {
			_ = w.fs.Remove(dir)
			delete(w.registered, dir)
		}
	}
	for dir := range want {
		w.add(dir)
	}
	w.files = files
	w.roots = roots
	w.logger.Debug("Watching inputs", slog.Int("files", len(files)), slog.Int("dirs", len(w.registered)))
}

func (w *Watcher) add(dir string) {
	if _, ok := w.registered[dir]; ok {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.logger.Warn("Watch add failed", logfields.Path(dir), logfields.Error(err))
		return
	}
	w.registered[dir] = struct{}{}
}

func (w *Watcher) addTree(root string) {
	for _, dir := range w.tree(root) {
		w.add(dir)
	}
}

// tree lists root and its non-hidden, non-ignored subdirectories.
func (w *Watcher) tree(root string) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || shouldIgnoreName(ev.Name) || w.ignored(ev.Name) {
		return false
	}
	if _, ok := w.files[ev.Name]; ok {
		return true
	}
	return w.underRoot(ev.Name)
}

func (w *Watcher) underRoot(path string) bool {
	for root := range w.roots {
		if within(root, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, prefix := range w.opts.Ignore {
		abs, err := filepath.Abs(prefix)
		if err == nil && within(abs, path) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && filepath.IsLocal(rel)
}

// shouldIgnoreName filters hidden, swap and backup files editors create.
func shouldIgnoreName(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}
