package build

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/document"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
)

const (
	stageBundle   = "bundle"
	stageWrite    = "write"
	stageFeed     = "feed"
	stageManifest = "manifest"
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	history  history.Store
	newID    func() string
	now      func() time.Time
}

// NewBuildService creates a DefaultBuildService. A nil logger uses
// slog.Default.
func NewBuildService(logger *slog.Logger) *DefaultBuildService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultBuildService{
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithHistory records every run in store.
func (s *DefaultBuildService) WithHistory(store history.Store) *DefaultBuildService {
	s.history = store
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := s.now()
	result := &BuildResult{
		BuildID:   s.newID(),
		StartTime: start,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.finish(ctx, result, errors.ConfigError("config required").Build())
	}
	cfg := req.Config
	result.OutputPath = req.OutputDir
	if result.OutputPath == "" {
		result.OutputPath = cfg.Output.Directory
	}

	entries := slices.Clone(cfg.Entries)
	if cfg.Feed.Enabled && !slices.Contains(entries, cfg.Feed.Source) {
		entries = append(entries, cfg.Feed.Source)
	}
	result.Entries = len(entries)

	// Stage 1: resolve and load the module graph.
	stageCtx := observability.WithStage(ctx, stageBundle)
	observability.Info(stageCtx, s.logger, "Bundling entries", slog.Int("entries", len(entries)))
	stageStart := time.Now()
	chain := NewChain(cfg, s.logger)
	bundle, err := NewBundler(chain, s.logger, s.recorder).Bundle(stageCtx, entries)
	if err != nil {
		return s.stageFailed(stageCtx, result, stageBundle, err)
	}
	s.stageDone(stageBundle, stageStart)
	result.Modules = len(bundle.Modules)
	result.Assets = len(bundle.Assets)
	result.WatchFiles = bundle.WatchFiles
	for _, mod := range bundle.Modules {
		if m, ok := mod.Data.(*content.Manifest); ok {
			result.Items += len(m.Items)
			s.recorder.SetContentItems(m.Dir, len(m.Items))
		}
	}

	bm := &manifest.BuildManifest{
		ID:        result.BuildID,
		Timestamp: start.UTC(),
		Inputs: manifest.Inputs{
			Entries:    entries,
			ConfigHash: configHash(cfg),
			Sources:    sources(cfg.Root, bundle.WatchFiles),
		},
	}

	if req.Options.SkipIfUnchanged {
		if unchanged, reason := s.unchanged(result.OutputPath, bm); unchanged {
			observability.Info(ctx, s.logger, "Build skipped, inputs unchanged")
			result.Skipped = true
			result.SkipReason = reason
			return s.finish(ctx, result, nil)
		}
	}

	// Stage 2: write assets and modules.
	stageCtx = observability.WithStage(ctx, stageWrite)
	stageStart = time.Now()
	if cfg.Output.Clean {
		if err := cleanOutput(result.OutputPath, cfg.Root); err != nil {
			return s.stageFailed(stageCtx, result, stageWrite, err)
		}
	}
	out := Output{Dir: result.OutputPath, Root: cfg.Root}
	written, err := out.Write(bundle)
	if err != nil {
		return s.stageFailed(stageCtx, result, stageWrite, err)
	}
	s.recorder.AddAssetBytes(written.Bytes)
	bm.Outputs = manifest.Outputs{Assets: written.Assets, Modules: written.Modules}
	s.stageDone(stageWrite, stageStart)
	observability.Info(stageCtx, s.logger, "Wrote output",
		logfields.Path(result.OutputPath),
		slog.Int("assets", len(written.Assets)),
		slog.Int("modules", len(written.Modules)))

	// Stage 3: feed.
	if cfg.Feed.Enabled {
		stageCtx = observability.WithStage(ctx, stageFeed)
		stageStart = time.Now()
		if err := s.writeFeed(stageCtx, cfg, chain, bundle, result.OutputPath); err != nil {
			return s.stageFailed(stageCtx, result, stageFeed, err)
		}
		s.stageDone(stageFeed, stageStart)
	}

	// Stage 4: manifest.
	stageCtx = observability.WithStage(ctx, stageManifest)
	stageStart = time.Now()
	bm.Status = string(BuildStatusSuccess)
	bm.Duration = s.now().Sub(start).Milliseconds()
	if err := bm.Write(result.OutputPath); err != nil {
		return s.stageFailed(stageCtx, result, stageManifest, err)
	}
	result.Manifest = bm
	s.stageDone(stageManifest, stageStart)

	return s.finish(ctx, result, nil)
}

func (s *DefaultBuildService) writeFeed(ctx context.Context, cfg *config.Config, chain *modules.Chain, bundle *Bundle, outDir string) error {
	id, err := chain.MustResolve(ctx, cfg.Feed.Source, "")
	if err != nil {
		return err
	}
	mod, ok := bundle.Module(id)
	if !ok {
		return errors.InternalError("feed source was not bundled").
			WithContext("specifier", cfg.Feed.Source).
			Build()
	}
	m, ok := mod.Data.(*content.Manifest)
	if !ok {
		return errors.ConfigError("feed source is not a content directory").
			WithContext("specifier", cfg.Feed.Source).
			Build()
	}

	loc, err := feed.ParseZone(cfg.Feed.Timezone)
	if err != nil {
		return err
	}

	docs := feed.NewDocumentCache(func(_ context.Context, slug string) (feed.Document, error) {
		return loadDocument(cfg.Root, m, bundle, slug)
	})
	w := feed.NewWriter(feed.Config{
		Origin:   cfg.Feed.Origin,
		Title:    cfg.Feed.Title,
		Logo:     cfg.Feed.Logo,
		Author:   cfg.Feed.Author,
		FileName: cfg.Feed.File,
		Location: loc,
		Limit:    cfg.Feed.Limit,
	}, docs, s.logger)

	target := filepath.Join(outDir, filepath.FromSlash(cfg.Feed.File))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create feed directory").
			WithContext("path", filepath.Dir(target)).
			Build()
	}
	return w.WriteFile(ctx, target, m)
}

// loadDocument reads a post's rendered document back from the emitted asset.
func loadDocument(root string, m *content.Manifest, bundle *Bundle, slug string) (feed.Document, error) {
	it, ok := m.Find(slug)
	if !ok {
		return feed.Document{}, errors.InternalError("feed entry not in manifest").
			WithContext("name", slug).
			Build()
	}
	rel, err := filepath.Rel(root, it.Path)
	if err != nil {
		return feed.Document{}, errors.WrapError(err, errors.CategoryInternal, "relativize post").Build()
	}
	asset, ok := bundle.FindAsset(filepath.ToSlash(rel))
	if !ok {
		return feed.Document{}, errors.InternalError("post document was not emitted").
			WithContext("path", it.Path).
			Build()
	}
	html, meta, err := document.Decode(asset.Source)
	if err != nil {
		return feed.Document{}, err
	}
	return feed.Document{HTML: html, Meta: meta}, nil
}

func (s *DefaultBuildService) unchanged(outDir string, bm *manifest.BuildManifest) (bool, string) {
	prev, err := manifest.Read(outDir)
	if err != nil || prev.Status != string(BuildStatusSuccess) {
		return false, ""
	}
	prevHash, err := prev.Hash()
	if err != nil {
		return false, ""
	}
	hash, err := bm.Hash()
	if err != nil {
		return false, ""
	}
	if prevHash != hash {
		return false, ""
	}
	return true, "no_changes"
}

func (s *DefaultBuildService) stageDone(stage string, start time.Time) {
	s.recorder.ObserveStageDuration(stage, time.Since(start))
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
}

func (s *DefaultBuildService) stageFailed(ctx context.Context, result *BuildResult, stage string, err error) (*BuildResult, error) {
	label := metrics.ResultFatal
	if isCanceled(err) {
		label = metrics.ResultCanceled
	}
	s.recorder.IncStageResult(stage, label)
	return s.finish(ctx, result, err)
}

// finish settles status, metrics and history for every exit path.
func (s *DefaultBuildService) finish(ctx context.Context, result *BuildResult, err error) (*BuildResult, error) {
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	outcome := metrics.BuildOutcomeSuccess
	switch {
	case err != nil && isCanceled(err):
		result.Status = BuildStatusCancelled
		outcome = metrics.BuildOutcomeCanceled
	case err != nil:
		result.Status = BuildStatusFailed
		outcome = metrics.BuildOutcomeFailed
	case result.Skipped:
		result.Status = BuildStatusSkipped
		outcome = metrics.BuildOutcomeSkipped
	default:
		result.Status = BuildStatusSuccess
	}
	s.recorder.IncBuildOutcome(outcome)
	s.recorder.ObserveBuildDuration(result.Duration)

	attrs := []slog.Attr{
		slog.String("status", string(result.Status)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
		logfields.Items(result.Items),
	}
	if err != nil {
		observability.Error(ctx, s.logger, "Build failed", append(attrs, logfields.Error(err))...)
	} else {
		observability.Info(ctx, s.logger, "Build finished", attrs...)
	}

	s.record(ctx, result, err)
	return result, err
}

func (s *DefaultBuildService) record(ctx context.Context, result *BuildResult, buildErr error) {
	if s.history == nil {
		return
	}
	run := history.Run{
		BuildID:   result.BuildID,
		StartedAt: result.StartTime,
		Duration:  result.Duration,
		Status:    string(result.Status),
		Entries:   result.Entries,
		Assets:    result.Assets,
		Items:     result.Items,
		OutputDir: result.OutputPath,
	}
	if buildErr != nil {
		run.Error = buildErr.Error()
	}
	if result.Manifest != nil {
		run.ConfigHash = result.Manifest.Inputs.ConfigHash
	}
	// The build outcome stands even when it cannot be recorded.
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		observability.Warn(ctx, s.logger, "Failed to record build history", logfields.Error(err))
	}
}

func isCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func configHash(cfg *config.Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	return manifest.SHA256(data)
}

// sources fingerprints the regular files among paths. Directories are
// covered by the files inside them.
func sources(root string, paths []string) []manifest.SourceInput {
	var out []manifest.SourceInput
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		// #nosec G304 -- p was read by the build moments ago.
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		name := p
		if rel, err := filepath.Rel(root, p); err == nil {
			name = filepath.ToSlash(rel)
		}
		out = append(out, manifest.SourceInput{Path: name, Fingerprint: manifest.Fingerprint(p, data)})
	}
	return out
}

// cleanOutput empties dir, refusing to touch the project root or any of its
// ancestors.
func cleanOutput(dir, root string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "resolve output directory").Build()
	}
	if rel, err := filepath.Rel(absDir, root); err == nil && filepath.IsLocal(rel) {
		return errors.ConfigError("refusing to clean an output directory that contains the project root").
			WithContext("path", absDir).
			Build()
	}
	if err := os.RemoveAll(absDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "clean output directory").
			WithContext("path", absDir).
			Build()
	}
	return nil
}
