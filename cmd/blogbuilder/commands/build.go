package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Override output.directory" type:"path"`
	Watch         bool   `short:"w" help:"Rebuild whenever an input changes"`
	SkipUnchanged bool   `name:"skip-unchanged" help:"Leave the output alone when no input changed since the last build"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := build.NewBuildService(g.Logger)
	var recorder *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
		svc.WithRecorder(recorder)
	}
	closeHistory, err := attachHistory(g.Logger, cfg, svc)
	if err != nil {
		return err
	}
	defer closeHistory()

	req := build.BuildRequest{
		Config:    cfg,
		OutputDir: b.Output,
		Options:   build.BuildOptions{SkipIfUnchanged: b.SkipUnchanged},
	}
	run := func(ctx context.Context) (*build.BuildResult, error) {
		result, err := svc.Run(ctx, req)
		if recorder != nil {
			if werr := recorder.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
				g.Logger.Warn("Failed to write metrics textfile", logfields.Error(werr))
			}
		}
		if err == nil {
			printResult(os.Stdout, result)
		}
		return result, err
	}

	if !b.Watch {
		_, err := run(ctx)
		return err
	}

	outDir := b.Output
	if outDir == "" {
		outDir = cfg.Output.Directory
	}
	w, err := watch.New(watch.Options{
		Always:   []string{root.Config},
		Fallback: []string{cfg.Root},
		Ignore:   []string{outDir},
		Logger:   g.Logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	g.Logger.Info("Watching for changes; press Ctrl+C to stop")
	return w.Run(ctx, func(ctx context.Context) ([]string, error) {
		result, err := run(ctx)
		if result == nil {
			return nil, err
		}
		return result.WatchFiles, err
	})
}

// attachHistory wires the configured history store into svc. A database
// that cannot be opened is logged as a warning and the build runs without it.
func attachHistory(logger *slog.Logger, cfg *config.Config, svc *build.DefaultBuildService) (func(), error) {
	if cfg.History.DBPath == "" {
		return func() {}, nil
	}
	store, err := openHistory(cfg)
	if err != nil {
		if !errors.HasCategory(err, errors.CategoryHistory) {
			return nil, err
		}
		errors.LogError(logger, errors.WrapError(err, errors.CategoryHistory, "Build history unavailable; continuing without it").
			Warning().
			Build())
		return func() {}, nil
	}
	svc.WithHistory(store)
	return func() { _ = store.Close() }, nil
}

func openHistory(cfg *config.Config) (*history.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.History.DBPath), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create history directory").
			WithContext("path", cfg.History.DBPath).
			Build()
	}
	return history.NewSQLiteStore(cfg.History.DBPath)
}

func printResult(w io.Writer, r *build.BuildResult) {
	if r.Skipped {
		_, _ = fmt.Fprintf(w, "Build %s skipped (%s)\n", r.BuildID, r.SkipReason)
		return
	}
	_, _ = fmt.Fprintf(w, "Build %s %s in %s: %d modules, %d assets, %d content items -> %s\n",
		r.BuildID, r.Status, r.Duration.Round(time.Millisecond), r.Modules, r.Assets, r.Items, r.OutputPath)
}
