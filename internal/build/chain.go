package build

import (
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/mdmodule"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// NewExtractor builds the shared extractor for cfg. Both the content
// aggregator and the markdown loader use it, so they render identically.
func NewExtractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	mdOpts := markdown.Options{
		Extensions: cfg.Markdown.Extensions,
		Highlight:  markdown.ChromaHighlighter(cfg.Markdown.HighlightStyle),
	}
	if cfg.Markdown.Typographer != nil {
		mdOpts.Typographer = *cfg.Markdown.Typographer
	}
	if cfg.Markdown.UnsafeHTML != nil {
		mdOpts.Unsafe = *cfg.Markdown.UnsafeHTML
	}
	return extract.New(extract.Options{
		Markdown:         mdOpts,
		DescriptionLimit: cfg.Content.DescriptionLimit,
		Logger:           logger,
	})
}

// NewChain wires the content aggregator, the markdown loader and plain
// files, in that order.
func NewChain(cfg *config.Config, logger *slog.Logger) *modules.Chain {
	if logger == nil {
		logger = slog.Default()
	}
	extractor := NewExtractor(cfg, logger)
	return modules.NewChain(logger,
		content.NewAggregator(content.Options{
			Root:        cfg.Root,
			Extractor:   extractor,
			Extensions:  cfg.Content.Extensions,
			Concurrency: cfg.Content.Concurrency,
			Logger:      logger,
		}),
		mdmodule.NewLoader(mdmodule.Options{
			Root:      cfg.Root,
			Extractor: extractor,
			Logger:    logger,
		}),
		modules.NewFileHandler(cfg.Root),
	)
}
