package config

import "strings"

const (
	defaultOutputDir        = "dist"
	defaultFeedFile         = "rss.xml"
	defaultHighlightStyle   = "github"
	defaultDescriptionLimit = 200
	defaultGhostConfigPath  = "config.json"
	defaultGhostContentDir  = "content/blog"
)

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}

	if len(cfg.Markdown.Extensions) == 0 {
		cfg.Markdown.Extensions = []string{"gfm"}
	}
	if cfg.Markdown.Typographer == nil {
		on := true
		cfg.Markdown.Typographer = &on
	}
	if cfg.Markdown.UnsafeHTML == nil {
		on := true
		cfg.Markdown.UnsafeHTML = &on
	}
	if cfg.Markdown.HighlightStyle == "" {
		cfg.Markdown.HighlightStyle = defaultHighlightStyle
	}

	if cfg.Content.DescriptionLimit == 0 {
		cfg.Content.DescriptionLimit = defaultDescriptionLimit
	}
	if len(cfg.Content.Extensions) == 0 {
		cfg.Content.Extensions = []string{".md"}
	}
	for i, ext := range cfg.Content.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Content.Extensions[i] = ext
	}

	if cfg.Feed.File == "" {
		cfg.Feed.File = defaultFeedFile
	}
	cfg.Feed.Origin = strings.TrimRight(cfg.Feed.Origin, "/")

	if cfg.Ghost.ConfigPath == "" {
		cfg.Ghost.ConfigPath = defaultGhostConfigPath
	}
	if cfg.Ghost.ContentDir == "" {
		cfg.Ghost.ContentDir = defaultGhostContentDir
	}
}
