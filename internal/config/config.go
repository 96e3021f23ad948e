// Package config loads the blogbuilder YAML configuration.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "blogbuilder.yaml"

// Config is the complete build configuration.
type Config struct {
	// Root is the project directory module specifiers resolve against.
	// Relative roots are taken from the config file's directory.
	Root     string         `yaml:"root"`
	Entries  []string       `yaml:"entries"`
	Output   OutputConfig   `yaml:"output"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Content  ContentConfig  `yaml:"content"`
	Feed     FeedConfig     `yaml:"feed"`
	Ghost    GhostConfig    `yaml:"ghost"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig controls where build output is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// MarkdownConfig configures the Markdown renderer.
type MarkdownConfig struct {
	Extensions     []string `yaml:"extensions"`
	Typographer    *bool    `yaml:"typographer,omitempty"`
	UnsafeHTML     *bool    `yaml:"unsafe_html,omitempty"`
	HighlightStyle string   `yaml:"highlight_style"`
}

// ContentConfig configures content directory aggregation.
type ContentConfig struct {
	Concurrency      int      `yaml:"concurrency"`
	DescriptionLimit int      `yaml:"description_limit"`
	Extensions       []string `yaml:"extensions"`
}

// FeedConfig configures the Atom feed written after a build.
type FeedConfig struct {
	Enabled bool `yaml:"enabled"`
	// Source is the content specifier whose manifest feeds the entries.
	Source   string `yaml:"source"`
	File     string `yaml:"file"`
	Origin   string `yaml:"origin"`
	Title    string `yaml:"title"`
	Logo     string `yaml:"logo"`
	Author   string `yaml:"author"`
	Timezone string `yaml:"timezone"`
	Limit    int    `yaml:"limit"`
}

// GhostConfig configures import-ghost.
type GhostConfig struct {
	ConfigPath    string `yaml:"config_path"`
	ContentDir    string `yaml:"content_dir"`
	IncludeDrafts bool   `yaml:"include_drafts"`
	Timezone      string `yaml:"timezone"`
}

// MetricsConfig enables the Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// HistoryConfig enables the SQLite build history when DBPath is set.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configPath, expands environment variables (after loading .env
// files next to it), applies defaults, validates and makes paths absolute.
func Load(configPath string) (*Config, error) {
	baseDir := filepath.Dir(configPath)
	if err := loadEnvFiles(baseDir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}

	if err := cfg.resolvePaths(baseDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates. Paths are left as written.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode config").
			UserAction().
			Build()
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(baseDir string) error {
	root := c.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve root").
			WithContext("root", c.Root).
			Build()
	}
	c.Root = abs

	c.Output.Directory = c.Path(c.Output.Directory)
	c.Ghost.ConfigPath = c.Path(c.Ghost.ConfigPath)
	c.Ghost.ContentDir = c.Path(c.Ghost.ContentDir)
	if c.Metrics.Textfile != "" {
		c.Metrics.Textfile = c.Path(c.Metrics.Textfile)
	}
	if c.History.DBPath != "" {
		c.History.DBPath = c.Path(c.History.DBPath)
	}
	return nil
}

// Path resolves p against Root unless it is already absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	typographer := true
	example := Config{
		Root:    ".",
		Entries: []string{"content:content/blog", "markdown:content/about.md"},
		Output: OutputConfig{
			Directory: "dist",
			Clean:     true,
		},
		Markdown: MarkdownConfig{
			Extensions:     []string{"gfm"},
			Typographer:    &typographer,
			HighlightStyle: "github",
		},
		Content: ContentConfig{
			DescriptionLimit: 200,
			Extensions:       []string{".md"},
		},
		Feed: FeedConfig{
			Enabled:  true,
			Source:   "content:content/blog",
			File:     "rss.xml",
			Origin:   "https://example.com",
			Title:    "My Blog",
			Logo:     "/assets/icon.png",
			Author:   "${BLOG_AUTHOR}",
			Timezone: "UTC",
		},
		Ghost: GhostConfig{
			ConfigPath: "config.json",
			ContentDir: "content/blog",
		},
		History: HistoryConfig{DBPath: ".blogbuilder/history.db"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
