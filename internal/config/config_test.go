package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "entries:\n  - content:content/blog\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	require.Equal(t, abs, cfg.Root)
	require.Equal(t, filepath.Join(abs, "dist"), cfg.Output.Directory)
	require.Equal(t, []string{"gfm"}, cfg.Markdown.Extensions)
	require.True(t, *cfg.Markdown.Typographer)
	require.True(t, *cfg.Markdown.UnsafeHTML)
	require.Equal(t, "github", cfg.Markdown.HighlightStyle)
	require.Equal(t, 200, cfg.Content.DescriptionLimit)
	require.Equal(t, []string{".md"}, cfg.Content.Extensions)
	require.Equal(t, "rss.xml", cfg.Feed.File)
	require.Equal(t, filepath.Join(abs, "content/blog"), cfg.Ghost.ContentDir)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Empty(t, cfg.History.DBPath)
}

func TestLoadExpandsEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLOG_TEST_TITLE=From dotenv\nBLOG_TEST_ORIGIN=https://dotenv.example\n"), 0o600))
	t.Setenv("BLOG_TEST_ORIGIN", "https://env.example")

	path := writeConfig(t, dir, `entries: ["content:posts"]
feed:
  enabled: true
  source: content:posts
  title: ${BLOG_TEST_TITLE}
  origin: ${BLOG_TEST_ORIGIN}/
`)
	t.Cleanup(func() { _ = os.Unsetenv("BLOG_TEST_TITLE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "From dotenv", cfg.Feed.Title)
	require.Equal(t, "https://env.example", cfg.Feed.Origin)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		problem string
	}{
		{"no entries", "root: .\n", "entries"},
		{"empty entry", "entries: ['']\n", "entries[0]"},
		{"feed without source", "entries: [a.md]\nfeed: {enabled: true, origin: x, title: y}\n", "feed.source"},
		{"feed without origin", "entries: [a.md]\nfeed: {enabled: true, source: 'content:x', title: y}\n", "feed.origin"},
		{"bad log level", "entries: [a.md]\nlogging: {level: loud}\n", "logging.level"},
		{"negative concurrency", "entries: [a.md]\ncontent: {concurrency: -1}\n", "content.concurrency"},
		{"bad yaml", "entries: [\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.problem)
			require.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestParseNormalisesExtensionsAndLogging(t *testing.T) {
	cfg, err := Parse([]byte("entries: [a.md]\ncontent: {extensions: [MD, .markdown]}\nlogging: {level: ' WARNING ', format: JSON}\n"))
	require.NoError(t, err)
	require.Equal(t, []string{".md", ".markdown"}, cfg.Content.Extensions)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, LogLevelWarn, NormalizeLogLevel(cfg.Logging.Level))
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Parse([]byte("entries: [a.md]\nlogging: {level: error}\n"))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestPath(t *testing.T) {
	cfg := &Config{Root: "/srv/blog"}
	require.Equal(t, filepath.Join("/srv/blog", "dist"), cfg.Path("dist"))
	require.Equal(t, "/tmp/out", cfg.Path("/tmp/out"))
	require.Empty(t, cfg.Path(""))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	require.NoError(t, Init(path, false))
	err := Init(path, false)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NoError(t, Init(path, true))

	t.Setenv("BLOG_AUTHOR", "Jane")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"content:content/blog", "markdown:content/about.md"}, cfg.Entries)
	require.True(t, cfg.Feed.Enabled)
	require.Equal(t, "Jane", cfg.Feed.Author)
	require.Equal(t, filepath.Join(cfg.Root, ".blogbuilder/history.db"), cfg.History.DBPath)
}

func TestSlogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	require.Equal(t, "INFO", LogLevel("bogus").SlogLevel().String())
	require.Equal(t, "ERROR", LogLevelError.SlogLevel().String())
}
