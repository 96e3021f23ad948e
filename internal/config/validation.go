package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// validate checks cfg after defaults are applied and canonicalises the
// logging enumerations. All problems are reported together.
func validate(cfg *Config) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(cfg.Entries) == 0 {
		add("entries: at least one entry specifier is required")
	}
	for i, entry := range cfg.Entries {
		if strings.TrimSpace(entry) == "" {
			add("entries[%d]: empty specifier", i)
		}
	}

	if cfg.Content.Concurrency < 0 {
		add("content.concurrency: must not be negative")
	}
	if cfg.Content.DescriptionLimit < 1 {
		add("content.description_limit: must be positive")
	}
	for i, ext := range cfg.Content.Extensions {
		if ext == "" || ext == "." {
			add("content.extensions[%d]: empty extension", i)
		}
	}

	if cfg.Feed.Enabled {
		if !strings.HasPrefix(cfg.Feed.Source, "content:") {
			add("feed.source: must be a content: specifier")
		}
		if cfg.Feed.Origin == "" {
			add("feed.origin: required when the feed is enabled")
		}
		if cfg.Feed.Title == "" {
			add("feed.title: required when the feed is enabled")
		}
	}
	if cfg.Feed.Limit < 0 {
		add("feed.limit: must not be negative")
	}

	level, err := logLevelNormalizer.Parse(cfg.Logging.Level)
	if err != nil {
		add("logging.level: %v", err)
	}
	format, err := logFormatNormalizer.Parse(cfg.Logging.Format)
	if err != nil {
		add("logging.format: %v", err)
	}

	if len(problems) > 0 {
		return errors.ConfigError("configuration validation failed: " + strings.Join(problems, "; ")).
			WithContext("problems", len(problems)).
			Build()
	}

	cfg.Logging.Level = string(level)
	cfg.Logging.Format = string(format)
	return nil
}
