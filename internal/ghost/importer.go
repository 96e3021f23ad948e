// Package ghost converts a Ghost CMS JSON export into site settings and one
// Markdown file per post.
package ghost

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// DateLayout is how imported dates are written into front matter.
const DateLayout = "1/2/2006, 3:04:05 PM"

var (
	keptSettings     = regexp.MustCompile(`^(navigation|permalinks|cover|logo|title|description|postsPerPage)$`)
	injectedSettings = []string{"ghost_head", "ghost_foot"}

	// fieldOrder is the key order of generated front matter.
	fieldOrder = []string{
		"slug", "status", "featured", "title", "description", "image",
		"published", "updated", "_created", "meta_title", "meta_description",
	}
)

// Options configures an import.
type Options struct {
	// ConfigPath receives the filtered site settings as JSON.
	ConfigPath string
	// ContentDir receives one <slug>.md file per post.
	ContentDir string
	// IncludeDrafts also imports posts that are not published; their status
	// is kept in the front matter.
	IncludeDrafts bool
	// Location is the zone dates are written in. Defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// Result summarises an import.
type Result struct {
	ExportedAt time.Time
	Settings   map[string]any
	Written    []string
	Skipped    int
}

// Importer performs Ghost imports.
type Importer struct {
	opts Options
}

// NewImporter creates an Importer.
func NewImporter(opts Options) *Importer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{opts: opts}
}

// ImportFile reads a Ghost export from path and imports it.
func (im *Importer) ImportFile(path string) (*Result, error) {
	// #nosec G304 -- path is supplied by the operator on the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read ghost export").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return im.Import(data)
}

// Import converts an export document.
func (im *Importer) Import(data []byte) (*Result, error) {
	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "parse ghost export").Build()
	}
	if len(export.DB) == 0 {
		return nil, errors.ValidationError("malformed ghost export: missing top-level db key").Build()
	}
	db := export.DB[0]

	res := &Result{}
	if t, ok := parseTime(db.Meta.ExportedOn); ok {
		res.ExportedAt = t
		im.opts.Logger.Info("Restoring Ghost export", slog.Time("exported_on", t))
	}

	res.Settings = im.settings(db.Data.Settings)
	if err := im.writeSettings(res.Settings); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(im.opts.ContentDir, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create content directory").
			WithContext("path", im.opts.ContentDir).
			Build()
	}

	for _, p := range sortedPosts(db.Data.Posts) {
		if p.Status != "published" && !im.opts.IncludeDrafts {
			res.Skipped++
			continue
		}
		path, err := im.writePost(p)
		if err != nil {
			return nil, err
		}
		res.Written = append(res.Written, path)
	}
	im.opts.Logger.Info("Imported Ghost posts",
		logfields.Items(len(res.Written)),
		slog.Int("skipped", res.Skipped),
		logfields.Path(im.opts.ContentDir))
	return res, nil
}

func (im *Importer) settings(in []setting) map[string]any {
	out := map[string]any{"title": nil, "description": nil, "logo": nil}
	for _, s := range in {
		value := s.decodedValue()
		if !keptSettings.MatchString(s.Key) {
			if slices.Contains(injectedSettings, s.Key) {
				if text := cast.ToString(value); strings.TrimSpace(text) != "" {
					im.opts.Logger.Warn("Ignoring injected code setting", logfields.Name(s.Key), slog.String("value", text))
				}
			}
			continue
		}
		out[s.Key] = value
	}
	return out
}

func (im *Importer) writeSettings(settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "\t")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode settings").Build()
	}
	if err := os.MkdirAll(filepath.Dir(im.opts.ConfigPath), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create settings directory").
			WithContext("path", im.opts.ConfigPath).
			Build()
	}
	if err := os.WriteFile(im.opts.ConfigPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write settings").
			WithContext("path", im.opts.ConfigPath).
			Build()
	}
	im.opts.Logger.Info("Wrote settings", logfields.Path(im.opts.ConfigPath))
	return nil
}

// meta returns the front matter fields for p with empty values omitted.
func (im *Importer) meta(p post) map[string]any {
	meta := map[string]any{
		"slug":             p.Slug,
		"title":            p.Title,
		"description":      firstNonEmpty(p.Description, p.MetaDescription),
		"image":            firstNonEmpty(p.Image, p.FeatureImage),
		"meta_title":       p.MetaTitle,
		"meta_description": p.MetaDescription,
	}
	if p.Status != "published" {
		meta["status"] = p.Status
	}
	if cast.ToBool(p.Featured) {
		meta["featured"] = true
	}
	published, hasPublished := parseTime(p.PublishedAt)
	if hasPublished {
		meta["published"] = im.formatDate(published)
	}
	if updated, ok := parseTime(p.UpdatedAt); ok && !(hasPublished && updated.Equal(published)) {
		meta["updated"] = im.formatDate(updated)
	}
	if created, ok := parseTime(p.CreatedAt); ok {
		meta["_created"] = im.formatDate(created)
	}

	for k, v := range meta {
		if s, ok := v.(string); ok && s == "" {
			delete(meta, k)
		}
	}
	return meta
}

func (im *Importer) writePost(p post) (string, error) {
	if p.Slug == "" || strings.ContainsAny(p.Slug, `/\`) || strings.HasPrefix(p.Slug, ".") {
		return "", errors.ValidationError("ghost post has an unusable slug").
			WithContext("slug", p.Slug).
			WithContext("title", p.Title).
			Build()
	}
	fm, err := frontmatter.SerializeYAML(im.meta(p), fieldOrder...)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "serialize post front matter").
			WithContext("slug", p.Slug).
			Build()
	}
	body := p.Markdown
	if body == "" {
		body = p.HTML
	}

	path := filepath.Join(im.opts.ContentDir, p.Slug+".md")
	if err := os.WriteFile(path, frontmatter.Join(fm, []byte(body)), 0o600); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "write post").
			WithContext("path", path).
			Build()
	}
	return path, nil
}

func (im *Importer) formatDate(t time.Time) string {
	return t.In(im.opts.Location).Format(DateLayout)
}

// sortedPosts orders posts oldest first so a later post wins a slug clash.
func sortedPosts(posts []post) []post {
	out := slices.Clone(posts)
	slices.SortStableFunc(out, func(a, b post) int {
		ta, _ := parseTime(a.PublishedAt)
		tb, _ := parseTime(b.PublishedAt)
		return ta.Compare(tb)
	})
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
