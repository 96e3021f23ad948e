// Package feed renders an Atom feed for a content manifest. Each entry embeds
// the post's rendered HTML, fetched through a DocumentCache.
package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"html"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

const atomNS = "http://www.w3.org/2005/Atom"

// Config describes the site the feed belongs to.
type Config struct {
	// Origin is the site URL without a trailing slash.
	Origin string
	Title  string
	// Logo is a site-relative path.
	Logo   string
	Author string
	// FileName is the feed's path below the origin, e.g. "rss.xml".
	FileName string
	// Location interprets zone-less post dates. Defaults to UTC.
	Location *time.Location
	// Limit caps the number of entries; zero means all.
	Limit int
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Logo    string      `xml:"logo,omitempty"`
	Link    atomLink    `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Title   string      `xml:"title"`
	Link    atomLink    `xml:"link"`
	Author  *atomAuthor `xml:"author,omitempty"`
	Summary string      `xml:"summary,omitempty"`
	Content atomContent `xml:"content"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",cdata"`
}

// Writer renders feeds.
type Writer struct {
	cfg    Config
	docs   *DocumentCache
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter creates a Writer fetching post bodies through docs.
func NewWriter(cfg Config, docs *DocumentCache, logger *slog.Logger) *Writer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FileName == "" {
		cfg.FileName = "rss.xml"
	}
	cfg.Origin = strings.TrimSuffix(cfg.Origin, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{cfg: cfg, docs: docs, logger: logger, now: time.Now}
}

// Render writes the feed for manifest to w.
func (fw *Writer) Render(ctx context.Context, w io.Writer, m *content.Manifest) error {
	items := m.Items
	if fw.cfg.Limit > 0 && len(items) > fw.cfg.Limit {
		items = items[:fw.cfg.Limit]
	}

	feed := atomFeed{
		Xmlns: atomNS,
		ID:    fw.cfg.Origin + "/",
		Title: fw.cfg.Title,
		Link:  atomLink{Href: fw.cfg.Origin + "/" + fw.cfg.FileName, Rel: "self"},
	}
	if fw.cfg.Logo != "" {
		feed.Logo = fw.cfg.Origin + fw.cfg.Logo
	}
	feed.Updated = fw.timestamp(fw.now())
	if len(items) > 0 {
		if t, ok := fw.updated(items[0]); ok {
			feed.Updated = fw.timestamp(t)
		}
	}

	for _, it := range items {
		entry, err := fw.entry(ctx, it, feed.Updated)
		if err != nil {
			return err
		}
		feed.Entries = append(feed.Entries, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if err := enc.Encode(feed); err != nil {
		return errors.WrapError(err, errors.CategoryBuild, "encode feed").Build()
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile renders the feed to path.
func (fw *Writer) WriteFile(ctx context.Context, path string, m *content.Manifest) error {
	var buf bytes.Buffer
	if err := fw.Render(ctx, &buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write feed").
			WithContext("path", path).
			Build()
	}
	fw.logger.Info("Wrote feed", logfields.Path(path), logfields.Items(len(m.Items)))
	return nil
}

func (fw *Writer) entry(ctx context.Context, it content.Item, fallback string) (atomEntry, error) {
	doc, err := fw.docs.Get(ctx, it.Name)
	if err != nil {
		return atomEntry{}, err
	}

	title := it.Meta.String(extract.KeyTitle)
	body := doc.HTML
	image := extract.Meta(doc.Meta).String(extract.KeyImage)
	if image == "" {
		image = it.Meta.String(extract.KeyImage)
	}
	if image != "" {
		body = `<img src="` + html.EscapeString(image) + `" alt="` + html.EscapeString(title) + "\"><br />\n\n" + body
	}

	entry := atomEntry{
		ID:      fw.cfg.Origin + "/" + it.Name,
		Updated: fallback,
		Title:   title,
		Link:    atomLink{Href: fw.cfg.Origin + "/" + it.Name},
		Summary: it.Meta.String(extract.KeyDescription),
		Content: atomContent{Type: "html", Body: "\n" + body + "\n"},
	}
	if t, ok := fw.updated(it); ok {
		entry.Updated = fw.timestamp(t)
	}
	if fw.cfg.Author != "" {
		entry.Author = &atomAuthor{Name: fw.cfg.Author}
	}
	return entry, nil
}

// updated returns the item's update date, or its publication date, read in
// the configured zone.
func (fw *Writer) updated(it content.Item) (time.Time, bool) {
	for _, key := range []string{extract.KeyUpdated, extract.KeyPublished} {
		if t, ok := extract.ParseDateIn(it.Meta[key], fw.cfg.Location); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (fw *Writer) timestamp(t time.Time) string {
	return t.In(fw.cfg.Location).Format(time.RFC3339)
}
