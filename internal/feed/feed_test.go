package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/extract"
)

func testManifest() *content.Manifest {
	return &content.Manifest{
		Dir: "/site/content/blog",
		Items: []content.Item{
			{Name: "newer", Meta: extract.Meta{
				extract.KeyTitle:       "Newer & better",
				extract.KeyDescription: "Second post",
				extract.KeyPublished:   "2022-01-01T10:00",
				extract.KeyUpdated:     "2022-02-01T08:30",
			}},
			{Name: "older", Meta: extract.Meta{
				extract.KeyTitle:     "Older",
				extract.KeyPublished: "2021-01-01T10:00",
				extract.KeyImage:     "/img/older.jpg",
			}},
		},
	}
}

func staticDocs(docs map[string]Document) *DocumentCache {
	return NewDocumentCache(func(_ context.Context, slug string) (Document, error) {
		doc, ok := docs[slug]
		if !ok {
			return Document{}, fmt.Errorf("no document %q", slug)
		}
		return doc, nil
	})
}

func TestWriter_Render(t *testing.T) {
	loc, err := ParseZone("+0100")
	require.NoError(t, err)

	docs := staticDocs(map[string]Document{
		"newer": {HTML: "<p>New ]]> body</p>", Meta: map[string]any{"image": "/img/new.png"}},
		"older": {HTML: "<p>Old body</p>", Meta: map[string]any{}},
	})
	w := NewWriter(Config{
		Origin:   "https://example.com/",
		Title:    "Blog",
		Logo:     "/logo.png",
		Author:   "Someone",
		Location: loc,
	}, docs, nil)

	var buf bytes.Buffer
	require.NoError(t, w.Render(t.Context(), &buf, testManifest()))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, out, `<feed xmlns="http://www.w3.org/2005/Atom">`)
	require.Contains(t, out, `<link href="https://example.com/rss.xml" rel="self">`)
	require.Contains(t, out, `<logo>https://example.com/logo.png</logo>`)

	var parsed struct {
		Updated string `xml:"updated"`
		Entries []struct {
			ID      string `xml:"id"`
			Updated string `xml:"updated"`
			Title   string `xml:"title"`
			Summary string `xml:"summary"`
			Author  string `xml:"author>name"`
			Content string `xml:"content"`
		} `xml:"entry"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))

	require.Equal(t, "2022-02-01T08:30:00+01:00", parsed.Updated)
	require.Len(t, parsed.Entries, 2)

	newer := parsed.Entries[0]
	require.Equal(t, "https://example.com/newer", newer.ID)
	require.Equal(t, "Newer & better", newer.Title)
	require.Equal(t, "Second post", newer.Summary)
	require.Equal(t, "Someone", newer.Author)
	require.Equal(t, "\n<img src=\"/img/new.png\" alt=\"Newer &amp; better\"><br />\n\n<p>New ]]> body</p>\n", newer.Content)

	older := parsed.Entries[1]
	require.Equal(t, "2021-01-01T10:00:00+01:00", older.Updated)
	require.Contains(t, older.Content, `<img src="/img/older.jpg" alt="Older">`)
	require.Equal(t, 2, docs.Len())
}

func TestWriter_Limit(t *testing.T) {
	docs := staticDocs(map[string]Document{"newer": {HTML: "x"}, "older": {HTML: "y"}})
	w := NewWriter(Config{Origin: "https://example.com", Limit: 1}, docs, nil)

	var buf bytes.Buffer
	require.NoError(t, w.Render(t.Context(), &buf, testManifest()))
	require.Equal(t, 1, strings.Count(buf.String(), "<entry>"))
	require.Equal(t, 1, docs.Len())
}

func TestWriter_MissingDocumentFails(t *testing.T) {
	w := NewWriter(Config{Origin: "https://example.com"}, staticDocs(nil), nil)
	require.Error(t, w.Render(t.Context(), &bytes.Buffer{}, testManifest()))
}

func TestWriter_EmptyManifestUsesNow(t *testing.T) {
	w := NewWriter(Config{Origin: "https://example.com"}, staticDocs(nil), nil)
	w.now = func() time.Time { return time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, w.Render(t.Context(), &buf, &content.Manifest{}))
	require.Contains(t, buf.String(), "<updated>2023-05-06T07:08:09Z</updated>")
}

func TestWriter_WriteFile(t *testing.T) {
	docs := staticDocs(map[string]Document{"newer": {HTML: "x"}, "older": {HTML: "y"}})
	w := NewWriter(Config{Origin: "https://example.com"}, docs, nil)

	path := filepath.Join(t.TempDir(), "rss.xml")
	require.NoError(t, w.WriteFile(t.Context(), path, testManifest()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "<entry>")
}

func TestDocumentCache(t *testing.T) {
	calls := 0
	cache := NewDocumentCache(func(_ context.Context, slug string) (Document, error) {
		calls++
		if slug == "bad" {
			return Document{}, fmt.Errorf("boom")
		}
		return Document{HTML: slug}, nil
	})

	for range 3 {
		doc, err := cache.Get(t.Context(), "a")
		require.NoError(t, err)
		require.Equal(t, "a", doc.HTML)
	}
	require.Equal(t, 1, calls)

	_, err := cache.Get(t.Context(), "bad")
	require.Error(t, err)
	_, err = cache.Get(t.Context(), "bad")
	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, 1, cache.Len())
}

func TestParseZone(t *testing.T) {
	cases := map[string]int{
		"":         0,
		"+0100":    3600,
		"-07:00":   -7 * 3600,
		"GMT+0530": 5*3600 + 30*60,
	}
	ref := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for tz, want := range cases {
		loc, err := ParseZone(tz)
		require.NoError(t, err, tz)
		_, offset := ref.In(loc).Zone()
		require.Equal(t, want, offset, tz)
	}

	loc, err := ParseZone("Europe/Oslo")
	if err == nil {
		require.Equal(t, "Europe/Oslo", loc.String())
	}

	_, err = ParseZone("Not/AZone")
	require.Error(t, err)
}
