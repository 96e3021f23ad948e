package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

func newTestExtractor() *Extractor {
	return New(Options{Markdown: markdown.DefaultOptions()})
}

func TestExtract_HeadingBecomesTitle(t *testing.T) {
	doc, err := newTestExtractor().Extract([]byte("# Hello\n\nWorld\n"))
	require.NoError(t, err)

	require.Equal(t, "Hello", doc.Meta[KeyTitle])
	require.Equal(t, "World", doc.Meta[KeyDescription])
	require.Contains(t, doc.HTML, "World")
	require.NotContains(t, doc.HTML, "<h1")
}

func TestExtract_FrontMatterIsPreservedAndOnlyGapsInferred(t *testing.T) {
	src := "---\ntitle: Given\ndescription: Explicit summary\ntags:\n  - go\n---\n\n![cover](/img/cover.jpg)\n\nFirst paragraph.\n"

	doc, err := newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.Equal(t, Meta{
		KeyTitle:       "Given",
		KeyDescription: "Explicit summary",
		"tags":         []any{"go"},
		KeyImage:       "/img/cover.jpg",
	}, doc.Meta)
}

func TestExtract_MalformedFrontMatterFailsSoft(t *testing.T) {
	src := "---\ntitle: [unclosed\n---\n\nBody text\n"

	doc, err := newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.NotContains(t, doc.Meta, KeyTitle)
	require.Equal(t, "Body text", doc.Meta[KeyDescription])
	require.NotContains(t, doc.HTML, "unclosed")
}

func TestExtract_UnterminatedFrontMatterIsBody(t *testing.T) {
	doc, err := newTestExtractor().Extract([]byte("---\ntitle: x\n\nBody\n"))
	require.NoError(t, err)
	require.NotContains(t, doc.Meta, KeyTitle)
	require.Contains(t, doc.HTML, "Body")
}

func TestExtract_TitleHeadingDedup(t *testing.T) {
	t.Run("duplicate heading is dropped", func(t *testing.T) {
		doc, err := newTestExtractor().Extract([]byte("---\ntitle: Hello World\n---\n\n#  hello world \n\nText\n"))
		require.NoError(t, err)
		require.Equal(t, "Hello World", doc.Meta[KeyTitle])
		require.NotContains(t, doc.HTML, "<h1")
	})

	t.Run("different heading is kept", func(t *testing.T) {
		doc, err := newTestExtractor().Extract([]byte("---\ntitle: Hello\n---\n\n# Something Else\n\nText\n"))
		require.NoError(t, err)
		require.Equal(t, "Hello", doc.Meta[KeyTitle])
		require.Contains(t, doc.HTML, "Something Else</h1>")
		require.Equal(t, "Text", doc.Meta[KeyDescription])
	})

	t.Run("kept heading alone gives no description", func(t *testing.T) {
		doc, err := newTestExtractor().Extract([]byte("---\ntitle: Foo\n---\n\n# Bar\n"))
		require.NoError(t, err)
		require.NotContains(t, doc.Meta, KeyDescription)
	})

	t.Run("level two heading is not a title", func(t *testing.T) {
		doc, err := newTestExtractor().Extract([]byte("## Section\n\nText\n"))
		require.NoError(t, err)
		require.NotContains(t, doc.Meta, KeyTitle)
	})
}

func TestExtract_ImageOnlyFromFirstTenLines(t *testing.T) {
	var b strings.Builder
	for i := range 12 {
		b.WriteString("Paragraph ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString("\n\n")
	}
	b.WriteString("![late](/late.png)\n")

	doc, err := newTestExtractor().Extract([]byte(b.String()))
	require.NoError(t, err)
	require.NotContains(t, doc.Meta, KeyImage)

	doc, err = newTestExtractor().Extract([]byte("Intro\n\n<img alt=\"x\" src='/early.png'>\n"))
	require.NoError(t, err)
	require.Equal(t, "/early.png", doc.Meta[KeyImage])
}

func TestExtract_DescriptionSkipsCaptionsAndAttribution(t *testing.T) {
	src := "<figure><img src=\"/a.jpg\"><figcaption>A caption</figcaption></figure>\n\nPhoto by Someone on Unsplash\n\nThe real first line.\n"

	doc, err := newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.Equal(t, "The real first line.", doc.Meta[KeyDescription])
	require.Equal(t, "/a.jpg", doc.Meta[KeyImage])
}

func TestExtract_DescriptionTruncation(t *testing.T) {
	long := strings.Repeat("a", 250)
	doc, err := newTestExtractor().Extract([]byte(long + "\n"))
	require.NoError(t, err)
	desc := doc.Meta.String(KeyDescription)
	require.Equal(t, strings.Repeat("a", 199)+"…", desc)
	require.Equal(t, 200, len([]rune(desc)))

	short := strings.Repeat("b", 150)
	doc, err = newTestExtractor().Extract([]byte(short + "\n"))
	require.NoError(t, err)
	require.Equal(t, short, doc.Meta[KeyDescription])
}

func TestExtract_EmptyBodyHasNoDescription(t *testing.T) {
	doc, err := newTestExtractor().Extract([]byte("---\ntitle: Only\n---\n"))
	require.NoError(t, err)
	require.Equal(t, Meta{KeyTitle: "Only"}, doc.Meta)
}

func TestExtract_UpdatedCollapse(t *testing.T) {
	cases := []struct {
		name        string
		published   string
		updated     string
		keepUpdated bool
	}{
		{"same minute", "2020-01-01T10:15:00", "2020-01-01T10:15:59", false},
		{"different minute", "2020-01-01T10:15", "2020-01-01T10:16", true},
		{"locale strings same minute", "1/2/2020, 10:15:00 AM", "1/2/2020, 10:15:30 AM", false},
		{"unparsable kept", "someday", "someday later", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "---\npublished: \"" + tc.published + "\"\nupdated: \"" + tc.updated + "\"\n---\n\nText\n"
			doc, err := newTestExtractor().Extract([]byte(src))
			require.NoError(t, err)
			_, has := doc.Meta[KeyUpdated]
			require.Equal(t, tc.keepUpdated, has)
		})
	}
}

func TestExtract_MissingPublishedDoesNotPanic(t *testing.T) {
	doc, err := newTestExtractor().Extract([]byte("---\nupdated: 2020-01-01\n---\n\nText\n"))
	require.NoError(t, err)
	require.Equal(t, "2020-01-01", doc.Meta[KeyUpdated])
}

func TestExtract_MetaDuplicatesCollapsed(t *testing.T) {
	src := "---\ntitle: T\nmeta_title: T\ndescription: D\nmeta_description: D\n---\n\nText\n"
	doc, err := newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.NotContains(t, doc.Meta, KeyMetaTitle)
	require.NotContains(t, doc.Meta, KeyMetaDescription)

	src = "---\ntitle: T\nmeta_title: Other\n---\n\nText\n"
	doc, err = newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.Equal(t, "Other", doc.Meta[KeyMetaTitle])
}

func TestExtract_PrivateKeysDropped(t *testing.T) {
	src := "---\ntitle: T\n_created: yesterday\n.hidden: true\nslug: t\n---\n\nText\n"
	doc, err := newTestExtractor().Extract([]byte(src))
	require.NoError(t, err)
	require.NotContains(t, doc.Meta, "_created")
	require.NotContains(t, doc.Meta, ".hidden")
	require.Equal(t, "t", doc.Meta[KeySlug])
}

func TestExtract_CRLFInput(t *testing.T) {
	doc, err := newTestExtractor().Extract([]byte("---\r\ntitle: Win\r\n---\r\n\r\nBody\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Win", doc.Meta[KeyTitle])
	require.Equal(t, "Body", doc.Meta[KeyDescription])
}

func TestExtract_Idempotent(t *testing.T) {
	src := []byte("---\npublished: 2021-03-04\n---\n# Title\n\n<img src=\"/x.png\">\n\nIt's a \"test\".\n")
	e := newTestExtractor()

	a, err := e.Extract(src)
	require.NoError(t, err)
	b, err := e.Extract(src)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestExtractFile_MissingFileIsFatal(t *testing.T) {
	_, err := newTestExtractor().ExtractFile(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestExtractFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("# On Disk\n\nHi\n"), 0o600))

	doc, err := newTestExtractor().ExtractFile(path)
	require.NoError(t, err)
	require.Equal(t, "On Disk", doc.Meta[KeyTitle])
}
