package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/mdmodule"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func post(published, title string) string {
	return "---\ntitle: " + title + "\npublished: \"" + published + "\"\n---\n\nBody of " + title + ".\n"
}

func TestTree_SkipsDotEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "a")
	writeFile(t, filepath.Join(dir, ".draft.md"), "x")
	writeFile(t, filepath.Join(dir, ".git", "config"), "x")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "b")
	writeFile(t, filepath.Join(dir, "sub", ".hidden", "c.md"), "c")
	writeFile(t, filepath.Join(dir, "sub", "notes.txt"), "n")

	files, err := Tree(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"a.md", "sub/b.md", "sub/notes.txt"}, files)
}

func TestTree_Errors(t *testing.T) {
	_, err := Tree(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))

	file := filepath.Join(t.TempDir(), "file.md")
	writeFile(t, file, "x")
	_, err = Tree(file)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestAggregate_SortsNewestFirst(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	writeFile(t, filepath.Join(dir, "a.md"), post("2021-01-01", "A"))
	writeFile(t, filepath.Join(dir, "b.md"), post("2022-01-01", "B"))

	m, err := NewAggregator(Options{}).Aggregate(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, m.Items, 2)
	require.Equal(t, "b", m.Items[0].Name)
	require.Equal(t, "a", m.Items[1].Name)
}

func TestAggregate_NamesAndSlugs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	writeFile(t, filepath.Join(dir, "2020", "first.md"), post("2020-05-01", "First"))
	writeFile(t, filepath.Join(dir, "renamed.md"), "---\nslug: custom\npublished: 2020-06-01\n---\nText\n")
	writeFile(t, filepath.Join(dir, "image.png"), "not markdown")

	m, err := NewAggregator(Options{}).Aggregate(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, m.Items, 2)

	custom, ok := m.Find("custom")
	require.True(t, ok)
	require.NotContains(t, custom.Meta, extract.KeySlug)
	require.Equal(t, filepath.Join(dir, "renamed.md"), custom.Path)

	first, ok := m.Find("2020/first")
	require.True(t, ok)
	require.Equal(t, "First", first.Meta[extract.KeyTitle])
	require.Equal(t, "Body of First.", first.Meta[extract.KeyDescription])
}

func TestAggregate_UnquotedDatesAndNestedMapsEncode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	writeFile(t, filepath.Join(dir, "c.md"), "---\npublished: 2021-01-01\nseries:\n  1: intro\n---\n# C\n\nBody\n")

	m, err := NewAggregator(Options{}).Aggregate(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	require.Equal(t, "2021-01-01", m.Items[0].Meta[extract.KeyPublished])

	code, _, err := GenerateModule(m)
	require.NoError(t, err)
	require.Contains(t, code, `{ name: "c", title: "C", description: "Body", published: "2021-01-01", series: {"1":"intro"}, url: url0 }`)
}

func TestAggregate_DuplicateNamesFail(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	writeFile(t, filepath.Join(dir, "a.md"), post("2021-01-01", "A"))
	writeFile(t, filepath.Join(dir, "b.md"), "---\nslug: a\n---\nText\n")

	_, err := NewAggregator(Options{}).Aggregate(t.Context(), dir)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryContent))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	name, _ := ce.Context().Get("name")
	require.Equal(t, "a", name)
}

func TestAggregate_Deterministic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	for i, d := range []string{"2020-01-01", "2020-01-01", "", "2019-12-31", "garbage", "2021-07-04T10:00"} {
		name := string(rune('a' + i))
		writeFile(t, filepath.Join(dir, name+".md"), post(d, strings.ToUpper(name)))
	}

	agg := NewAggregator(Options{Concurrency: 3})
	first, err := agg.Aggregate(t.Context(), dir)
	require.NoError(t, err)
	second, err := agg.Aggregate(t.Context(), dir)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var names []string
	for _, it := range first.Items {
		names = append(names, it.Name)
	}
	require.Equal(t, []string{"f", "a", "b", "d", "c", "e"}, names)
}

func TestSortItems_PublishedOrder(t *testing.T) {
	items := []Item{
		{Name: "old", Meta: extract.Meta{extract.KeyPublished: "2001-01-01"}},
		{Name: "none", Meta: extract.Meta{}},
		{Name: "new", Meta: extract.Meta{extract.KeyPublished: "2024-02-03T04:05:06Z"}},
		{Name: "mid", Meta: extract.Meta{extract.KeyPublished: "1/2/2010, 3:04:05 PM"}},
	}
	SortItems(items)

	for i := 0; i+1 < len(items); i++ {
		a, okA := items[i].Published()
		b, okB := items[i+1].Published()
		if okA && okB {
			require.False(t, b.After(a), "%s before %s", items[i].Name, items[i+1].Name)
		}
	}
	require.Equal(t, "new", items[0].Name)
	require.Equal(t, "none", items[3].Name)
}

func TestGenerateModule(t *testing.T) {
	dir := filepath.FromSlash("/site/content/blog")
	m := &Manifest{
		Dir: dir,
		Items: []Item{
			{
				Name: "b",
				Path: filepath.Join(dir, "b.md"),
				Meta: extract.Meta{
					extract.KeyPublished: "2022-01-01",
					extract.KeyTitle:     "B \"quoted\"",
					extract.KeyFeatured:  true,
					"tags":               []any{"x"},
					"cover-alt":          "alt",
					extract.KeyImage:     nil,
				},
			},
			{Name: "a", Path: filepath.Join(dir, "a.md"), Meta: extract.Meta{extract.KeyPublished: "2021-01-01"}},
		},
	}

	code, imports, err := GenerateModule(m)
	require.NoError(t, err)
	require.Equal(t, []string{"markdown:./blog/b.md", "markdown:./blog/a.md"}, imports)
	require.Equal(t, `import url0 from "markdown:./blog/b.md";
import url1 from "markdown:./blog/a.md";
export default [{ name: "b", title: "B \"quoted\"", published: "2022-01-01", featured: true, "cover-alt": "alt", tags: ["x"], url: url0 },
{ name: "a", published: "2021-01-01", url: url1 }];
`, code)
	require.Equal(t, imports, modules.ScanImports(code))
}

func TestGenerateModule_Empty(t *testing.T) {
	code, imports, err := GenerateModule(&Manifest{Dir: "/x"})
	require.NoError(t, err)
	require.Empty(t, imports)
	require.Equal(t, "export default [];\n", code)
}

func TestAggregator_ResolveAndLoadThroughChain(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "content", "blog")
	writeFile(t, filepath.Join(dir, "a.md"), post("2021-01-01", "A"))
	writeFile(t, filepath.Join(dir, "b.md"), post("2022-01-01", "B"))
	writeFile(t, filepath.Join(root, "index.js"), "import posts from \"content:./content/blog\";\n")

	agg := NewAggregator(Options{Root: root})
	loader := mdmodule.NewLoader(mdmodule.Options{Root: root})
	chain := modules.NewChain(nil, agg, loader, modules.NewFileHandler(root))

	entry, err := chain.MustResolve(t.Context(), "./index.js", "")
	require.NoError(t, err)

	id, err := chain.MustResolve(t.Context(), "content:./content/blog", entry)
	require.NoError(t, err)
	require.Equal(t, modules.Virtual(Scheme, dir), id)

	res, err := chain.Resolve(t.Context(), "content:./content/missing", entry, "")
	require.NoError(t, err)
	require.False(t, res.Handled())

	lc := modules.NewCollector()
	mod, err := chain.Load(t.Context(), id, lc)
	require.NoError(t, err)
	require.Equal(t, []string{"markdown:./blog/b.md", "markdown:./blog/a.md"}, mod.Imports)
	require.Contains(t, lc.WatchFiles(), dir)

	manifest, ok := mod.Data.(*Manifest)
	require.True(t, ok)
	require.Equal(t, "b", manifest.Items[0].Name)

	// Item imports resolve relative to the content module and land on the
	// item's own file.
	for i, spec := range mod.Imports {
		itemID, err := chain.MustResolve(t.Context(), spec, id)
		require.NoError(t, err)
		require.Equal(t, modules.Virtual(mdmodule.Scheme, manifest.Items[i].Path), itemID)
	}
}
