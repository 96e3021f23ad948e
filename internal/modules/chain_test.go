package modules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// prefixHandler claims specifiers starting with "<name>:" and generates a
// module importing nothing.
type prefixHandler struct {
	name  string
	calls int
}

func (h *prefixHandler) Name() string { return h.name }

func (h *prefixHandler) TryResolve(_ context.Context, spec string, _ ModuleID, _ Resolver) (Resolution, error) {
	h.calls++
	rest, ok := strings.CutPrefix(spec, h.name+":")
	if !ok {
		return Unhandled(), nil
	}
	return Resolved(Virtual(h.name, rest)), nil
}

func (h *prefixHandler) Load(_ context.Context, id ModuleID, _ LoadContext) (*Module, error) {
	if !id.HasScheme(h.name) {
		return nil, nil
	}
	return &Module{Code: "export default " + `"` + id.Path() + `";`}, nil
}

func TestChain_FirstClaimWins(t *testing.T) {
	a := &prefixHandler{name: "a"}
	b := &prefixHandler{name: "b"}
	chain := NewChain(nil, a, b)

	res, err := chain.Resolve(t.Context(), "a:x", "", "")
	require.NoError(t, err)
	require.Equal(t, Virtual("a", "x"), res.ID())
	require.Equal(t, 0, b.calls)

	res, err = chain.Resolve(t.Context(), "b:y", "", "")
	require.NoError(t, err)
	require.Equal(t, Virtual("b", "y"), res.ID())

	res, err = chain.Resolve(t.Context(), "c:z", "", "")
	require.NoError(t, err)
	require.False(t, res.Handled())
}

func TestChain_Skip(t *testing.T) {
	a := &prefixHandler{name: "a"}
	chain := NewChain(nil, a)

	res, err := chain.Resolve(t.Context(), "a:x", "", "a")
	require.NoError(t, err)
	require.False(t, res.Handled())
	require.Equal(t, 0, a.calls)
}

func TestChain_MustResolve(t *testing.T) {
	chain := NewChain(nil, &prefixHandler{name: "a"})

	_, err := chain.MustResolve(t.Context(), "nope", "")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryResolve))
}

func TestChain_Load(t *testing.T) {
	chain := NewChain(nil, &prefixHandler{name: "a"}, &prefixHandler{name: "b"})
	lc := NewCollector()

	mod, err := chain.Load(t.Context(), Virtual("b", "y"), lc)
	require.NoError(t, err)
	require.Equal(t, Virtual("b", "y"), mod.ID)
	require.Equal(t, `export default "y";`, mod.Code)

	_, err = chain.Load(t.Context(), Virtual("zzz", "y"), lc)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryResolve))
}

func TestChain_CanceledContext(t *testing.T) {
	chain := NewChain(nil, &prefixHandler{name: "a"})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := chain.Resolve(ctx, "a:x", "", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileHandler(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o750))
	entry := "import posts from 'content:./content/blog';\nimport './lib/util.js';\nexport { x } from \"./lib/util.js\";\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.js"), []byte(entry), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "util.js"), []byte("export const x = 1;\n"), 0o600))

	h := NewFileHandler(root)
	chain := NewChain(nil, h)

	id, err := chain.MustResolve(t.Context(), "./index.js", "")
	require.NoError(t, err)
	require.Equal(t, File(filepath.Join(root, "index.js")), id)

	res, err := chain.Resolve(t.Context(), "./lib/util.js", id, "")
	require.NoError(t, err)
	require.Equal(t, File(filepath.Join(root, "lib", "util.js")), res.ID())

	for _, spec := range []string{"./lib", "./missing.js", "content:./x", "preact", string(Virtual("content", "/x"))} {
		res, err := chain.Resolve(t.Context(), spec, id, "")
		require.NoError(t, err)
		require.False(t, res.Handled(), spec)
	}

	lc := NewCollector()
	mod, err := chain.Load(t.Context(), id, lc)
	require.NoError(t, err)
	require.Equal(t, entry, mod.Code)
	require.Equal(t, []string{"content:./content/blog", "./lib/util.js", "./lib/util.js"}, mod.Imports)
	require.Equal(t, []string{filepath.Join(root, "index.js")}, lc.WatchFiles())
}

func TestFileHandler_IgnoresVirtualIDs(t *testing.T) {
	mod, err := NewFileHandler(t.TempDir()).Load(t.Context(), Virtual("content", "/x"), NewCollector())
	require.NoError(t, err)
	require.Nil(t, mod)
}

func TestScanImports(t *testing.T) {
	code := "import url0 from \"markdown:./blog/a.md\";\nimport url1 from \"markdown:./blog/b.md\";\nexport default [{ name: \"a\", url: url0 }];"
	require.Equal(t, []string{"markdown:./blog/a.md", "markdown:./blog/b.md"}, ScanImports(code))
	require.Empty(t, ScanImports("const s = 'import x from \"y\"';"))
}

func TestRewriteImports(t *testing.T) {
	code := "import a from \"./lib.js\";\nexport { b } from './lib.js';\nimport \"preact\";\nexport default [{ description: \"./lib.js\" }];\n"
	got := RewriteImports(code, func(spec string) (string, bool) {
		if spec == "./lib.js" {
			return "./_lib.js", true
		}
		return "", false
	})
	require.Equal(t, "import a from \"./_lib.js\";\nexport { b } from './_lib.js';\nimport \"preact\";\nexport default [{ description: \"./lib.js\" }];\n", got)
}
