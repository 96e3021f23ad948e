package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

const indexJS = `import posts from "content:../content/blog";
import about from '../content/about.md';
import { h } from "preact";

export default function App() { return h("main", null, posts.length, about); }
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
}

// writeProject lays out a small blog: an app entry importing a content
// directory with two posts and a standalone page.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/index.js":        indexJS,
		"content/blog/a.md":   "---\npublished: \"2021-01-01\"\n---\n# A\n\nFirst post\n",
		"content/blog/b.md":   "---\npublished: \"2022-01-01\"\nimage: /img/b.png\n---\n# B\n\nSecond post\n",
		"content/blog/.draft": "ignored",
		"content/about.md":    "# About\n\nHello there\n",
	})
	return root
}

func testConfig(t *testing.T, root, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	cfg.Root = root
	cfg.Output.Directory = filepath.Join(root, "dist")
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
