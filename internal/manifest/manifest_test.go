package manifest

import (
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/require"
)

func sample() *BuildManifest {
	return &BuildManifest{
		ID:        "build-123",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Inputs: Inputs{
			Entries:    []string{"./index.js"},
			ConfigHash: "config-hash",
			Sources: []SourceInput{
				{Path: "content/blog/b.md", Fingerprint: "fp-b"},
				{Path: "content/blog/a.md", Fingerprint: "fp-a"},
			},
		},
		Outputs: Outputs{
			Assets:  []AssetOutput{{FileName: "content/blog/a.md", URL: "/content/blog/a.md", Bytes: 10, SHA256: "x"}},
			Modules: []ModuleOutput{{ID: "content:/site/content/blog", FileName: "_modules/content/content/blog.js"}},
		},
		Status:   "success",
		Duration: 42,
	}
}

func TestManifest_RoundTrip(t *testing.T) {
	m := sample()
	data, err := m.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, m, restored)
}

func TestManifest_WriteRead(t *testing.T) {
	dir := t.TempDir()
	m := sample()
	require.NoError(t, m.Write(dir))

	got, err := Read(dir)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, m.Outputs, got.Outputs)

	_, err = Read(t.TempDir())
	require.Error(t, err)
}

func TestManifest_HashIgnoresSourceOrderAndOutputs(t *testing.T) {
	a := sample()
	b := sample()
	b.ID = "other"
	b.Outputs = Outputs{}
	b.Inputs.Sources[0], b.Inputs.Sources[1] = b.Inputs.Sources[1], b.Inputs.Sources[0]

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	require.Equal(t, ha, hb)

	b.Inputs.Sources[0].Fingerprint = "changed"
	hc, err := b.Hash()
	require.NoError(t, err)
	require.NotEqual(t, ha, hc)
}

func TestFingerprint(t *testing.T) {
	md := []byte("---\ntitle: x\n---\n\nBody\n")
	require.Equal(t, mdfp.CalculateFingerprintFromParts("title: x", "\nBody\n"), Fingerprint("post.md", md))
	require.Equal(t, Fingerprint("post.md", md), Fingerprint("post.md", []byte("---\r\ntitle: x\r\n---\r\n\r\nBody\r\n")))
	require.Equal(t, mdfp.CalculateFingerprintFromParts("", "plain\n"), Fingerprint("p.md", []byte("plain\n")))
	require.Equal(t, SHA256([]byte("export {}")), Fingerprint("index.js", []byte("export {}")))
}
