// Package manifest describes a finished build: what went in, what came out
// and content fingerprints for both. It is written next to the build output
// as build-manifest.json.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// FileName is the name of the manifest inside the output directory.
const FileName = "build-manifest.json"

// BuildManifest is a complete record of one build.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures everything the build read.
type Inputs struct {
	Entries    []string      `json:"entries"`
	ConfigHash string        `json:"config_hash"`
	Sources    []SourceInput `json:"sources"`
}

// SourceInput is one file the build depended on.
type SourceInput struct {
	Path string `json:"path"`
	// Fingerprint is the mdfp fingerprint of Markdown sources and a SHA-256
	// digest of anything else.
	Fingerprint string `json:"fingerprint"`
}

// Outputs captures everything the build wrote.
type Outputs struct {
	Assets  []AssetOutput  `json:"assets"`
	Modules []ModuleOutput `json:"modules"`
}

// AssetOutput is one emitted asset.
type AssetOutput struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	Bytes    int    `json:"bytes"`
	SHA256   string `json:"sha256"`
}

// ModuleOutput is one written module.
type ModuleOutput struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Write stores the manifest as FileName in dir.
func (m *BuildManifest) Write(dir string) error {
	data, err := m.ToJSON()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode build manifest").Build()
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write build manifest").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Read loads the manifest stored in dir.
func Read(dir string) (*BuildManifest, error) {
	path := filepath.Join(dir, FileName)
	// #nosec G304 -- dir is the configured output directory.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read build manifest").
			WithContext("path", path).
			Build()
	}
	return FromJSON(data)
}

// Hash computes a deterministic hash of the manifest's inputs. Two builds
// with the same hash read identical content.
func (m *BuildManifest) Hash() (string, error) {
	sources := slices.Clone(m.Inputs.Sources)
	slices.SortFunc(sources, func(a, b SourceInput) int { return strings.Compare(a.Path, b.Path) })

	hashInput := struct {
		Entries    []string      `json:"entries"`
		ConfigHash string        `json:"config_hash"`
		Sources    []SourceInput `json:"sources"`
	}{
		Entries:    m.Inputs.Entries,
		ConfigHash: m.Inputs.ConfigHash,
		Sources:    sources,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Fingerprint returns the content fingerprint of a source file. Markdown
// files are split into front matter and body and fingerprinted with mdfp;
// other files get a SHA-256 digest.
func Fingerprint(path string, content []byte) string {
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return SHA256(content)
	}
	content = frontmatter.NormalizeNewlines(content)
	fm, body, had, err := frontmatter.Split(content)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body))
}

// SHA256 returns the hex SHA-256 digest of data.
func SHA256(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
