package modules

import (
	"bytes"
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"sync"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Asset is a file emitted while loading modules.
type Asset struct {
	Ref      string
	Name     string
	FileName string
	Source   []byte
}

// Collector is a LoadContext that records assets and watch files in memory.
type Collector struct {
	mu     sync.Mutex
	assets map[string]*Asset
	order  []string
	watch  map[string]struct{}
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		assets: make(map[string]*Asset),
		watch:  make(map[string]struct{}),
	}
}

// EmitAsset records an asset. Refs are derived from fileName, so emitting the
// same file twice with identical content returns the same ref; different
// content for one fileName is an error.
func (c *Collector) EmitAsset(name, fileName string, source []byte) (string, error) {
	if fileName == "" {
		fileName = name
	}
	ref := assetRef(fileName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.assets[ref]; ok {
		if existing.FileName != fileName || !bytes.Equal(existing.Source, source) {
			return "", errors.BuildError("conflicting asset emitted").
				Fatal().
				WithContext("asset", fileName).
				Build()
		}
		return ref, nil
	}
	c.assets[ref] = &Asset{Ref: ref, Name: name, FileName: fileName, Source: bytes.Clone(source)}
	c.order = append(c.order, ref)
	return ref, nil
}

// AddWatchFile records path.
func (c *Collector) AddWatchFile(path string) {
	c.mu.Lock()
	c.watch[path] = struct{}{}
	c.mu.Unlock()
}

// Assets returns the recorded assets in emission order.
func (c *Collector) Assets() []*Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Asset, 0, len(c.order))
	for _, ref := range c.order {
		out = append(out, c.assets[ref])
	}
	return out
}

// Asset looks up an asset by ref.
func (c *Collector) Asset(ref string) (*Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.assets[ref]
	return a, ok
}

// WatchFiles returns the recorded watch files sorted.
func (c *Collector) WatchFiles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.watch))
}

func assetRef(fileName string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fileName))
	return strconv.FormatUint(h.Sum64(), 36)
}

// FindFile looks up an asset by its output file name.
func (c *Collector) FindFile(fileName string) (*Asset, bool) {
	return c.Asset(assetRef(fileName))
}
