package content

import (
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/extract"
)

// Item is one manifest entry.
type Item struct {
	// Name is the slug override or the file path relative to the content
	// directory without its extension.
	Name string
	// Path is the absolute path of the source file.
	Path string
	Meta extract.Meta
}

// Published returns the parsed publication date.
func (it Item) Published() (time.Time, bool) {
	return it.Meta.Time(extract.KeyPublished)
}

// Updated returns the update date, falling back to the publication date.
func (it Item) Updated() (time.Time, bool) {
	if t, ok := it.Meta.Time(extract.KeyUpdated); ok {
		return t, true
	}
	return it.Published()
}

// Record returns the item as a flat map with name merged into the metadata.
func (it Item) Record() map[string]any {
	rec := make(map[string]any, len(it.Meta)+1)
	for k, v := range it.Meta {
		if v != nil {
			rec[k] = v
		}
	}
	rec["name"] = it.Name
	return rec
}

// Manifest is the aggregated listing of one content directory.
type Manifest struct {
	Dir   string
	Items []Item
}

// Find returns the item called name.
func (m *Manifest) Find(name string) (Item, bool) {
	i := slices.IndexFunc(m.Items, func(it Item) bool { return it.Name == name })
	if i < 0 {
		return Item{}, false
	}
	return m.Items[i], true
}

// Records returns Record for every item in manifest order.
func (m *Manifest) Records() []map[string]any {
	out := make([]map[string]any, 0, len(m.Items))
	for _, it := range m.Items {
		out = append(out, it.Record())
	}
	return out
}

// SortItems orders items newest first. Items without a parsable published
// date come after all dated items. Equal dates, and undated items among
// themselves, are ordered by name.
func SortItems(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		ta, okA := a.Published()
		tb, okB := b.Published()
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case okA && okB && !ta.Equal(tb):
			return tb.Compare(ta)
		}
		return strings.Compare(a.Name, b.Name)
	})
}
