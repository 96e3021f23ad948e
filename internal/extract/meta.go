package extract

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Well-known metadata keys.
const (
	KeyTitle           = "title"
	KeyDescription     = "description"
	KeyImage           = "image"
	KeyPublished       = "published"
	KeyUpdated         = "updated"
	KeyStatus          = "status"
	KeyFeatured        = "featured"
	KeySlug            = "slug"
	KeyMetaTitle       = "meta_title"
	KeyMetaDescription = "meta_description"
)

// Meta is the public metadata of a document: parsed front matter plus
// inferred fields.
type Meta map[string]any

// Has reports whether key carries a usable value. Missing keys, nil and
// blank strings count as absent.
func (m Meta) Has(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the value for key rendered as a string, or "".
func (m Meta) String(key string) string {
	if !m.Has(key) {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return fmt.Sprint(m[key])
}

// Clone returns a shallow copy.
func (m Meta) Clone() Meta {
	if m == nil {
		return Meta{}
	}
	return maps.Clone(m)
}

// IsPrivateKey reports whether key is reserved for internal use.
func IsPrivateKey(key string) bool {
	return strings.HasPrefix(key, ".") || strings.HasPrefix(key, "_")
}

// Time parses the value for key as a date.
func (m Meta) Time(key string) (time.Time, bool) {
	return ParseDate(m[key])
}
