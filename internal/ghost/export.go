package ghost

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type exportFile struct {
	DB []struct {
		Meta struct {
			ExportedOn any `json:"exported_on"`
		} `json:"meta"`
		Data exportData `json:"data"`
	} `json:"db"`
}

type exportData struct {
	Posts    []post    `json:"posts"`
	Settings []setting `json:"settings"`
}

type post struct {
	Slug            string `json:"slug"`
	Status          string `json:"status"`
	Featured        any    `json:"featured"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	Image           string `json:"image"`
	FeatureImage    string `json:"feature_image"`
	Markdown        string `json:"markdown"`
	HTML            string `json:"html"`
	PublishedAt     any    `json:"published_at"`
	UpdatedAt       any    `json:"updated_at"`
	CreatedAt       any    `json:"created_at"`
}

type setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// decodedValue returns a setting value with JSON-encoded strings decoded.
// Ghost stores structured settings such as navigation as JSON text.
func (s setting) decodedValue() any {
	str, ok := s.Value.(string)
	if !ok {
		return s.Value
	}
	var v any
	if err := json.Unmarshal([]byte(str), &v); err != nil {
		return str
	}
	return v
}

// parseTime reads a Ghost timestamp. Older exports use epoch milliseconds,
// newer ones ISO 8601 strings.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		if t <= 0 || math.IsNaN(t) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, false
		}
	}
	parsed, err := cast.ToTimeE(v)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed, true
}
