package extract

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Layouts tried after cast's built-in list. They cover minute-precision ISO
// stamps and the locale strings written by the Ghost importer.
var extraLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

// ParseDate interprets a metadata value as a point in time. Zone-less values
// are read as UTC.
func ParseDate(v any) (time.Time, bool) {
	return ParseDateIn(v, time.UTC)
}

// ParseDateIn interprets a metadata value as a point in time, reading
// zone-less values in loc.
func ParseDateIn(v any, loc *time.Location) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		v = s
	}
	if t, err := cast.ToTimeInDefaultLocationE(v, loc); err == nil && !t.IsZero() {
		return t, true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range extraLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameMinute reports whether a and b fall within the same wall-clock minute.
func SameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
