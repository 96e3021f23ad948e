package feed

import (
	"regexp"
	"strconv"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

var offsetPattern = regexp.MustCompile(`^(?:GMT|UTC)?([+-])(\d{2}):?(\d{2})$`)

// ParseZone accepts a numeric UTC offset ("+0100", "-07:00", "GMT+0200") or
// an IANA zone name. The empty string is UTC.
func ParseZone(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	if m := offsetPattern.FindStringSubmatch(tz); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(tz, offset), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "unknown feed timezone").
			WithContext("timezone", tz).
			Build()
	}
	return loc, nil
}
