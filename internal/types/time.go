package types

import (
	"strings"
	"time"
)

// Layouts tried by ParseTimeLoose, most common first. Feed dates in the
// wild mix RFC 822 variants, ISO 8601, and bare human-readable dates.
var looseTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// ParseTimeLoose attempts to parse a timestamp in any of the formats feeds
// and homepages commonly use. ok is false when nothing matched; callers
// leave the published field empty in that case rather than guessing.
func ParseTimeLoose(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range looseTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
