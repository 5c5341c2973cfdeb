package feed

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the timestamp format used by both feed dialects
// (strptime "%m/%d/%Y %I:%M:%S %p"). Single-digit months, days and hours
// are accepted.
const DateLayout = "1/2/2006 3:04:05 PM"

// CleanOnet normalizes an occupation classification code by dropping the
// generic ".00" detail suffix and stripping dashes and dots, e.g.
// "15-1021.00" becomes "151021" while "15-1021.01" becomes "15102101".
func CleanOnet(onet string) string {
	onet = strings.TrimSuffix(strings.TrimSpace(onet), ".00")
	return strings.NewReplacer("-", "", ".", "").Replace(onet)
}

// ParseDate parses a feed timestamp in loc. An empty (or all-whitespace)
// value yields nil rather than an error.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", value, err)
	}
	return &t, nil
}
