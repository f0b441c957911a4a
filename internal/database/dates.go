package database

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	weekdayRe = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*`)
)

// Date formats seen on Indian court sites.
var dateFormats = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"02-Jan-2006",
	"02-January-2006",
	"02 Jan 2006",
	"02 January 2006",
	"2006-01-02",
	"Jan 02, 2006",
	"January 02, 2006",
}

// ParseCourtDate parses the raw date text captured from the portal. The
// extractor leaves dates as displayed text; persistence is where a typed
// value is attempted, and failure here is tolerated by the caller.
func ParseCourtDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = spaceRe.ReplaceAllString(dateStr, " ")

	for _, format := range dateFormats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	// Retry with day names stripped
	dateStr = weekdayRe.ReplaceAllString(dateStr, "")
	for _, format := range dateFormats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
