package common

import (
	"strings"
	"time"
)

// DayKey returns the UTC calendar-date key (2006-01-02) for a unix timestamp.
func DayKey(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format("2006-01-02")
}

// TrimQuery normalizes user-entered search text.
func TrimQuery(s string) string {
	return strings.TrimSpace(s)
}
