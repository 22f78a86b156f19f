package domain

import (
	"strings"
	"time"
)

// UTCDay returns the YYYYMMDD stamp for t in UTC.
func UTCDay(t time.Time) string {
	return t.UTC().Format(DayStampLayout)
}

// Yesterday returns the YYYYMMDD stamp for the day before t in UTC.
func Yesterday(t time.Time) string {
	return t.UTC().AddDate(0, 0, -1).Format(DayStampLayout)
}

// DaysBetween returns the whole-day difference to - from given two day
// stamps. Returns 0 and false if either stamp is malformed.
func DaysBetween(from, to string) (int, bool) {
	a, err := time.ParseInLocation(DayStampLayout, from, time.UTC)
	if err != nil {
		return 0, false
	}
	b, err := time.ParseInLocation(DayStampLayout, to, time.UTC)
	if err != nil {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}

// NextUTCMidnight returns the next UTC midnight strictly after t.
func NextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// NormalizeID lower-cases and trims a character id. Ids are compared
// case-insensitively everywhere in the core.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
