package store

import (
	"strings"
	"time"
)

// Timestamp and calendar-date layouts used everywhere in the database.
const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

// DayName returns the lowercase English day-of-week for t.
func DayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// TimeBucket classifies t's local hour into a coarse time-of-day bucket.
//
// The bucket is frozen into the event payload at write time; historical
// events keep the bucket that was active when they were written even if
// these boundaries ever change.
func TimeBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}

// DateOf returns t's calendar date formatted for the database.
func DateOf(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
