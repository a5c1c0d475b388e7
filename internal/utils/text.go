package utils

import (
	"strings"
	"time"
)

// NormalizeCity lowercases, collapses whitespace and folds "ё" to "е".
// It returns "" for blank input.
func NormalizeCity(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return ""
	}
	city = strings.ReplaceAll(city, "ё", "е")
	return strings.Join(strings.Fields(city), " ")
}

// CalendarDay returns midnight UTC of the calendar day t falls on in loc.
// Dates compare correctly no matter which zone the store returns them in.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameOrAfterDay reports whether day is not before ref, comparing calendar dates only.
func SameOrAfterDay(day, ref time.Time) bool {
	dy, dm, dd := day.UTC().Date()
	ry, rm, rd := ref.UTC().Date()
	if dy != ry {
		return dy > ry
	}
	if dm != rm {
		return dm > rm
	}
	return dd >= rd
}
