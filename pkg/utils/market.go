// Package utils provides shared utility functions.
package utils

import (
	"time"
)

// EasternLocation is the timezone for US markets.
var EasternLocation *time.Location

func init() {
	var err error
	EasternLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		EasternLocation = time.FixedZone("EST", -5*60*60)
	}
}

// IsTradingDay reports whether the given date is a weekday. Exchange
// holidays are not modeled; the price source simply has no row for them.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PreviousTradingDay returns the most recent fully-closed trading day before
// the given time. "Current" prices are quoted off this day: effectively
// yesterday's close, rolled back across weekends.
func PreviousTradingDay(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day = day.AddDate(0, 0, -1)
	for !IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// DaysBetween returns the whole days from a to b, ignoring the time of day.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
