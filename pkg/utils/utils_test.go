package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fincal/internal/models"
)

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)

	// Whole-day difference, time of day ignored.
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))

	assert.Equal(t, 14, DaysBetween(
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 24, 0, 0, 0, 0, time.UTC),
	))
}

func TestPreviousTradingDay(t *testing.T) {
	// Wednesday -> Tuesday.
	wed := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), PreviousTradingDay(wed))

	// Monday rolls back across the weekend to Friday.
	mon := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), PreviousTradingDay(mon))

	// Sunday also lands on Friday.
	sun := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), PreviousTradingDay(sun))
}

func TestIsTradingDay(t *testing.T) {
	assert.True(t, IsTradingDay(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))  // Wednesday
	assert.False(t, IsTradingDay(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))) // Saturday
	assert.False(t, IsTradingDay(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))) // Sunday
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$187.50", FormatPrice(187.5))
	assert.Equal(t, "--", FormatPrice(models.PriceUnknown))
}

func TestFormatDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "today", FormatDaysUntil(now, now))
	assert.Equal(t, "tomorrow", FormatDaysUntil(now, now.AddDate(0, 0, 1)))
	assert.Equal(t, "in 5 days", FormatDaysUntil(now, now.AddDate(0, 0, 5)))
	assert.Equal(t, "3 days ago", FormatDaysUntil(now, now.AddDate(0, 0, -3)))
}
