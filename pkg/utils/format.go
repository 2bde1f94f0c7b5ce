// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"time"

	"fincal/internal/models"
)

// FormatPrice formats a dollar price, rendering the unknown-price sentinel
// as a placeholder instead of the literal.
func FormatPrice(price float64) string {
	if !models.HasPrice(price) {
		return "--"
	}
	return fmt.Sprintf("$%.2f", price)
}

// FormatEPS formats an earnings-per-share value.
func FormatEPS(eps float64) string {
	if eps == 0 {
		return "--"
	}
	return fmt.Sprintf("%.2f", eps)
}

// FormatDate formats a date for display, empty-date aware.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Format("Mon Jan 2 2006")
}

// FormatDaysUntil describes how far away an event date is.
func FormatDaysUntil(now, eventDate time.Time) string {
	days := DaysBetween(now, eventDate)
	switch {
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
