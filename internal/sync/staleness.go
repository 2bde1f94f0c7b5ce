// Package sync reconciles the local store against the data sources and
// tracks multi-stage sync progress across restarts.
package sync

import (
	"strings"
	"time"

	"fincal/internal/models"
	"fincal/pkg/utils"
)

// DefaultRefreshWindowDays is how close an unconfirmed event date must be
// before it qualifies for a refresh.
const DefaultRefreshWindowDays = 14

// StalenessPolicy decides whether a cached event must be re-fetched from its
// source. It is stateless: every call takes the evaluation date and only
// returns a verdict, never mutating sync state.
type StalenessPolicy struct {
	WindowDays int
}

// NewStalenessPolicy builds a policy with the given refresh window, falling
// back to the default for non-positive values.
func NewStalenessPolicy(windowDays int) StalenessPolicy {
	if windowDays <= 0 {
		windowDays = DefaultRefreshWindowDays
	}
	return StalenessPolicy{WindowDays: windowDays}
}

// NeedsRefresh reports whether the event should be re-fetched when evaluated
// on evalDate. Two cases qualify: a near-term date that is still speculative
// (likely to firm up), and a past-due date (likely to have outcome data
// now). A confirmed future event never qualifies.
func (p StalenessPolicy) NeedsRefresh(ev models.Event, evalDate time.Time) bool {
	days := utils.DaysBetween(evalDate, ev.Date)

	if days < 0 {
		return true
	}
	if days <= p.WindowDays && ev.Certainty != models.CertaintyConfirmed {
		return true
	}
	return false
}

// PriceAlertKind distinguishes the recurring price-change alert flavors.
type PriceAlertKind string

const (
	AlertDaily      PriceAlertKind = "today"
	AlertThirtyDay  PriceAlertKind = "past 30 days"
	AlertYearToDate PriceAlertKind = "year to date"
)

// AlertKindForType extracts the alert kind from a price-change event type
// like "+ 5.12% past 30 days". ok is false for non-alert types.
func AlertKindForType(eventType string) (PriceAlertKind, bool) {
	if !models.IsPriceChangeType(eventType) {
		return "", false
	}
	switch {
	case strings.HasSuffix(eventType, string(AlertThirtyDay)):
		return AlertThirtyDay, true
	case strings.HasSuffix(eventType, string(AlertYearToDate)):
		return AlertYearToDate, true
	default:
		return AlertDaily, true
	}
}

// AlertPolicy caps how often a price-change alert may re-fire for the same
// ticker. The 30-day-change alert waits at least ThirtyDayGap days between
// occurrences (about four per month); the year-to-date alert waits
// YearToDateGap days.
type AlertPolicy struct {
	ThirtyDayGap  int
	YearToDateGap int
}

// DefaultAlertPolicy returns the standard re-fire caps.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{ThirtyDayGap: 7, YearToDateGap: 15}
}

// CanFire reports whether an alert of the given kind may fire now, given the
// date it last fired for the same ticker. A zero lastFired means it never
// has.
func (p AlertPolicy) CanFire(kind PriceAlertKind, lastFired, now time.Time) bool {
	if lastFired.IsZero() {
		return true
	}
	// The daily alert fires at most once per day.
	gap := 1
	switch kind {
	case AlertThirtyDay:
		gap = p.ThirtyDayGap
	case AlertYearToDate:
		gap = p.YearToDateGap
	}
	return utils.DaysBetween(lastFired, now) >= gap
}
