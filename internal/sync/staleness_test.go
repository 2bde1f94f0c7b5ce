package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fincal/internal/models"
)

func TestNeedsRefresh(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	policy := NewStalenessPolicy(0) // default 14-day window

	tests := []struct {
		name      string
		daysAhead int
		certainty models.Certainty
		want      bool
	}{
		{"estimated inside window", 10, models.CertaintyEstimated, true},
		{"unknown inside window", 10, models.CertaintyUnknown, true},
		{"confirmed inside window", 10, models.CertaintyConfirmed, false},
		{"estimated outside window", 20, models.CertaintyEstimated, false},
		{"confirmed in the past", -1, models.CertaintyConfirmed, true},
		{"estimated in the past", -30, models.CertaintyEstimated, true},
		{"estimated at window edge", 14, models.CertaintyEstimated, true},
		{"estimated just past edge", 15, models.CertaintyEstimated, false},
		{"unknown today", 0, models.CertaintyUnknown, true},
		{"confirmed today", 0, models.CertaintyConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := models.Event{
				Ticker:    "AAPL",
				Type:      models.EventTypeEarnings,
				Date:      today.AddDate(0, 0, tt.daysAhead),
				Certainty: tt.certainty,
			}
			assert.Equal(t, tt.want, policy.NeedsRefresh(ev, today))
		})
	}
}

func TestNeedsRefreshCustomWindow(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	policy := NewStalenessPolicy(5)

	ev := models.Event{Ticker: "MSFT", Type: models.EventTypeEarnings, Certainty: models.CertaintyEstimated}

	ev.Date = today.AddDate(0, 0, 5)
	assert.True(t, policy.NeedsRefresh(ev, today))

	ev.Date = today.AddDate(0, 0, 6)
	assert.False(t, policy.NeedsRefresh(ev, today))
}

func TestAlertKindForType(t *testing.T) {
	kind, ok := AlertKindForType("+ 5.12% today")
	assert.True(t, ok)
	assert.Equal(t, AlertDaily, kind)

	kind, ok = AlertKindForType("- 12.40% past 30 days")
	assert.True(t, ok)
	assert.Equal(t, AlertThirtyDay, kind)

	kind, ok = AlertKindForType("+ 31.00% year to date")
	assert.True(t, ok)
	assert.Equal(t, AlertYearToDate, kind)

	_, ok = AlertKindForType(models.EventTypeEarnings)
	assert.False(t, ok)
}

func TestAlertPolicyCanFire(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	policy := DefaultAlertPolicy()

	// Daily alerts re-fire every day but not twice in one day.
	assert.True(t, policy.CanFire(AlertDaily, time.Time{}, now))
	assert.True(t, policy.CanFire(AlertDaily, now.AddDate(0, 0, -1), now))
	assert.False(t, policy.CanFire(AlertDaily, now, now))

	// 30-day alerts respect the 7-day gap.
	assert.True(t, policy.CanFire(AlertThirtyDay, now.AddDate(0, 0, -7), now))
	assert.False(t, policy.CanFire(AlertThirtyDay, now.AddDate(0, 0, -6), now))

	// Year-to-date alerts respect the 15-day gap.
	assert.True(t, policy.CanFire(AlertYearToDate, now.AddDate(0, 0, -15), now))
	assert.False(t, policy.CanFire(AlertYearToDate, now.AddDate(0, 0, -14), now))
}
