package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"fincal/internal/models"
)

// Property: upserting an event any number of times leaves exactly one row
// per (ticker, type), and a read always returns the last write.
func TestProperty_EventUpsertIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	certaintyGen := gen.OneConstOf(models.CertaintyConfirmed, models.CertaintyEstimated, models.CertaintyUnknown)
	repeatsGen := gen.IntRange(1, 5)
	daysGen := gen.IntRange(-30, 120)
	epsGen := gen.Float64Range(-10.0, 50.0)

	seq := 0

	properties.Property("repeated upserts keep one row and the last write wins", prop.ForAll(
		func(certainty models.Certainty, repeats, days int, eps float64) bool {
			ctx := context.Background()
			seq++
			ticker := fmt.Sprintf("PROP%05d", seq)

			ev := models.Event{
				Ticker:       ticker,
				Type:         models.EventTypeEarnings,
				Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days),
				Certainty:    certainty,
				EstimatedEPS: eps,
			}

			for i := 0; i < repeats; i++ {
				// Vary the mutable fields on each write; the last one must win.
				ev.EstimatedEPS = eps + float64(i)
				if err := store.UpsertEvent(ctx, ev); err != nil {
					t.Logf("Failed to upsert event: %v", err)
					return false
				}
			}

			got, err := store.GetEvent(ctx, ticker, models.EventTypeEarnings)
			if err != nil {
				t.Logf("Failed to get event: %v", err)
				return false
			}
			if got.Certainty != certainty {
				t.Logf("Certainty mismatch: expected %s, got %s", certainty, got.Certainty)
				return false
			}
			if math.Abs(got.EstimatedEPS-(eps+float64(repeats-1))) > 1e-9 {
				t.Logf("EPS mismatch: expected %f, got %f", eps+float64(repeats-1), got.EstimatedEPS)
				return false
			}
			if !got.Date.Equal(ev.Date) {
				t.Logf("Date mismatch: expected %v, got %v", ev.Date, got.Date)
				return false
			}

			rows, err := store.Events(EventFilter{Search: ticker}).All(ctx)
			if err != nil {
				t.Logf("Failed to query events: %v", err)
				return false
			}
			if len(rows) != 1 {
				t.Logf("Row count mismatch for %s: expected 1, got %d", ticker, len(rows))
				return false
			}
			return true
		},
		certaintyGen,
		repeatsGen,
		daysGen,
		epsGen,
	))

	properties.TestingRun(t)
}

// Property: action upserts never duplicate a (ticker, event_type, action_type)
// key regardless of the status sequence, and the stored status is the last
// one written.
func TestProperty_ActionUpsertDedup(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "actions_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	statusSeqGen := gen.SliceOfN(4, gen.OneConstOf(models.ActionQueued, models.ActionCreated))

	seq := 0

	properties.Property("status sequence collapses to one row with the final status", prop.ForAll(
		func(statuses []models.ActionStatus) bool {
			ctx := context.Background()
			seq++
			ticker := fmt.Sprintf("ACT%05d", seq)

			for _, st := range statuses {
				if err := store.UpsertAction(ctx, ticker, models.EventTypeEarnings, models.ActionOSReminder, st); err != nil {
					t.Logf("Failed to upsert action: %v", err)
					return false
				}
			}

			final := statuses[len(statuses)-1]

			queued, err := store.ExistsQueuedReminder(ctx, ticker, models.EventTypeEarnings)
			if err != nil {
				t.Logf("Failed to check queued reminder: %v", err)
				return false
			}
			if queued != (final == models.ActionQueued) {
				t.Logf("Queued mismatch for %s: final status %s, queued=%v", ticker, final, queued)
				return false
			}

			exists, err := store.ExistsReminder(ctx, ticker, models.EventTypeEarnings)
			if err != nil {
				t.Logf("Failed to check reminder: %v", err)
				return false
			}
			if !exists {
				t.Logf("Reminder missing for %s after %d upserts", ticker, len(statuses))
				return false
			}
			return true
		},
		statusSeqGen,
	))

	properties.TestingRun(t)
}
