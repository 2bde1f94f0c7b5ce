package sync

import (
	"context"
	"fmt"
	"math"
	"time"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
	"fincal/internal/store"
)

// QueueReminder registers interest in an event. Reminders on confirmed
// events are Created outright; reminders on estimated or unknown dates are
// parked as Queued until a later sync confirms the date. Re-queuing an
// existing reminder is a no-op that reports its current status.
func (e *Engine) QueueReminder(ctx context.Context, ticker, eventType string) (models.ActionStatus, error) {
	ev, err := e.store.GetEvent(ctx, ticker, eventType)
	if err != nil {
		return "", err
	}

	status := models.ActionQueued
	if ev.Certainty == models.CertaintyConfirmed {
		status = models.ActionCreated
	}

	exists, err := e.store.ExistsReminder(ctx, ticker, eventType)
	if err != nil {
		return "", err
	}
	if exists {
		queued, err := e.store.ExistsQueuedReminder(ctx, ticker, eventType)
		if err != nil {
			return "", err
		}
		if queued && status == models.ActionQueued {
			return models.ActionQueued, nil
		}
	}

	if err := e.store.UpsertAction(ctx, ticker, eventType, models.ActionOSReminder, status); err != nil {
		return "", err
	}

	e.log.Debug().Str("ticker", ticker).Str("type", eventType).Str("status", string(status)).Msg("reminder registered")
	return status, nil
}

// ConfirmQueuedReminders promotes queued reminders whose event dates have
// since been confirmed. It runs after every sync so a reminder placed on an
// estimated date fires once the date firms up. Returns the number promoted.
func (e *Engine) ConfirmQueuedReminders(ctx context.Context) (int, error) {
	queued, err := e.store.ListQueuedReminders(ctx)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, act := range queued {
		ev, err := e.store.GetEvent(ctx, act.Ticker, act.EventType)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// Event was replaced since the reminder was queued; leave the
			// reminder parked.
			continue
		}
		if err != nil {
			return promoted, err
		}
		if ev.Certainty != models.CertaintyConfirmed {
			continue
		}
		if err := e.store.UpsertAction(ctx, act.Ticker, act.EventType, models.ActionOSReminder, models.ActionCreated); err != nil {
			return promoted, err
		}
		promoted++
	}

	if promoted > 0 {
		e.log.Info().Int("promoted", promoted).Msg("queued reminders confirmed")
	}
	return promoted, nil
}

// RecordPriceChange logs a notable price move as a synthetic event plus a
// PriceChange action, subject to the per-kind re-fire gap. changePct is the
// signed percentage move. Returns false when the alert policy suppressed it.
func (e *Engine) RecordPriceChange(ctx context.Context, ticker string, changePct float64, kind PriceAlertKind) (bool, error) {
	now := e.now()

	last, err := e.lastAlertDate(ctx, ticker, kind)
	if err != nil {
		return false, err
	}
	if !e.alerts.CanFire(kind, last, now) {
		e.log.Debug().Str("ticker", ticker).Str("kind", string(kind)).Msg("price alert suppressed by re-fire gap")
		return false, nil
	}

	sign := "+"
	if changePct < 0 {
		sign = "-"
	}
	eventType := fmt.Sprintf("%s %.2f%% %s", sign, math.Abs(changePct), kind)

	ev := models.Event{
		Ticker:    ticker,
		Type:      eventType,
		Date:      now,
		Certainty: models.CertaintyConfirmed,
	}
	if err := e.store.UpsertEvent(ctx, ev); err != nil {
		return false, err
	}
	if err := e.store.UpsertAction(ctx, ticker, eventType, models.ActionPriceChange, models.ActionCreated); err != nil {
		return false, err
	}

	e.log.Info().Str("ticker", ticker).Str("type", eventType).Msg("price change recorded")
	return true, nil
}

// lastAlertDate finds the most recent price-change event of the given kind
// for a ticker. Zero time means no prior alert.
func (e *Engine) lastAlertDate(ctx context.Context, ticker string, kind PriceAlertKind) (last time.Time, err error) {
	cursor := e.store.Events(store.EventFilter{Category: models.CategoryPriceChange, Search: ticker})
	for {
		batch, err := cursor.Next(ctx)
		if err != nil {
			return last, err
		}
		if len(batch) == 0 {
			return last, nil
		}
		for _, row := range batch {
			if row.Ticker != ticker {
				continue
			}
			if rowKind, ok := AlertKindForType(row.Type); !ok || rowKind != kind {
				continue
			}
			if row.Date.After(last) {
				last = row.Date
			}
		}
	}
}
