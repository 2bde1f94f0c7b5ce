// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"fincal/internal/models"
)

// EventBatchSize is the number of rows an EventCursor fetches per batch.
const EventBatchSize = 15

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Companies
	UpsertCompany(ctx context.Context, ticker, name string) error
	GetCompany(ctx context.Context, ticker string) (*models.Company, error)
	CountCompanies(ctx context.Context) (int, error)

	// Events
	UpsertEvent(ctx context.Context, ev models.Event) error
	GetEvent(ctx context.Context, ticker, eventType string) (*models.Event, error)
	Events(filter EventFilter) *EventCursor

	// Event history
	UpsertEventHistory(ctx context.Context, hist models.EventHistory) error
	GetEventHistory(ctx context.Context, ticker, eventType string) (*models.EventHistory, error)
	UpdateHistoryPrices(ctx context.Context, ticker, eventType string, prev1, prev1Related, current float64) error
	UpdateHistoryDates(ctx context.Context, ticker, eventType string, prev1Date, prev1RelatedDate time.Time) error
	UpdateHistoryCurrentDate(ctx context.Context, ticker, eventType string, current time.Time) error

	// Actions
	UpsertAction(ctx context.Context, ticker, eventType string, actionType models.ActionType, status models.ActionStatus) error
	ExistsReminder(ctx context.Context, ticker, eventType string) (bool, error)
	ExistsQueuedReminder(ctx context.Context, ticker, eventType string) (bool, error)
	ListQueuedReminders(ctx context.Context) ([]models.Action, error)
	DeleteAllActions(ctx context.Context) error
	DeleteActionsForTicker(ctx context.Context, ticker string) error
	DeleteActionsForEventType(ctx context.Context, eventType string) error

	// Sync state (singleton row; mutated only by the sync engine)
	GetSyncState(ctx context.Context) (*models.SyncState, error)
	SaveCompanySyncState(ctx context.Context, status models.CompanySyncStatus, syncDate time.Time, page, totalPages int) error
	SaveEventSyncState(ctx context.Context, status models.EventSyncStatus, syncDate time.Time) error

	// Lifecycle
	Close() error
}

// EventFilter represents filters for querying events. Zero value means "all
// events".
type EventFilter struct {
	// FutureOnly keeps events dated on or after Today.
	FutureOnly bool
	// Today is the evaluation date for FutureOnly; zero means time.Now().
	Today time.Time
	// Category narrows to one event category.
	Category models.EventCategory
	// FollowingOnly keeps events that have a live action.
	FollowingOnly bool
	// Search is a case-insensitive substring matched against company ticker
	// and name, unioned.
	Search string
}

// EventRow is an event joined with its company name for display.
type EventRow struct {
	models.Event
	CompanyName string
	Category    models.EventCategory
}
