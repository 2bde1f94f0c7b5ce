// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// SQLiteStore implements DataStore using SQLite. One store is opened per
// process and injected into every component; database/sql hands each caller
// its own connection, so concurrent workers never share a mutable context.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.RWMutex
	crypto map[string]bool
}

// NewSQLiteStore opens (or creates) the SQLite store at dbPath and applies
// the schema idempotently.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:     db,
		crypto: make(map[string]bool),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes. Uniqueness of the
// composite identities is enforced here, at the commit boundary, so
// duplicate-insert races cannot slip past a prior lookup.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Companies, uniquely identified by ticker
	CREATE TABLE IF NOT EXISTS companies (
		ticker TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Calendar events, uniquely identified by (ticker, type)
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL REFERENCES companies(ticker),
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		date DATETIME NOT NULL,
		related_details TEXT NOT NULL DEFAULT '',
		related_date DATETIME,
		prior_end_date DATETIME,
		certainty TEXT NOT NULL,
		estimated_eps REAL NOT NULL DEFAULT 0,
		actual_eps_prior REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(ticker, type)
	);

	-- At most one history row per parent event. No FK to events: a history
	-- or action row may be written before its event arrives from a source;
	-- the next event upsert closes the gap. The UNIQUE key alone guards
	-- identity.
	CREATE TABLE IF NOT EXISTS event_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		event_type TEXT NOT NULL,
		previous1_date DATETIME,
		previous1_status TEXT NOT NULL DEFAULT 'Estimated',
		previous1_related_date DATETIME,
		current_dt DATETIME,
		previous1_price REAL NOT NULL DEFAULT 999999.9,
		previous1_related_price REAL NOT NULL DEFAULT 999999.9,
		current_price REAL NOT NULL DEFAULT 999999.9,
		UNIQUE(ticker, event_type)
	);

	-- At most one live action per (event, action type)
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		event_type TEXT NOT NULL,
		action_type TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(ticker, event_type, action_type)
	);

	-- Singleton sync progress record
	CREATE TABLE IF NOT EXISTS sync_state (
		id TEXT PRIMARY KEY CHECK (id = 'user'),
		company_status TEXT NOT NULL,
		company_sync_date DATETIME,
		company_page INTEGER NOT NULL DEFAULT 0,
		company_total_pages INTEGER NOT NULL DEFAULT 0,
		event_status TEXT NOT NULL DEFAULT 'NoSyncPerformed',
		event_sync_date DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	CREATE INDEX IF NOT EXISTS idx_actions_ticker ON actions(ticker);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SetCryptoTickers installs the static coin registry used to categorize
// events at upsert time.
func (s *SQLiteStore) SetCryptoTickers(tickers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crypto = make(map[string]bool, len(tickers))
	for _, t := range tickers {
		s.crypto[strings.ToUpper(t)] = true
	}
}

func (s *SQLiteStore) isCrypto(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crypto[strings.ToUpper(ticker)]
}

// ============================================================================
// Companies
// ============================================================================

// UpsertCompany inserts a company if its ticker is not yet known. A stub row
// whose name still equals its ticker (created by an event upsert) gets the
// real name; an established name is never overwritten, so repeated calls are
// idempotent.
func (s *SQLiteStore) UpsertCompany(ctx context.Context, ticker, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (ticker, name) VALUES (?, ?)
		ON CONFLICT(ticker) DO UPDATE SET name = excluded.name
		WHERE companies.name = companies.ticker
	`, ticker, name)
	if err != nil {
		return apperrors.NewStoreError("upsert", "company", ticker, err)
	}
	return nil
}

// GetCompany retrieves a company by ticker.
func (s *SQLiteStore) GetCompany(ctx context.Context, ticker string) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT ticker, name FROM companies WHERE ticker = ?
	`, ticker).Scan(&c.Ticker, &c.Name)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", "company", ticker, err)
	}
	return &c, nil
}

// CountCompanies returns the number of companies in the store.
func (s *SQLiteStore) CountCompanies(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n); err != nil {
		return 0, apperrors.NewStoreError("count", "company", "", err)
	}
	return n, nil
}

// ============================================================================
// Events
// ============================================================================

// UpsertEvent inserts or updates the event identified by (ticker, type). A
// missing company is auto-created as a stub inside the same transaction, so
// a commit failure leaves neither half behind. On conflict every mutable
// field is overwritten in place.
func (s *SQLiteStore) UpsertEvent(ctx context.Context, ev models.Event) error {
	key := ev.Ticker + "/" + ev.Type

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("upsert", "event", key, err)
	}
	defer tx.Rollback()

	// Stub company, named after its own ticker; a later catalog sync
	// replaces the stub name with the real one.
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO companies (ticker, name) VALUES (?, ?)
	`, ev.Ticker, ev.Ticker); err != nil {
		return apperrors.NewStoreError("upsert", "company", ev.Ticker, err)
	}

	category := models.Categorize(ev, s.isCrypto)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (ticker, type, category, date, related_details, related_date, prior_end_date, certainty, estimated_eps, actual_eps_prior)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, type) DO UPDATE SET
			category = excluded.category,
			date = excluded.date,
			related_details = excluded.related_details,
			related_date = excluded.related_date,
			prior_end_date = excluded.prior_end_date,
			certainty = excluded.certainty,
			estimated_eps = excluded.estimated_eps,
			actual_eps_prior = excluded.actual_eps_prior,
			updated_at = CURRENT_TIMESTAMP
	`, ev.Ticker, ev.Type, string(category), ev.Date, ev.RelatedDetails,
		dbTime(ev.RelatedDate), dbTime(ev.PriorEndDate), string(ev.Certainty),
		ev.EstimatedEPS, ev.ActualEPSPrior); err != nil {
		return apperrors.NewStoreError("upsert", "event", key, err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit", "event", key, err)
	}
	return nil
}

// GetEvent retrieves the event identified by (ticker, type).
func (s *SQLiteStore) GetEvent(ctx context.Context, ticker, eventType string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ticker, type, date, related_details, related_date, prior_end_date, certainty, estimated_eps, actual_eps_prior
		FROM events WHERE ticker = ? AND type = ?
	`, ticker, eventType)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", "event", ticker+"/"+eventType, err)
	}
	return ev, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var ev models.Event
	var relatedDate, priorEndDate sql.NullTime
	var certainty string

	err := row.Scan(&ev.Ticker, &ev.Type, &ev.Date, &ev.RelatedDetails,
		&relatedDate, &priorEndDate, &certainty, &ev.EstimatedEPS, &ev.ActualEPSPrior)
	if err != nil {
		return nil, err
	}

	ev.RelatedDate = relatedDate.Time
	ev.PriorEndDate = priorEndDate.Time
	ev.Certainty, err = models.ParseCertainty(certainty)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ============================================================================
// Event history
// ============================================================================

// UpsertEventHistory inserts or fully overwrites the history row for the
// parent event. Use the UpdateHistory* methods for partial mutation.
func (s *SQLiteStore) UpsertEventHistory(ctx context.Context, hist models.EventHistory) error {
	key := hist.Ticker + "/" + hist.EventType
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_history (ticker, event_type, previous1_date, previous1_status, previous1_related_date, current_dt, previous1_price, previous1_related_price, current_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, event_type) DO UPDATE SET
			previous1_date = excluded.previous1_date,
			previous1_status = excluded.previous1_status,
			previous1_related_date = excluded.previous1_related_date,
			current_dt = excluded.current_dt,
			previous1_price = excluded.previous1_price,
			previous1_related_price = excluded.previous1_related_price,
			current_price = excluded.current_price
	`, hist.Ticker, hist.EventType, dbTime(hist.Previous1Date), string(hist.Previous1Status),
		dbTime(hist.Previous1RelatedDate), dbTime(hist.CurrentDate),
		hist.Previous1Price, hist.Previous1RelatedPrice, hist.CurrentPrice)
	if err != nil {
		return apperrors.NewStoreError("upsert", "event_history", key, err)
	}
	return nil
}

// GetEventHistory retrieves the history row for the given event.
func (s *SQLiteStore) GetEventHistory(ctx context.Context, ticker, eventType string) (*models.EventHistory, error) {
	var h models.EventHistory
	var prev1Date, prev1Related, currentDt sql.NullTime
	var status string

	err := s.db.QueryRowContext(ctx, `
		SELECT ticker, event_type, previous1_date, previous1_status, previous1_related_date, current_dt, previous1_price, previous1_related_price, current_price
		FROM event_history WHERE ticker = ? AND event_type = ?
	`, ticker, eventType).Scan(&h.Ticker, &h.EventType, &prev1Date, &status,
		&prev1Related, &currentDt, &h.Previous1Price, &h.Previous1RelatedPrice, &h.CurrentPrice)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", "event_history", ticker+"/"+eventType, err)
	}

	h.Previous1Date = prev1Date.Time
	h.Previous1RelatedDate = prev1Related.Time
	h.CurrentDate = currentDt.Time
	h.Previous1Status, err = models.ParseCertainty(status)
	if err != nil {
		return nil, apperrors.NewStoreError("get", "event_history", ticker+"/"+eventType, err)
	}
	return &h, nil
}

// UpdateHistoryPrices mutates only the three price columns.
func (s *SQLiteStore) UpdateHistoryPrices(ctx context.Context, ticker, eventType string, prev1, prev1Related, current float64) error {
	return s.updateHistory(ctx, ticker, eventType, `
		UPDATE event_history SET previous1_price = ?, previous1_related_price = ?, current_price = ?
		WHERE ticker = ? AND event_type = ?
	`, prev1, prev1Related, current, ticker, eventType)
}

// UpdateHistoryDates mutates only the previous-event date columns.
func (s *SQLiteStore) UpdateHistoryDates(ctx context.Context, ticker, eventType string, prev1Date, prev1RelatedDate time.Time) error {
	return s.updateHistory(ctx, ticker, eventType, `
		UPDATE event_history SET previous1_date = ?, previous1_related_date = ?
		WHERE ticker = ? AND event_type = ?
	`, dbTime(prev1Date), dbTime(prev1RelatedDate), ticker, eventType)
}

// UpdateHistoryCurrentDate mutates only the current-date column.
func (s *SQLiteStore) UpdateHistoryCurrentDate(ctx context.Context, ticker, eventType string, current time.Time) error {
	return s.updateHistory(ctx, ticker, eventType, `
		UPDATE event_history SET current_dt = ? WHERE ticker = ? AND event_type = ?
	`, dbTime(current), ticker, eventType)
}

func (s *SQLiteStore) updateHistory(ctx context.Context, ticker, eventType, query string, args ...interface{}) error {
	key := ticker + "/" + eventType
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewStoreError("update", "event_history", key, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ============================================================================
// Actions
// ============================================================================

// UpsertAction inserts an action if none of that type exists for the event,
// otherwise updates its status. The UNIQUE constraint guarantees a duplicate
// insert attempt can never create a second row.
func (s *SQLiteStore) UpsertAction(ctx context.Context, ticker, eventType string, actionType models.ActionType, status models.ActionStatus) error {
	key := ticker + "/" + eventType + "/" + string(actionType)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (ticker, event_type, action_type, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, event_type, action_type) DO UPDATE SET status = excluded.status
	`, ticker, eventType, string(actionType), string(status))
	if err != nil {
		return apperrors.NewStoreError("upsert", "action", key, err)
	}
	return nil
}

// ExistsReminder reports whether an OSReminder action exists for the event.
func (s *SQLiteStore) ExistsReminder(ctx context.Context, ticker, eventType string) (bool, error) {
	return s.existsAction(ctx, `
		SELECT COUNT(*) FROM actions WHERE ticker = ? AND event_type = ? AND action_type = ?
	`, ticker, eventType, string(models.ActionOSReminder))
}

// ExistsQueuedReminder reports whether a Queued OSReminder action exists for
// the event.
func (s *SQLiteStore) ExistsQueuedReminder(ctx context.Context, ticker, eventType string) (bool, error) {
	return s.existsAction(ctx, `
		SELECT COUNT(*) FROM actions WHERE ticker = ? AND event_type = ? AND action_type = ? AND status = ?
	`, ticker, eventType, string(models.ActionOSReminder), string(models.ActionQueued))
}

func (s *SQLiteStore) existsAction(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, apperrors.NewStoreError("exists", "action", "", err)
	}
	return n > 0, nil
}

// ListQueuedReminders returns all reminder actions still waiting for their
// event date to be confirmed.
func (s *SQLiteStore) ListQueuedReminders(ctx context.Context) ([]models.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, event_type, action_type, status FROM actions
		WHERE action_type = ? AND status = ?
		ORDER BY ticker, event_type
	`, string(models.ActionOSReminder), string(models.ActionQueued))
	if err != nil {
		return nil, apperrors.NewStoreError("list", "action", "", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		var actionType, status string
		if err := rows.Scan(&a.Ticker, &a.EventType, &actionType, &status); err != nil {
			return nil, apperrors.NewStoreError("scan", "action", "", err)
		}
		a.Type = models.ActionType(actionType)
		a.Status = models.ActionStatus(status)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// DeleteAllActions wipes every action, resetting all follow state.
func (s *SQLiteStore) DeleteAllActions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actions`); err != nil {
		return apperrors.NewStoreError("delete", "action", "", err)
	}
	return nil
}

// DeleteActionsForTicker wipes actions for one ticker (unfollow, or a
// ticker-rename migration).
func (s *SQLiteStore) DeleteActionsForTicker(ctx context.Context, ticker string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actions WHERE ticker = ?`, ticker); err != nil {
		return apperrors.NewStoreError("delete", "action", ticker, err)
	}
	return nil
}

// DeleteActionsForEventType wipes actions for one economic event type.
func (s *SQLiteStore) DeleteActionsForEventType(ctx context.Context, eventType string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actions WHERE event_type = ?`, eventType); err != nil {
		return apperrors.NewStoreError("delete", "action", eventType, err)
	}
	return nil
}

// ============================================================================
// Sync state
// ============================================================================

// GetSyncState returns the singleton sync record, or ErrNotFound if no
// company sync has ever been recorded.
func (s *SQLiteStore) GetSyncState(ctx context.Context) (*models.SyncState, error) {
	var st models.SyncState
	var companyStatus, eventStatus string
	var companyDate, eventDate sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT company_status, company_sync_date, company_page, company_total_pages, event_status, event_sync_date
		FROM sync_state WHERE id = 'user'
	`).Scan(&companyStatus, &companyDate, &st.CompanyPage, &st.CompanyTotalPages, &eventStatus, &eventDate)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", "sync_state", "user", err)
	}

	st.CompanyStatus = models.CompanySyncStatus(companyStatus)
	st.EventStatus = models.EventSyncStatus(eventStatus)
	st.CompanySyncDate = companyDate.Time
	st.EventSyncDate = eventDate.Time
	return &st, nil
}

// SaveCompanySyncState records company sync progress, creating the singleton
// row lazily on the first call.
func (s *SQLiteStore) SaveCompanySyncState(ctx context.Context, status models.CompanySyncStatus, syncDate time.Time, page, totalPages int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, company_status, company_sync_date, company_page, company_total_pages)
		VALUES ('user', ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_status = excluded.company_status,
			company_sync_date = excluded.company_sync_date,
			company_page = excluded.company_page,
			company_total_pages = excluded.company_total_pages
	`, string(status), dbTime(syncDate), page, totalPages)
	if err != nil {
		return apperrors.NewStoreError("save", "sync_state", "company", err)
	}
	return nil
}

// SaveEventSyncState records event sync progress. The singleton row must
// already exist: a company sync has to run at least once first. Calling out
// of order is a programming-sequence error surfaced as ErrNoSyncState.
func (s *SQLiteStore) SaveEventSyncState(ctx context.Context, status models.EventSyncStatus, syncDate time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_state SET event_status = ?, event_sync_date = ? WHERE id = 'user'
	`, string(status), dbTime(syncDate))
	if err != nil {
		return apperrors.NewStoreError("save", "sync_state", "event", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.ErrNoSyncState
	}
	return nil
}

// dbTime maps the zero time to NULL so absent dates stay absent in the store.
func dbTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
