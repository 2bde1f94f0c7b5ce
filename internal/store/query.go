// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// EventCursor is a lazy, restartable paged view over events. Each call to
// Next fetches at most EventBatchSize rows; the full result set is never
// materialized at once.
type EventCursor struct {
	store  *SQLiteStore
	filter EventFilter
	offset int
	done   bool
}

// Events returns a cursor over the events matching filter.
func (s *SQLiteStore) Events(filter EventFilter) *EventCursor {
	return &EventCursor{store: s, filter: filter}
}

// Restart rewinds the cursor to the beginning of the result set.
func (c *EventCursor) Restart() {
	c.offset = 0
	c.done = false
}

// Done reports whether the cursor has been exhausted.
func (c *EventCursor) Done() bool {
	return c.done
}

// Next returns the next batch of events, at most EventBatchSize rows. It
// returns (nil, nil) once the sequence is exhausted.
func (c *EventCursor) Next(ctx context.Context) ([]EventRow, error) {
	if c.done {
		return nil, nil
	}

	query, args := buildEventQuery(c.filter)
	args = append(args, EventBatchSize, c.offset)

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("query", "event", "", err)
	}
	defer rows.Close()

	var batch []EventRow
	for rows.Next() {
		r, err := scanEventRow(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("scan", "event", "", err)
		}
		batch = append(batch, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("query", "event", "", err)
	}

	c.offset += len(batch)
	if len(batch) < EventBatchSize {
		c.done = true
	}
	return batch, nil
}

// All drains the cursor and returns every remaining row. Intended for tests
// and small result sets; UI consumers should page with Next.
func (c *EventCursor) All(ctx context.Context) ([]EventRow, error) {
	var all []EventRow
	for {
		batch, err := c.Next(ctx)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)
	}
}

func buildEventQuery(f EventFilter) (string, []interface{}) {
	query := `
		SELECT e.ticker, e.type, e.date, e.related_details, e.related_date, e.prior_end_date,
		       e.certainty, e.estimated_eps, e.actual_eps_prior, e.category, c.name
		FROM events e
		JOIN companies c ON c.ticker = e.ticker
		WHERE 1=1`
	args := []interface{}{}

	if f.FutureOnly {
		today := f.Today
		if today.IsZero() {
			today = time.Now()
		}
		// Compare on the day boundary, not the instant.
		query += " AND date(e.date) >= date(?)"
		args = append(args, today)
	}
	if f.Category != "" {
		query += " AND e.category = ?"
		args = append(args, string(f.Category))
	}
	if f.FollowingOnly {
		query += " AND EXISTS (SELECT 1 FROM actions a WHERE a.ticker = e.ticker AND a.event_type = e.type)"
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		query += " AND (instr(lower(e.ticker), ?) > 0 OR instr(lower(c.name), ?) > 0)"
		args = append(args, needle, needle)
	}

	query += " ORDER BY e.date ASC, e.ticker ASC, e.type ASC LIMIT ? OFFSET ?"
	return query, args
}

func scanEventRow(row rowScanner) (*EventRow, error) {
	var r EventRow
	var relatedDate, priorEndDate sql.NullTime
	var certainty, category string

	err := row.Scan(&r.Ticker, &r.Type, &r.Date, &r.RelatedDetails,
		&relatedDate, &priorEndDate, &certainty, &r.EstimatedEPS,
		&r.ActualEPSPrior, &category, &r.CompanyName)
	if err != nil {
		return nil, err
	}

	r.RelatedDate = relatedDate.Time
	r.PriorEndDate = priorEndDate.Time
	r.Category = models.EventCategory(category)
	r.Certainty, err = models.ParseCertainty(certainty)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
