package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fincal/internal/errors"
	"fincal/internal/logging"
	"fincal/internal/models"
	"fincal/internal/sources"
	"fincal/internal/store"
)

type fakeCatalog struct {
	// pages fetched, in order, across all calls
	fetched []int
	// failAt makes FetchPage fail on this page number once
	failAt int
	failed bool

	totalPages int
	perPage    int
}

func (f *fakeCatalog) FetchPage(ctx context.Context, page int) (*sources.CatalogPage, error) {
	if page == f.failAt && !f.failed {
		f.failed = true
		return nil, apperrors.NewSourceError("catalog", "", page, fmt.Errorf("connection reset"))
	}
	f.fetched = append(f.fetched, page)
	companies := make([]models.Company, 0, f.perPage)
	for i := 0; i < f.perPage; i++ {
		n := (page-1)*f.perPage + i
		companies = append(companies, models.Company{
			Ticker: fmt.Sprintf("TICK%03d", n),
			Name:   fmt.Sprintf("Company %03d", n),
		})
	}
	return &sources.CatalogPage{
		TotalCount:  f.totalPages * f.perPage,
		CurrentPage: page,
		PerPage:     f.perPage,
		Companies:   companies,
	}, nil
}

type fakeEarnings struct {
	events map[string][]models.Event
	calls  []string
	err    error
}

func (f *fakeEarnings) FetchEarnings(ctx context.Context, ticker string) ([]models.Event, error) {
	f.calls = append(f.calls, ticker)
	if f.err != nil {
		return nil, f.err
	}
	return f.events[ticker], nil
}

type fakePrices struct {
	price float64
}

func (f *fakePrices) ClosingPrice(ctx context.Context, ticker string, day time.Time) (float64, error) {
	return f.price, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "fincal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, s store.DataStore, catalog sources.CompanyCatalog, earnings sources.EarningsFeed, prices sources.PriceSource) *Engine {
	t.Helper()
	eng := NewEngine(s, catalog, earnings, prices, Config{}, logging.Nop())
	eng.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return eng
}

func TestSeedCompanies(t *testing.T) {
	s := newTestStore(t)
	eng := newTestEngine(t, s, nil, nil, nil)
	ctx := context.Background()

	result, err := eng.SeedCompanies(ctx)
	require.NoError(t, err)
	assert.Greater(t, result.Companies, 0)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CompanySeedSyncDone, state.CompanyStatus)

	// Seeding is idempotent and does not change the count.
	count, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	_, err = eng.SeedCompanies(ctx)
	require.NoError(t, err)
	again, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, count, again)
}

func TestSeedCompaniesDoesNotRegressStatus(t *testing.T) {
	s := newTestStore(t)
	eng := newTestEngine(t, s, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.SaveCompanySyncState(ctx, models.CompanyFullSyncDone, eng.now(), 12, 12))

	_, err := eng.SeedCompanies(ctx)
	require.NoError(t, err)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CompanyFullSyncDone, state.CompanyStatus)
	assert.Equal(t, 12, state.CompanyPage)
}

func TestSeedEventsBeforeCompanySync(t *testing.T) {
	s := newTestStore(t)
	eng := newTestEngine(t, s, nil, nil, nil)
	eng.cfg.EconomicEventsFile = writeEconomicFile(t)

	_, err := eng.SeedEvents(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoSyncState)
}

func TestSeedEvents(t *testing.T) {
	s := newTestStore(t)
	eng := newTestEngine(t, s, nil, nil, nil)
	eng.cfg.EconomicEventsFile = writeEconomicFile(t)
	ctx := context.Background()

	_, err := eng.SeedCompanies(ctx)
	require.NoError(t, err)

	result, err := eng.SeedEvents(ctx)
	require.NoError(t, err)
	assert.Greater(t, result.Events, 0)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EventSeedSyncDone, state.EventStatus)

	// Economic events land under the agency ticker with month-qualified types.
	ev, err := s.GetEvent(ctx, "ECONOMY_FOMC", "Mar Fed Meeting")
	require.NoError(t, err)
	assert.Equal(t, models.CertaintyConfirmed, ev.Certainty)
}

func writeEconomicFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "economic.yaml")
	data := []byte(`releases:
  - name: Fed Meeting
    agency: Federal Open Market Committee
    agency_code: FOMC
    period: 6 weeks
    link: https://www.federalreserve.gov/monetarypolicy/fomccalendars.htm
    dates:
      - 2026-03-18
      - 2026-04-29
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFullCompanySync(t *testing.T) {
	s := newTestStore(t)
	catalog := &fakeCatalog{totalPages: 3, perPage: 4}
	eng := newTestEngine(t, s, catalog, nil, nil)
	ctx := context.Background()

	result, err := eng.FullCompanySync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StartPage)
	assert.Equal(t, 3, result.LastPage)
	assert.Equal(t, 12, result.Companies)
	assert.Equal(t, []int{1, 2, 3}, catalog.fetched)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CompanyFullSyncDone, state.CompanyStatus)
	assert.Equal(t, 3, state.CompanyPage)
	assert.Equal(t, 3, state.CompanyTotalPages)

	count, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestFullCompanySyncResumesFromCheckpoint(t *testing.T) {
	s := newTestStore(t)
	catalog := &fakeCatalog{totalPages: 4, perPage: 2, failAt: 3}
	eng := newTestEngine(t, s, catalog, nil, nil)
	ctx := context.Background()

	// First run fails on page 3; pages 1 and 2 are committed.
	_, err := eng.FullCompanySync(ctx)
	require.Error(t, err)
	var syncErr *apperrors.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, 2, syncErr.Checkpoint)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CompanyFullSyncFailed, state.CompanyStatus)
	assert.Equal(t, 2, state.CompanyPage)

	// Second run resumes at page 3, never re-fetching 1 or 2.
	result, err := eng.FullCompanySync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.StartPage)
	assert.Equal(t, []int{1, 2, 3, 4}, catalog.fetched)

	state, err = s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CompanyFullSyncDone, state.CompanyStatus)

	count, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestRefreshStaleEvents(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, s.SaveCompanySyncState(ctx, models.CompanySeedSyncDone, now, 0, 0))

	// Inside the window, estimated: stale. Confirmed date from the feed.
	stale := models.Event{
		Ticker:    "AAPL",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 5),
		Certainty: models.CertaintyEstimated,
	}
	// Outside the window: untouched.
	fresh := models.Event{
		Ticker:    "MSFT",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 60),
		Certainty: models.CertaintyEstimated,
	}
	require.NoError(t, s.UpsertEvent(ctx, stale))
	require.NoError(t, s.UpsertEvent(ctx, fresh))

	confirmed := stale
	confirmed.Date = now.AddDate(0, 0, 4)
	confirmed.Certainty = models.CertaintyConfirmed
	confirmed.EstimatedEPS = 2.10

	earnings := &fakeEarnings{events: map[string][]models.Event{
		"AAPL": {confirmed},
	}}
	eng := newTestEngine(t, s, nil, earnings, &fakePrices{price: 187.50})

	result, err := eng.RefreshStaleEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 0, result.SourceErrors)
	assert.Equal(t, []string{"AAPL"}, earnings.calls)

	// The stale event was replaced in place, not duplicated.
	ev, err := s.GetEvent(ctx, "AAPL", models.EventTypeEarnings)
	require.NoError(t, err)
	assert.Equal(t, models.CertaintyConfirmed, ev.Certainty)
	assert.Equal(t, 2.10, ev.EstimatedEPS)

	// A history row was created and its prices patched.
	hist, err := s.GetEventHistory(ctx, "AAPL", models.EventTypeEarnings)
	require.NoError(t, err)
	assert.Equal(t, 187.50, hist.CurrentPrice)

	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EventRefreshDone, state.EventStatus)
}

func TestRefreshStaleEventsSkipsFailingTicker(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, s.SaveCompanySyncState(ctx, models.CompanySeedSyncDone, now, 0, 0))
	require.NoError(t, s.UpsertEvent(ctx, models.Event{
		Ticker:    "AAPL",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 3),
		Certainty: models.CertaintyEstimated,
	}))

	earnings := &fakeEarnings{err: fmt.Errorf("upstream 503")}
	eng := newTestEngine(t, s, nil, earnings, &fakePrices{})

	result, err := eng.RefreshStaleEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SourceErrors)
	assert.Equal(t, 0, result.Refreshed)

	// The sweep still completes and records that it ran.
	state, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EventRefreshDone, state.EventStatus)
}

func TestEstimatedEventConfirmedInPlace(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, s.UpsertCompany(ctx, "AAPL", "Apple Inc"))

	estimated := models.Event{
		Ticker:    "AAPL",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 10),
		Certainty: models.CertaintyEstimated,
	}
	require.NoError(t, s.UpsertEvent(ctx, estimated))

	policy := NewStalenessPolicy(0)
	assert.True(t, policy.NeedsRefresh(estimated, now))

	confirmed := estimated
	confirmed.Date = now.AddDate(0, 0, 14)
	confirmed.Certainty = models.CertaintyConfirmed
	require.NoError(t, s.UpsertEvent(ctx, confirmed))

	// Exactly one row, carrying the confirmed date, no longer stale.
	rows, err := s.Events(store.EventFilter{Search: "AAPL"}).All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CertaintyConfirmed, rows[0].Certainty)
	assert.True(t, rows[0].Date.Equal(confirmed.Date))
	assert.False(t, policy.NeedsRefresh(rows[0].Event, now))
}

func TestQueueReminderTwoPhase(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	estimated := models.Event{
		Ticker:    "AAPL",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 20),
		Certainty: models.CertaintyEstimated,
	}
	require.NoError(t, s.UpsertEvent(ctx, estimated))

	eng := newTestEngine(t, s, nil, nil, nil)

	status, err := eng.QueueReminder(ctx, "AAPL", models.EventTypeEarnings)
	require.NoError(t, err)
	assert.Equal(t, models.ActionQueued, status)

	// Nothing to promote yet.
	promoted, err := eng.ConfirmQueuedReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, promoted)

	// Date firms up; the queued reminder is promoted.
	confirmed := estimated
	confirmed.Certainty = models.CertaintyConfirmed
	require.NoError(t, s.UpsertEvent(ctx, confirmed))

	promoted, err = eng.ConfirmQueuedReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	queued, err := s.ListQueuedReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func TestQueueReminderConfirmedEvent(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, s.UpsertEvent(ctx, models.Event{
		Ticker:    "AAPL",
		Type:      models.EventTypeEarnings,
		Date:      now.AddDate(0, 0, 4),
		Certainty: models.CertaintyConfirmed,
	}))

	eng := newTestEngine(t, s, nil, nil, nil)

	status, err := eng.QueueReminder(ctx, "AAPL", models.EventTypeEarnings)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCreated, status)
}

func TestRecordPriceChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eng := newTestEngine(t, s, nil, nil, nil)

	fired, err := eng.RecordPriceChange(ctx, "AAPL", 5.12, AlertDaily)
	require.NoError(t, err)
	assert.True(t, fired)

	ev, err := s.GetEvent(ctx, "AAPL", "+ 5.12% today")
	require.NoError(t, err)
	assert.Equal(t, models.CertaintyConfirmed, ev.Certainty)

	// Same-day repeat is suppressed.
	fired, err = eng.RecordPriceChange(ctx, "AAPL", 6.40, AlertDaily)
	require.NoError(t, err)
	assert.False(t, fired)
}
