package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
	"fincal/internal/sources"
	"fincal/internal/store"
	"fincal/pkg/utils"
)

// Config holds engine tunables.
type Config struct {
	EconomicEventsFile string
	RefreshWindowDays  int
	Alerts             AlertPolicy
}

// Engine orchestrates seeding, the resumable company catalog crawl, and the
// event staleness sweep. It is the only component that mutates sync state;
// the repository never changes it as an upsert side effect. Every operation
// is a one-shot unit of work: there is no background scheduler, and failed
// remote calls are not retried here (callers may re-issue the idempotent
// operation).
type Engine struct {
	store    store.DataStore
	catalog  sources.CompanyCatalog
	earnings sources.EarningsFeed
	prices   sources.PriceSource
	cfg      Config
	policy   StalenessPolicy
	alerts   AlertPolicy
	log      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine wires an engine to its store and source adapters.
func NewEngine(ds store.DataStore, catalog sources.CompanyCatalog, earnings sources.EarningsFeed, prices sources.PriceSource, cfg Config, logger zerolog.Logger) *Engine {
	alerts := cfg.Alerts
	if alerts == (AlertPolicy{}) {
		alerts = DefaultAlertPolicy()
	}
	return &Engine{
		store:    ds,
		catalog:  catalog,
		earnings: earnings,
		prices:   prices,
		cfg:      cfg,
		policy:   NewStalenessPolicy(cfg.RefreshWindowDays),
		alerts:   alerts,
		log:      logger,
		now:      time.Now,
	}
}

// SeedResult reports what a seed pass loaded.
type SeedResult struct {
	Companies int
	Events    int
	Skipped   int
}

// SeedCompanies loads the curated company set: seed tickers, economic
// agencies, and the coin registry. It creates the sync state record lazily
// and marks SeedSyncDone without regressing a further-along status.
func (e *Engine) SeedCompanies(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}

	all := sources.SeedCompanies()
	all = append(all, sources.EconomicAgencies()...)
	all = append(all, sources.CryptoCompanies()...)

	for _, co := range all {
		if err := e.store.UpsertCompany(ctx, co.Ticker, co.Name); err != nil {
			return result, err
		}
		result.Companies++
	}

	state, err := e.store.GetSyncState(ctx)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		err = e.store.SaveCompanySyncState(ctx, models.CompanySeedSyncDone, e.now(), 0, 0)
	case err == nil && state.CompanyStatus == models.CompanyNoSyncPerformed:
		err = e.store.SaveCompanySyncState(ctx, models.CompanySeedSyncDone, e.now(), state.CompanyPage, state.CompanyTotalPages)
	}
	if err != nil {
		return result, err
	}

	e.log.Info().Int("companies", result.Companies).Msg("company seed sync done")
	return result, nil
}

// SeedEvents loads the local economic calendar file and the static product
// registry. A company sync must have run at least once before; calling out
// of order returns ErrNoSyncState.
func (e *Engine) SeedEvents(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}

	// Ordering contract: refuse before writing anything.
	if _, err := e.store.GetSyncState(ctx); apperrors.Is(err, apperrors.ErrNotFound) {
		e.log.Error().Msg("event seed before any company sync: programming-sequence error")
		return result, apperrors.ErrNoSyncState
	} else if err != nil {
		return result, err
	}

	releases, err := sources.LoadEconomicReleases(e.cfg.EconomicEventsFile)
	if err != nil {
		return result, err
	}

	for _, rel := range releases {
		if err := e.store.UpsertCompany(ctx, rel.Ticker(), rel.Agency); err != nil {
			return result, err
		}
		for _, ev := range rel.Events() {
			if err := e.store.UpsertEvent(ctx, ev); err != nil {
				return result, err
			}
			result.Events++
		}
	}

	for _, ev := range sources.ProductEvents(e.now().Year()) {
		if err := e.store.UpsertEvent(ctx, ev); err != nil {
			return result, err
		}
		result.Events++
	}

	if err := e.advanceEventStatus(ctx, models.EventSeedSyncDone); err != nil {
		return result, err
	}

	e.log.Info().Int("events", result.Events).Msg("event seed sync done")
	return result, nil
}

// advanceEventStatus moves the event sync status forward, never backward,
// and surfaces the ordering contract when no sync state exists yet.
func (e *Engine) advanceEventStatus(ctx context.Context, status models.EventSyncStatus) error {
	state, err := e.store.GetSyncState(ctx)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		e.log.Error().Msg("event sync status update before any company sync: programming-sequence error")
		return apperrors.ErrNoSyncState
	}
	if err != nil {
		return err
	}
	if status == models.EventSeedSyncDone && state.EventStatus == models.EventRefreshDone {
		// Seeding again after a refresh sweep must not regress the status.
		return nil
	}
	if err := e.store.SaveEventSyncState(ctx, status, e.now()); err != nil {
		if apperrors.Is(err, apperrors.ErrNoSyncState) {
			e.log.Error().Msg("event sync status update before any company sync: programming-sequence error")
		}
		return err
	}
	return nil
}

// CompanySyncResult reports progress of a full catalog crawl.
type CompanySyncResult struct {
	StartPage  int
	LastPage   int
	TotalPages int
	Companies  int
}

// FullCompanySync crawls the paginated company catalog. Progress is
// checkpointed after every page: if the previous run ended mid-crawl
// (FullSyncStarted or FullSyncAttemptedButFailed with a checkpoint) the
// crawl resumes from checkpoint+1, never re-fetching completed pages. A
// remote failure preserves the last good checkpoint, records
// FullSyncAttemptedButFailed, and surfaces the error for a user-visible
// retry prompt.
func (e *Engine) FullCompanySync(ctx context.Context) (*CompanySyncResult, error) {
	startPage := 1
	totalPages := 0

	state, err := e.store.GetSyncState(ctx)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err == nil && state.CompanyPage > 0 &&
		(state.CompanyStatus == models.CompanyFullSyncStarted || state.CompanyStatus == models.CompanyFullSyncFailed) {
		startPage = state.CompanyPage + 1
		totalPages = state.CompanyTotalPages
		e.log.Info().Int("page", startPage).Int("total", totalPages).Msg("resuming company sync from checkpoint")
	}

	result := &CompanySyncResult{StartPage: startPage, TotalPages: totalPages}

	if err := e.store.SaveCompanySyncState(ctx, models.CompanyFullSyncStarted, e.now(), startPage-1, totalPages); err != nil {
		return result, err
	}

	page := startPage
	for {
		cp, err := e.catalog.FetchPage(ctx, page)
		if err != nil {
			checkpoint := page - 1
			if saveErr := e.store.SaveCompanySyncState(ctx, models.CompanyFullSyncFailed, e.now(), checkpoint, totalPages); saveErr != nil {
				e.log.Error().Err(saveErr).Msg("failed to record sync failure checkpoint")
			}
			e.log.Warn().Err(err).Int("page", page).Msg("company sync failed, checkpoint preserved")
			return result, apperrors.NewSyncError("company-full-sync", checkpoint, totalPages, err)
		}

		if totalPages == 0 {
			totalPages = cp.TotalPages()
			result.TotalPages = totalPages
		}

		for _, co := range cp.Companies {
			if err := e.store.UpsertCompany(ctx, co.Ticker, co.Name); err != nil {
				return result, err
			}
			result.Companies++
		}

		if err := e.store.SaveCompanySyncState(ctx, models.CompanyFullSyncStarted, e.now(), page, totalPages); err != nil {
			return result, err
		}
		result.LastPage = page

		if page >= totalPages || len(cp.Companies) == 0 {
			break
		}
		page++
	}

	if err := e.store.SaveCompanySyncState(ctx, models.CompanyFullSyncDone, e.now(), result.LastPage, totalPages); err != nil {
		return result, err
	}

	e.log.Info().Int("companies", result.Companies).Int("pages", result.LastPage-startPage+1).Msg("company full sync done")
	return result, nil
}

// RefreshResult reports what a staleness sweep touched.
type RefreshResult struct {
	Evaluated    int
	Refreshed    int
	SourceErrors int
	Histories    int
}

// RefreshStaleEvents sweeps cached earnings events and re-fetches the ones
// the staleness policy flags. Per-ticker source failures and malformed
// records are skipped so the sweep always completes; their count is
// surfaced in the result. Completion records RefreshCheckDone — a statement
// that the sweep ran, not that every event is fresh.
func (e *Engine) RefreshStaleEvents(ctx context.Context) (*RefreshResult, error) {
	result := &RefreshResult{}
	today := e.now()

	// Scan first, mutate after: upserting mid-iteration would shift the
	// cursor's pagination under it.
	var stale []string
	seen := make(map[string]bool)

	cursor := e.store.Events(store.EventFilter{Category: models.CategoryEarnings})
	for {
		batch, err := cursor.Next(ctx)
		if err != nil {
			return result, err
		}
		if len(batch) == 0 {
			break
		}
		for _, row := range batch {
			result.Evaluated++
			if !e.policy.NeedsRefresh(row.Event, today) || seen[row.Ticker] {
				continue
			}
			seen[row.Ticker] = true
			stale = append(stale, row.Ticker)
		}
	}

	for _, ticker := range stale {
		events, err := e.earnings.FetchEarnings(ctx, ticker)
		if err != nil {
			result.SourceErrors++
			e.log.Warn().Err(err).Str("ticker", ticker).Msg("event refresh failed, skipping ticker")
			continue
		}

		for _, ev := range events {
			if err := e.store.UpsertEvent(ctx, ev); err != nil {
				return result, err
			}
			result.Refreshed++
		}
		if len(events) == 0 {
			continue
		}

		if err := e.backfillHistory(ctx, ticker, today); err != nil {
			result.SourceErrors++
			e.log.Warn().Err(err).Str("ticker", ticker).Msg("history backfill failed")
			continue
		}
		result.Histories++
	}

	if err := e.advanceEventStatus(ctx, models.EventRefreshDone); err != nil {
		return result, err
	}

	e.log.Info().
		Int("evaluated", result.Evaluated).
		Int("refreshed", result.Refreshed).
		Int("source_errors", result.SourceErrors).
		Msg("staleness sweep done")
	return result, nil
}

// backfillHistory ensures the earnings event has a history row and patches
// its price columns from the price source. Missing closes stay at the
// sentinel; a price-not-yet-known history row is valid and will be patched
// by a later sweep.
func (e *Engine) backfillHistory(ctx context.Context, ticker string, today time.Time) error {
	ev, err := e.store.GetEvent(ctx, ticker, models.EventTypeEarnings)
	if err != nil {
		return err
	}

	currentDay := utils.PreviousTradingDay(today)

	hist, err := e.store.GetEventHistory(ctx, ticker, models.EventTypeEarnings)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		// First sighting: estimate the previous occurrence one quarter back.
		hist = &models.EventHistory{
			Ticker:                ticker,
			EventType:             models.EventTypeEarnings,
			Previous1Date:         ev.Date.AddDate(0, -3, 0),
			Previous1Status:       models.CertaintyEstimated,
			Previous1RelatedDate:  ev.PriorEndDate,
			CurrentDate:           currentDay,
			Previous1Price:        models.PriceUnknown,
			Previous1RelatedPrice: models.PriceUnknown,
			CurrentPrice:          models.PriceUnknown,
		}
		if err := e.store.UpsertEventHistory(ctx, *hist); err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else if err := e.store.UpdateHistoryCurrentDate(ctx, ticker, models.EventTypeEarnings, currentDay); err != nil {
		return err
	}

	prev1, err := e.prices.ClosingPrice(ctx, ticker, hist.Previous1Date)
	if err != nil {
		return err
	}
	prev1Related := models.PriceUnknown
	if !hist.Previous1RelatedDate.IsZero() {
		if prev1Related, err = e.prices.ClosingPrice(ctx, ticker, hist.Previous1RelatedDate); err != nil {
			return err
		}
	}
	current, err := e.prices.ClosingPrice(ctx, ticker, currentDay)
	if err != nil {
		return err
	}

	return e.store.UpdateHistoryPrices(ctx, ticker, models.EventTypeEarnings, prev1, prev1Related, current)
}
