package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// addSyncCommands adds the sync command group.
func addSyncCommands(rootCmd *cobra.Command, app *App) {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync companies and events from remote sources",
	}

	syncCmd.AddCommand(newSyncSeedCmd(app))
	syncCmd.AddCommand(newSyncCompaniesCmd(app))
	syncCmd.AddCommand(newSyncRefreshCmd(app))

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(newStatusCmd(app))
}

func newSyncSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter company set and static event calendars",
		Long: `Load the curated starter companies (plus economic agencies and the
coin registry), then the economic release calendar and product events.

Safe to run repeatedly: existing records are kept, nothing is duplicated.`,
		Example: `  fincal sync seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Engine == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			companies, err := app.Engine.SeedCompanies(ctx)
			if err != nil {
				output.Error("Company seed failed: %v", err)
				return err
			}
			events, err := app.Engine.SeedEvents(ctx)
			if err != nil {
				output.Error("Event seed failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{
					"companies": companies.Companies,
					"events":    events.Events,
				})
			}
			output.Success("Seeded %d companies and %d events", companies.Companies, events.Events)
			return nil
		},
	}
}

func newSyncCompaniesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "full",
		Aliases: []string{"companies"},
		Short:   "Crawl the full company catalog",
		Long: `Fetch every page of the remote company catalog into the local store.

Progress is checkpointed per page. If the crawl is interrupted, running
the command again resumes from where it stopped instead of starting over.`,
		Example: `  fincal sync full`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Engine == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			result, err := app.Engine.FullCompanySync(ctx)
			if err != nil {
				var syncErr *apperrors.SyncError
				if apperrors.As(err, &syncErr) {
					output.Error("Sync failed after page %d of %d. Run 'fincal sync full' again to resume.",
						syncErr.Checkpoint, syncErr.TotalPages)
				} else {
					output.Error("Sync failed: %v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("Synced %d companies (pages %d-%d of %d)",
				result.Companies, result.StartPage, result.LastPage, result.TotalPages)
			return nil
		},
	}
}

func newSyncRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh stale event dates",
		Long: `Re-fetch earnings events whose dates are near and not yet confirmed,
or already in the past. Also promotes queued reminders whose dates have
firmed up since they were placed.`,
		Example: `  fincal sync refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Engine == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			result, err := app.Engine.RefreshStaleEvents(ctx)
			if err != nil {
				output.Error("Refresh failed: %v", err)
				return err
			}

			promoted, err := app.Engine.ConfirmQueuedReminders(ctx)
			if err != nil {
				output.Error("Reminder confirmation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{
					"evaluated":     result.Evaluated,
					"refreshed":     result.Refreshed,
					"source_errors": result.SourceErrors,
					"promoted":      promoted,
				})
			}
			output.Success("Checked %d events, refreshed %d", result.Evaluated, result.Refreshed)
			if result.SourceErrors > 0 {
				output.Warning("%d tickers could not be refreshed", result.SourceErrors)
			}
			if promoted > 0 {
				output.Info("Promoted %d queued reminders", promoted)
			}
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			state, err := app.Store.GetSyncState(ctx)
			if apperrors.Is(err, apperrors.ErrNotFound) {
				output.Warning("No sync has run yet. Start with 'fincal sync seed'.")
				return nil
			}
			if err != nil {
				output.Error("Failed to read sync state: %v", err)
				return err
			}

			count, err := app.Store.CountCompanies(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"company_status":      state.CompanyStatus,
					"company_sync_date":   state.CompanySyncDate,
					"company_page":        state.CompanyPage,
					"company_total_pages": state.CompanyTotalPages,
					"event_status":        state.EventStatus,
					"event_sync_date":     state.EventSyncDate,
					"companies":           count,
				})
			}

			output.Bold("Sync status")
			output.Printf("  Companies: %s", state.CompanyStatus)
			if state.CompanyStatus == models.CompanyFullSyncStarted || state.CompanyStatus == models.CompanyFullSyncFailed {
				output.Printf(" (page %d of %d)", state.CompanyPage, state.CompanyTotalPages)
			}
			output.Println()
			if !state.CompanySyncDate.IsZero() {
				output.Printf("    last run %s\n", state.CompanySyncDate.Format("2006-01-02 15:04"))
			}
			output.Printf("  Events:    %s\n", state.EventStatus)
			if !state.EventSyncDate.IsZero() {
				output.Printf("    last run %s\n", state.EventSyncDate.Format("2006-01-02 15:04"))
			}
			output.Printf("  %d companies in store\n", count)

			if state.CompanyStatus == models.CompanyFullSyncFailed {
				output.Warning("Last company sync failed. Run 'fincal sync full' to resume from page %d.",
					state.CompanyPage+1)
			}
			return nil
		},
	}
}
