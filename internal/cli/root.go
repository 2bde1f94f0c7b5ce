// Package cli provides the command-line interface for the financial
// calendar application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fincal/internal/config"
	"fincal/internal/logging"
	"fincal/internal/sources"
	"fincal/internal/store"
	"fincal/internal/sync"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-03-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
	Engine *sync.Engine
}

// NewRootCmd creates the root command for the CLI. The returned cleanup
// closes the store and must run after Execute, even on command error.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) (*cobra.Command, func()) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, commands needing it will fail")
	} else {
		dataStore.SetCryptoTickers(sources.CryptoTickers())
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	if app.Store != nil {
		catalog := sources.NewCatalogClient(cfg.Sources.CompanyCatalogURL, cfg.Sources.CatalogPerPage)
		earnings := sources.NewEarningsClient(cfg.Sources.EarningsFeedURL)
		prices := sources.NewPriceClient(cfg.Sources.PriceHistoryURL)
		app.Engine = sync.NewEngine(app.Store, catalog, earnings, prices, sync.Config{
			EconomicEventsFile: cfg.Sources.EconomicEventsFile,
			RefreshWindowDays:  cfg.Sync.RefreshWindowDays,
			Alerts: sync.AlertPolicy{
				ThirtyDayGap:  cfg.Sync.ThirtyDayAlertGap,
				YearToDateGap: cfg.Sync.YearToDateAlertGap,
			},
		}, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "fincal",
		Short: "Financial calendar - earnings, economic and crypto event tracking",
		Long: `fincal keeps a local calendar of company earnings dates, economic
releases, product launches and crypto events.

It syncs the company catalog and earnings feed into a local SQLite
database, refreshes stale event dates, and manages event reminders.

Use 'fincal help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/fincal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addSyncCommands(rootCmd, app)
	addEventCommands(rootCmd, app)
	addHistoryCommand(rootCmd, app)
	addFollowCommands(rootCmd, app)
	addVersionCommand(rootCmd)

	cleanup := func() {
		if app.Store == nil {
			return
		}
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to close store")
		}
	}
	return rootCmd, cleanup
}
