package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fincal/internal/models"
	"fincal/internal/store"
	"fincal/pkg/utils"
)

// addEventCommands adds event listing and search commands.
func addEventCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newEventsCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
}

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List calendar events",
		Long: `List events from the local calendar, soonest first.

By default all events are shown. Use flags to narrow by date, category
or followed status.`,
		Example: `  fincal events --future
  fincal events --category Earnings
  fincal events --following --future`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			future, _ := cmd.Flags().GetBool("future")
			following, _ := cmd.Flags().GetBool("following")
			category, _ := cmd.Flags().GetString("category")

			filter := store.EventFilter{
				FutureOnly:    future,
				FollowingOnly: following,
				Category:      models.EventCategory(category),
			}
			return listEvents(cmd, app, output, filter)
		},
	}

	cmd.Flags().BoolP("future", "f", false, "only events from today onward")
	cmd.Flags().Bool("following", false, "only events with a reminder")
	cmd.Flags().StringP("category", "c", "", "filter by category (Earnings, Economic, Product, Crypto, PriceChange)")

	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search events by ticker or company name",
		Long: `Search events whose ticker or company name contains the given text,
case-insensitive.`,
		Example: `  fincal search apple
  fincal search AAP`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			return listEvents(cmd, app, output, store.EventFilter{Search: args[0]})
		},
	}
}

// listEvents drains the event cursor batch by batch and renders each row.
func listEvents(cmd *cobra.Command, app *App, output *Output, filter store.EventFilter) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor := app.Store.Events(filter)

	if output.IsJSON() {
		rows, err := cursor.All(ctx)
		if err != nil {
			return err
		}
		return output.JSON(rows)
	}

	now := time.Now()
	total := 0
	for {
		batch, err := cursor.Next(ctx)
		if err != nil {
			output.Error("Query failed: %v", err)
			return err
		}
		if len(batch) == 0 {
			break
		}
		for _, row := range batch {
			displayEventRow(output, row, now)
			total++
		}
	}

	if total == 0 {
		output.Dim("No events found.")
		return nil
	}
	output.Println()
	output.Dim("%d events", total)
	return nil
}

func displayEventRow(output *Output, row store.EventRow, now time.Time) {
	ticker := row.Ticker
	if models.IsEconomicTicker(ticker) {
		ticker = strings.TrimPrefix(ticker, models.EconomicTickerPrefix)
	}

	output.Printf("%-12s %-10s %-34s %-12s %s  %s\n",
		utils.FormatDate(row.Date),
		ticker,
		truncate(row.Type, 34),
		output.CategoryLabel(row.Category),
		output.CertaintyLabel(row.Certainty),
		utils.FormatDaysUntil(now, row.Date),
	)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
