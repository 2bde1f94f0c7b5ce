package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// addFollowCommands adds reminder management commands.
func addFollowCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newFollowCmd(app))
	rootCmd.AddCommand(newUnfollowCmd(app))
}

func newFollowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <ticker> [event type]",
		Short: "Set a reminder for an event",
		Long: `Set a reminder for an event. The event type defaults to quarterly
earnings.

Reminders on confirmed dates are created immediately. If the event date
is still an estimate, the reminder is queued and created automatically
once a later sync confirms the date.`,
		Example: `  fincal follow AAPL
  fincal follow AAPL "iPhone Launch"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Engine == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			ticker := strings.ToUpper(args[0])
			eventType := models.EventTypeEarnings
			if len(args) == 2 {
				eventType = args[1]
			}

			status, err := app.Engine.QueueReminder(ctx, ticker, eventType)
			if apperrors.Is(err, apperrors.ErrNotFound) {
				output.Error("No event %q for %s. Run 'fincal sync refresh' first.", eventType, ticker)
				return err
			}
			if err != nil {
				output.Error("Failed to set reminder: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{
					"ticker": ticker,
					"type":   eventType,
					"status": string(status),
				})
			}
			if status == models.ActionQueued {
				output.Warning("Date for %s %s is still an estimate. Reminder queued; it will be created once the date is confirmed.", ticker, eventType)
			} else {
				output.Success("Reminder set for %s %s", ticker, eventType)
			}
			return nil
		},
	}
}

func newUnfollowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unfollow <ticker>",
		Short: "Remove reminders for a ticker",
		Example: `  fincal unfollow AAPL
  fincal unfollow --event-type "Mar Fed Meeting"
  fincal unfollow --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			all, _ := cmd.Flags().GetBool("all")
			eventType, _ := cmd.Flags().GetString("event-type")
			switch {
			case all:
				if err := app.Store.DeleteAllActions(ctx); err != nil {
					output.Error("Failed to remove reminders: %v", err)
					return err
				}
				output.Success("All reminders removed")
			case eventType != "":
				if err := app.Store.DeleteActionsForEventType(ctx, eventType); err != nil {
					output.Error("Failed to remove reminders: %v", err)
					return err
				}
				output.Success("Reminders removed for %q events", eventType)
			case len(args) == 1:
				ticker := strings.ToUpper(args[0])
				if err := app.Store.DeleteActionsForTicker(ctx, ticker); err != nil {
					output.Error("Failed to remove reminders: %v", err)
					return err
				}
				output.Success("Reminders removed for %s", ticker)
			default:
				return fmt.Errorf("provide a ticker, --event-type or --all")
			}
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "remove every reminder")
	cmd.Flags().String("event-type", "", "remove reminders for one event type across tickers")

	return cmd
}
