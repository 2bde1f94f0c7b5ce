package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
	"fincal/pkg/utils"
)

// addHistoryCommand adds the event history command.
func addHistoryCommand(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <ticker> [event type]",
		Short: "Show price context for an event",
		Long: `Show the upcoming occurrence of an event alongside its previous
occurrence and the closing prices around both. The event type defaults
to quarterly earnings.

Prices that have not been fetched yet show as "--"; a later
'fincal sync refresh' fills them in.`,
		Example: `  fincal history AAPL`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
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

			ev, err := app.Store.GetEvent(ctx, ticker, eventType)
			if apperrors.Is(err, apperrors.ErrNotFound) {
				output.Error("No event %q for %s", eventType, ticker)
				return err
			}
			if err != nil {
				return err
			}

			hist, err := app.Store.GetEventHistory(ctx, ticker, eventType)
			if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"event":   ev,
					"history": hist,
				})
			}

			output.Bold("%s - %s", ticker, eventType)
			output.Printf("  Next:     %s (%s)\n", utils.FormatDate(ev.Date), output.CertaintyLabel(ev.Certainty))
			if ev.EstimatedEPS != 0 || ev.ActualEPSPrior != 0 {
				output.Printf("  EPS:      est %s, prior actual %s\n",
					utils.FormatEPS(ev.EstimatedEPS), utils.FormatEPS(ev.ActualEPSPrior))
			}

			if hist == nil {
				output.Dim("  No price history yet. Run 'fincal sync refresh'.")
				return nil
			}

			output.Printf("  Previous: %s (%s), close %s\n",
				utils.FormatDate(hist.Previous1Date),
				output.CertaintyLabel(hist.Previous1Status),
				utils.FormatPrice(hist.Previous1Price))
			if !hist.Previous1RelatedDate.IsZero() {
				output.Printf("  Quarter end %s, close %s\n",
					utils.FormatDate(hist.Previous1RelatedDate),
					utils.FormatPrice(hist.Previous1RelatedPrice))
			}
			output.Printf("  Latest:   %s, close %s\n",
				utils.FormatDate(hist.CurrentDate),
				utils.FormatPrice(hist.CurrentPrice))
			return nil
		},
	}
}
