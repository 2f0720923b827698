package series

import (
	"fmt"
	"time"

	"github.com/motioneffector/autoplanner/adapter/cli"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelDate string

var cancelCmd = &cobra.Command{
	Use:   "cancel [series-id]",
	Short: "Cancel a single instance of a series",
	Long: `Cancel one occurrence of a recurring series without affecting the rest of the series.

Examples:
  reflow series cancel abc123 --date 2026-08-05`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ExceptionHandler == nil {
			fmt.Println("Cancelling instances requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		seriesID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id: %w", err)
		}

		date := timegrid.LocalDateFromTime(time.Now())
		if cancelDate != "" {
			date, err = timegrid.ParseLocalDate(cancelDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		if err := app.ExceptionHandler.Cancel(cmd.Context(), seriesCommands.CancelInstanceCommand{
			SeriesID: seriesID,
			Date:     date,
		}); err != nil {
			return fmt.Errorf("failed to cancel instance: %w", err)
		}

		fmt.Printf("Cancelled instance of %s on %s\n", seriesID, date)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVar(&cancelDate, "date", "", "instance date YYYY-MM-DD (default: today)")
}
