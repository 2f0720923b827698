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

var (
	rescheduleDate string
	rescheduleTime string
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule [series-id]",
	Short: "Reschedule a single instance of a series to a new time",
	Long: `Move one occurrence of a recurring series to a new time on the same day.

Examples:
  reflow series reschedule abc123 --date 2026-08-05 --to 14:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ExceptionHandler == nil {
			fmt.Println("Rescheduling instances requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		if rescheduleTime == "" {
			return fmt.Errorf("--to is required")
		}

		seriesID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id: %w", err)
		}

		date := timegrid.LocalDateFromTime(time.Now())
		if rescheduleDate != "" {
			date, err = timegrid.ParseLocalDate(rescheduleDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		newTime, err := parseLocalTime(rescheduleTime)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		if err := app.ExceptionHandler.Reschedule(cmd.Context(), seriesCommands.RescheduleInstanceCommand{
			SeriesID: seriesID,
			Date:     date,
			NewTime:  newTime,
		}); err != nil {
			return fmt.Errorf("failed to reschedule instance: %w", err)
		}

		fmt.Printf("Rescheduled instance of %s on %s to %s\n", seriesID, date, newTime)
		return nil
	},
}

func init() {
	rescheduleCmd.Flags().StringVar(&rescheduleDate, "date", "", "instance date YYYY-MM-DD (default: today)")
	rescheduleCmd.Flags().StringVar(&rescheduleTime, "to", "", "new time of day HH:MM")
}
