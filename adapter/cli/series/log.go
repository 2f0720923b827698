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
	logDate  string
	logStart string
	logEnd   string
)

var logCmd = &cobra.Command{
	Use:   "log [series-id]",
	Short: "Log a completed instance of a series",
	Long: `Record that an instance of a series was completed.

Examples:
  reflow series log abc123 --date 2026-08-02
  reflow series log abc123 --date 2026-08-02 --start 07:00 --end 07:30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.LogCompletionHandler == nil {
			fmt.Println("Logging completions requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		seriesID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id: %w", err)
		}

		instanceDate := timegrid.LocalDateFromTime(time.Now())
		if logDate != "" {
			instanceDate, err = timegrid.ParseLocalDate(logDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		var startTime, endTime *timegrid.LocalTime
		if logStart != "" {
			t, err := parseLocalTime(logStart)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			startTime = &t
		}
		if logEnd != "" {
			t, err := parseLocalTime(logEnd)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			endTime = &t
		}

		_, err = app.LogCompletionHandler.Handle(cmd.Context(), seriesCommands.LogCompletionCommand{
			SeriesID:     seriesID,
			InstanceDate: instanceDate,
			StartTime:    startTime,
			EndTime:      endTime,
		})
		if err != nil {
			return fmt.Errorf("failed to log completion: %w", err)
		}

		fmt.Printf("Logged completion for %s on %s\n", seriesID, instanceDate)
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "instance date YYYY-MM-DD (default: today)")
	logCmd.Flags().StringVar(&logStart, "start", "", "actual start time HH:MM")
	logCmd.Flags().StringVar(&logEnd, "end", "", "actual end time HH:MM")
}
