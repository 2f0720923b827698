package reflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/motioneffector/autoplanner/adapter/cli"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/spf13/cobra"
)

var (
	showFrom string
	showDays int
)

var showCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the resolved schedule for a date window",
	Aliases: []string{"week", "view"},
	Long: `Run the reflow engine over a date window and display the resulting instances and any conflicts.

Examples:
  reflow reflow show
  reflow reflow show --from 2026-08-03 --days 14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ScheduleQuery == nil {
			fmt.Println("Running reflow requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		windowStart := timegrid.LocalDateFromTime(time.Now())
		if showFrom != "" {
			var err error
			windowStart, err = timegrid.ParseLocalDate(showFrom)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
		}
		if showDays <= 0 {
			showDays = 7
		}
		windowEnd := windowStart.AddDays(showDays)

		output, err := app.ScheduleQuery.Run(cmd.Context(), app.CurrentUserID, windowStart, windowEnd)
		if err != nil {
			return fmt.Errorf("failed to resolve schedule: %w", err)
		}

		fmt.Printf("Schedule from %s to %s\n", windowStart, windowEnd)
		fmt.Println(strings.Repeat("=", 60))

		if len(output.Instances) == 0 {
			fmt.Println("\n  No instances scheduled in this window.")
		}

		for _, inst := range output.Instances {
			tag := ""
			if inst.Fixed {
				tag = " [fixed]"
			}
			if inst.AllDay {
				tag += " [all-day]"
			}
			fmt.Printf("\n%s  %s  %s (%dm)%s\n", inst.Date, inst.Start, inst.Title, inst.Duration, tag)
			fmt.Printf("    series: %s\n", inst.SeriesID)
		}

		if len(output.Conflicts) > 0 {
			fmt.Println(strings.Repeat("-", 60))
			fmt.Printf("Conflicts: %d\n", len(output.Conflicts))
			for _, c := range output.Conflicts {
				fmt.Printf("  [%s/%s] %s\n", c.Kind, c.Severity, c.Message)
			}
		}

		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showFrom, "from", "", "window start date YYYY-MM-DD (default: today)")
	showCmd.Flags().IntVar(&showDays, "days", 7, "window length in days")
}
