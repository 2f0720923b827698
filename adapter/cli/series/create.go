package series

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/motioneffector/autoplanner/adapter/cli"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/spf13/cobra"
)

var (
	frequency  string
	duration   int
	startDate  string
	weekdays   string
	dayOfMonth int
	fixedTime  string
)

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new recurring series",
	Long: `Create a new recurring series with its first pattern.

Frequencies:
  daily     - Every day
  weekly    - Specific weekdays (use --weekdays)
  monthly   - Specific day of month (use --day-of-month)

Examples:
  reflow series create "Morning Run" -f daily -d 30
  reflow series create "Team Standup" -f weekly --weekdays mon,wed,fri -d 15
  reflow series create "Rent" -f monthly --day-of-month 1 -d 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateSeriesHandler == nil {
			fmt.Println("Series creation requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		name := args[0]

		pattern, err := buildPattern()
		if err != nil {
			return err
		}
		if fixedTime != "" {
			t, err := parseLocalTime(fixedTime)
			if err != nil {
				return fmt.Errorf("invalid --time: %w", err)
			}
			pattern = pattern.WithTime(t)
		}

		start := timegrid.LocalDateFromTime(time.Now())
		if startDate != "" {
			start, err = timegrid.ParseLocalDate(startDate)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}

		createSeries := seriesCommands.CreateSeriesCommand{
			UserID:    app.CurrentUserID,
			Name:      name,
			StartDate: start,
			Pattern:   pattern,
		}

		result, err := app.CreateSeriesHandler.Handle(cmd.Context(), createSeries)
		if err != nil {
			return fmt.Errorf("failed to create series: %w", err)
		}

		fmt.Printf("Created series: %s\n", name)
		fmt.Printf("  ID: %s\n", result.SeriesID)
		fmt.Printf("  Frequency: %s\n", frequency)
		fmt.Printf("  Duration: %d minutes\n", duration)

		return nil
	},
}

func buildPattern() (*domain.Pattern, error) {
	switch frequency {
	case "daily", "":
		return domain.NewDailyPattern(duration)
	case "weekly":
		if weekdays == "" {
			return nil, fmt.Errorf("--weekdays is required for weekly frequency")
		}
		days := make(map[int]bool)
		for _, name := range strings.Split(weekdays, ",") {
			d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			days[d] = true
		}
		return domain.NewWeeklyPattern(days, duration)
	case "monthly":
		if dayOfMonth == 0 {
			return nil, fmt.Errorf("--day-of-month is required for monthly frequency")
		}
		return domain.NewMonthlyPattern(dayOfMonth, duration)
	default:
		return nil, fmt.Errorf("unknown frequency %q (daily, weekly, monthly)", frequency)
	}
}

func parseLocalTime(s string) (timegrid.LocalTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return timegrid.LocalTime{}, fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return timegrid.LocalTime{}, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return timegrid.LocalTime{}, err
	}
	return timegrid.LocalTime{Hour: hour, Minute: minute}, nil
}

func init() {
	createCmd.Flags().StringVarP(&frequency, "frequency", "f", "daily", "recurrence frequency (daily, weekly, monthly)")
	createCmd.Flags().IntVarP(&duration, "duration", "d", 30, "instance duration in minutes")
	createCmd.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (default: today)")
	createCmd.Flags().StringVar(&weekdays, "weekdays", "", "comma-separated weekdays for weekly frequency (mon,tue,...)")
	createCmd.Flags().IntVar(&dayOfMonth, "day-of-month", 0, "day of month for monthly frequency")
	createCmd.Flags().StringVarP(&fixedTime, "time", "t", "", "fixed time of day HH:MM (default: flexible)")
}
