package series

import (
	"fmt"

	"github.com/motioneffector/autoplanner/adapter/cli"
	"github.com/spf13/cobra"
)

var showArchived bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring series",
	Long:  `List all recurring series for the current user.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SeriesQueries == nil {
			fmt.Println("Listing series requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		all, err := app.SeriesQueries.ListByUser(cmd.Context(), app.CurrentUserID)
		if err != nil {
			return fmt.Errorf("failed to list series: %w", err)
		}

		if len(all) == 0 {
			fmt.Println("No series found.")
			return nil
		}

		for _, s := range all {
			if s.IsArchived() && !showArchived {
				continue
			}
			status := ""
			if s.IsArchived() {
				status = " [archived]"
			}
			if s.IsLocked() {
				status += " [locked]"
			}
			fmt.Printf("%s  %-30s since %s%s\n", s.ID(), s.Name(), s.StartDate(), status)
			if tags := s.Tags(); len(tags) > 0 {
				fmt.Printf("    tags: %v\n", tags)
			}
			fmt.Printf("    patterns: %d\n", len(s.Patterns()))
		}

		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&showArchived, "archived", false, "include archived series")
}
