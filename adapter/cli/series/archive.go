package series

import (
	"fmt"

	"github.com/motioneffector/autoplanner/adapter/cli"
	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [series-id]",
	Short: "Archive a series",
	Long:  `Archive a series so it no longer appears in scheduling or default listings.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SeriesMutationHandler == nil {
			fmt.Println("Archiving series requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		seriesID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id: %w", err)
		}

		if err := app.SeriesMutationHandler.Archive(cmd.Context(), seriesCommands.ArchiveSeriesCommand{SeriesID: seriesID}); err != nil {
			return fmt.Errorf("failed to archive series: %w", err)
		}

		fmt.Printf("Archived series %s\n", seriesID)
		return nil
	},
}
