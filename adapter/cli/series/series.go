package series

import (
	"github.com/spf13/cobra"
)

// Cmd is the series command group.
var Cmd = &cobra.Command{
	Use:   "series",
	Short: "Manage recurring series",
	Long:  `Create, list, and manage recurring series and their patterns, constraints, exceptions, and reminders.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(logCmd)
	Cmd.AddCommand(archiveCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(rescheduleCmd)
}
