package reflow

import (
	"github.com/spf13/cobra"
)

// Cmd is the reflow command group.
var Cmd = &cobra.Command{
	Use:   "reflow",
	Short: "Run the reflow engine and inspect its output",
	Long:  `Resolve recurring series into a concrete schedule for a date window and show the result.`,
}

func init() {
	Cmd.AddCommand(showCmd)
}
