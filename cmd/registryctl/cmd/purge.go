package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <state>",
	Short: "Delete every record registered under a jurisdiction",
	Long: `Bulk-delete all records whose state code matches the given
jurisdiction, then reset and rebuild the search index. This is an
administrative correction for bad source dumps, not part of the normal
record lifecycle.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	deleted, err := service.PurgeState(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("deleted: %d\n", deleted)
	return nil
}
