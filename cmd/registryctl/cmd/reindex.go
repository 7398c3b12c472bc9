package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Incrementally rebuild the full-text search index",
	Long: `Copy base-table rows ingested since the last rebuild into the
full-text index. Idempotent; a no-op once the index is caught up.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	indexed, err := service.RebuildIndex(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("indexed: %d\n", indexed)
	return nil
}
