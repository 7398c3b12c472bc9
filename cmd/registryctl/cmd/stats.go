package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry row and index counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	companies, indexed, err := service.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("companies: %d\n", companies)
	fmt.Printf("indexed:   %d\n", indexed)
	if pending := companies - indexed; pending > 0 {
		fmt.Printf("pending:   %d (run: registryctl reindex)\n", pending)
	}
	return nil
}
