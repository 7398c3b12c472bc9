package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var skipReindex bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load JSON dump files into the registry",
	Long: `Load every *.json dump file under the given directory (or DATA_DIR
from the config) into the registry. Re-running over the same files is safe:
already-ingested records are ignored. Unless --skip-reindex is set, the
full-text index is rebuilt incrementally afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&skipReindex, "skip-reindex", false, "do not rebuild the search index after ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir, err := dataDir(args)
	if err != nil {
		return err
	}

	service, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := service.Ingest(cmd.Context(), dir)
	if err != nil {
		return err
	}

	for _, file := range report.Files {
		if file.Err != nil {
			fmt.Printf("%-40s FAILED: %v\n", file.File, file.Err)
			continue
		}
		fmt.Printf("%-40s parsed %6d  inserted %6d\n", file.File, file.Parsed, file.Inserted)
	}
	fmt.Printf("total inserted: %d\n", report.Inserted)

	if skipReindex {
		return nil
	}
	indexed, err := service.RebuildIndex(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("indexed: %d\n", indexed)
	return nil
}
