package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all runs stored in the database:
run count, raid date range, fights processed and skipped, and accounts seen.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalRuns == 0 {
		fmt.Fprintln(os.Stdout, "No runs stored yet. Run 'topstats parse <logs-dir>' to add one.")
		return nil
	}
	report.PrintStoreOverview(os.Stdout, ov)

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 5 {
		runs = runs[:5]
	}
	fmt.Fprintf(os.Stdout, "\n--- Latest Runs ---\n\n")
	report.PrintRunList(os.Stdout, runs)
	return nil
}
