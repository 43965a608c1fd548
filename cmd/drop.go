package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/storage"
)

var dropForce bool

// dropCmd deletes one stored run, or the whole database file.
var dropCmd = &cobra.Command{
	Use:   "drop [run-id-prefix]",
	Short: "Delete a stored run, or the whole database",
	Long: `With a run ID prefix, delete that run and every row derived from it.
Without arguments, permanently delete the SQLite database. All stored runs
will be lost; re-parse your logs afterwards to rebuild.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return dropRun(args[0])
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropRun(prefix string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with ID prefix %q\n", prefix)
		return nil
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will delete run %s (%s, %d fights).\n", run.ID, run.RaidDate, run.NumUsedFights+run.NumSkippedFights)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if _, err := db.DeleteRun(run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted run: %s\n", run.ID)
	return nil
}
