package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var showStats []string

var showCmd = &cobra.Command{
	Use:   "show <run-id-prefix>",
	Short: "Show the award boards of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringSliceVar(&showStats, "stat", nil, "only print the award boards of these stats")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	r, err := loadRun(db, args[0])
	if err != nil || r == nil {
		return err
	}
	printReport(r, showStats)
	return nil
}

// loadRun resolves a run ID prefix and decodes the stored report. It prints a
// notice and returns nil when nothing matches.
func loadRun(db *storage.DB, prefix string) (*report.Report, error) {
	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with ID prefix %q\n", prefix)
		return nil, nil
	}
	r, err := db.LoadReport(run.ID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", run.ID, err)
	}
	return r, nil
}

// printReport renders the raid header, fights, squad figures, the award
// boards of every ranked stat (or only those in only) and the warnings.
func printReport(r *report.Report, only []string) {
	w := os.Stdout
	report.PrintRaidSummary(w, r)
	report.PrintFightTable(w, r)
	fmt.Fprintln(w)
	report.PrintSquadTable(w, cfg, r)
	for _, stat := range r.Stats {
		if len(only) > 0 && !slices.Contains(only, stat) {
			continue
		}
		report.PrintAwards(w, cfg, r, stat)
	}
	fmt.Fprintln(w)
	report.PrintWarnings(w, r.Warnings)
}
