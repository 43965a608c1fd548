package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var fightsSkipped bool

// fightsCmd is the cobra command for the per-fight drill-down of one stored run.
var fightsCmd = &cobra.Command{
	Use:   "fights <run-id-prefix>",
	Short: "Per-fight drill-down for one stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runFights,
}

func init() {
	fightsCmd.Flags().BoolVar(&fightsSkipped, "skipped", false, "only show skipped fights")
}

func runFights(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with ID prefix %q\n", args[0])
		return nil
	}
	fights, err := db.GetFights(run.ID)
	if err != nil {
		return fmt.Errorf("get fights: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nRun %s  |  %s  |  %d fights\n\n", report.ShortID(run.ID), run.RaidDate, len(fights))
	table := report.NewTable(os.Stdout)
	table.Header("#", "FILE", "START", "DURATION", "ALLIES", "ENEMIES", "KILLS", "COMMANDER", "SKIP REASONS")
	shown := 0
	for _, f := range fights {
		if fightsSkipped && !f.Skipped {
			continue
		}
		table.Append(
			strconv.Itoa(f.Index+1),
			f.File,
			f.StartTime,
			report.FormatDuration(f.Duration),
			strconv.Itoa(f.Allies),
			strconv.Itoa(f.Enemies),
			strconv.Itoa(f.Kills),
			f.Commander,
			f.SkipReasons,
		)
		shown++
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d fights)\n", shown)
	return nil
}
