package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the run database",
	Long: `Run an arbitrary SQL query against the run database and print results as a table.

Schema overview:
  runs(id, input_hash, created_at, raid_date, start_time, end_time,
    num_used_fights, num_skipped_fights, used_duration, total_kills, num_players, report_blob)
  fights(run_id, fight_index, file, start_time, end_time, duration,
    allies, enemies, kills, commander, skipped, skip_reasons)
  players(run_id, player_index, account, name, profession,
    num_fights_present, attendance_percentage, swapped_build)
  player_stats(run_id, player_index, stat, total, uptime, average, consistency, portion_top)
  awards(run_id, stat, mode, place, player_index)

Note: an unavailable total is stored as NULL. Award modes are total, consistent,
average, percentage, late and jack_of_all_trades.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := report.NewTable(os.Stdout)

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

