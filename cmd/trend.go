package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

var trendStats []string

var trendCmd = &cobra.Command{
	Use:   "trend <account>",
	Short: "Chronological per-run figures of an account for each stat",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().StringSliceVar(&trendStats, "stat", nil, "stats to show (default: every ranked stat)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	stats := trendStats
	if len(stats) == 0 {
		stats = cfg.RankedStats()
	}
	trend, err := db.GetStatTrend(args[0], stats)
	if err != nil {
		return fmt.Errorf("query trend: %w", err)
	}
	if len(trend) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, stat := range stats {
		if points := trend[stat]; len(points) > 0 {
			report.PrintTrendTable(os.Stdout, cfg, stat, points)
		}
	}
	return nil
}
