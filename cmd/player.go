package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/report"
	"github.com/pable/go-topstats/internal/storage"
)

// playerCmd is the cobra command for the cross-run history of one or more accounts.
var playerCmd = &cobra.Command{
	Use:   "player <account> [<account>...]",
	Short: "Cross-run attendance and awards for one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	for _, account := range args {
		recs, err := db.GetPlayerHistory(account)
		if err != nil {
			return fmt.Errorf("query history for %s: %w", account, err)
		}
		if len(recs) == 0 {
			fmt.Fprintf(os.Stderr, "No data found for account %s\n", account)
			continue
		}

		var fights, awards int
		for _, r := range recs {
			fights += r.NumFightsPresent
			awards += r.Awards
		}
		fmt.Fprintf(os.Stdout, "\n%s  |  Runs: %d  |  Fights: %d  |  Award places: %d\n\n", account, len(recs), fights, awards)
		report.PrintPlayerHistory(os.Stdout, cfg, recs)
	}
	return nil
}
