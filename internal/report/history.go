package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// PrintRunList lists stored runs.
func PrintRunList(w io.Writer, runs []model.RunSummary) {
	table := NewTable(w)
	table.Header("ID", "DATE", "START", "END", "USED", "SKIPPED", "DURATION", "KILLS", "PLAYERS")
	for _, r := range runs {
		table.Append(
			ShortID(r.ID),
			r.RaidDate,
			r.StartTime,
			r.EndTime,
			strconv.Itoa(r.NumUsedFights),
			strconv.Itoa(r.NumSkippedFights),
			FormatDuration(r.UsedDuration),
			strconv.Itoa(r.TotalKills),
			strconv.Itoa(r.NumPlayers),
		)
	}
	table.Render()
}

// PrintPlayerHistory lists one account's appearances across stored runs.
func PrintPlayerHistory(w io.Writer, cfg *config.Config, recs []model.PlayerRunRecord) {
	table := NewTable(w)
	table.Header("RUN", "DATE", "NAME", "PROF", "FIGHTS", "ATTEND%", "SWAP", "AWARDS")
	for _, r := range recs {
		swap := ""
		if r.SwappedBuild {
			swap = "yes"
		}
		table.Append(
			ShortID(r.RunID),
			r.RaidDate,
			r.Name,
			cfg.ProfessionShort(r.Profession),
			strconv.Itoa(r.NumFightsPresent),
			fmt.Sprintf("%.0f%%", r.AttendancePercentage),
			swap,
			strconv.Itoa(r.Awards),
		)
	}
	table.Render()
}

// PrintTrendTable prints one stat's figures for an account, oldest run first.
func PrintTrendTable(w io.Writer, cfg *config.Config, stat string, points []model.TrendPoint) {
	heading.Fprintf(w, "\n%s\n", cfg.StatName(stat))
	table := NewTable(w)
	table.Header("DATE", "NAME", "PROF", "TOTAL", "AVERAGE", "CONSISTENT", "TOP%")
	for _, p := range points {
		total := "—"
		if p.Total != model.Sentinel {
			total = strconv.FormatFloat(p.Total, 'f', -1, 64)
		}
		table.Append(
			p.RaidDate,
			p.Name,
			cfg.ProfessionShort(p.Profession),
			total,
			fmt.Sprintf("%.2f", p.Average),
			strconv.Itoa(p.Consistency),
			fmt.Sprintf("%.0f%%", 100*p.PortionTop),
		)
	}
	table.Render()
}

// PrintStoreOverview prints the store-wide summary.
func PrintStoreOverview(w io.Writer, o model.StoreOverview) {
	fmt.Fprintf(w, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(w, "  Runs stored    : %d\n", o.TotalRuns)
	fmt.Fprintf(w, "  Raid range     : %s → %s\n", o.EarliestRaid, o.LatestRaid)
	fmt.Fprintf(w, "  Fights         : %d (%d skipped)\n", o.TotalFights, o.SkippedFights)
	fmt.Fprintf(w, "  Accounts seen  : %d\n", o.UniqueAccounts)
}

// ShortID returns the first eight characters of a run ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
