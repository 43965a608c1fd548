package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

var heading = color.New(color.FgCyan, color.Bold)

// NewTable returns a table with right-aligned rows and centred headers.
func NewTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRaidSummary prints a one-line header for the batch.
func PrintRaidSummary(w io.Writer, r *Report) {
	rs := r.RaidStats
	fmt.Fprintf(w, "\nRaid: %s  |  %s – %s  |  Fights: %d used, %d skipped  |  Duration: %s  |  Kills: %d  |  Run: %s\n",
		rs.Date, rs.StartTime, rs.EndTime, rs.NumUsedFights, rs.NumSkippedFights,
		FormatDuration(rs.UsedFightsDuration), rs.TotalKills, ShortID(r.ID))
	fmt.Fprintf(w, "Allies: %d–%d (avg %.1f)  |  Enemies: %d–%d (avg %.1f)\n\n",
		rs.MinAllies, rs.MaxAllies, rs.MeanAllies, rs.MinEnemies, rs.MaxEnemies, rs.MeanEnemies)
}

// PrintFightTable lists every fight, skipped ones included.
func PrintFightTable(w io.Writer, r *Report) {
	table := NewTable(w)
	table.Header("#", "START", "DURATION", "ALLIES", "ENEMIES", "KILLS", "COMMANDER", "STATUS")
	for i, f := range r.Fights {
		status := "used"
		if f.Skipped {
			status = "skipped: " + strings.Join(f.SkipReasons, "; ")
		}
		cmdr := f.Commander
		if cmdr == "" {
			cmdr = "—"
		}
		table.Append(
			strconv.Itoa(i+1),
			f.StartTime,
			FormatDuration(f.Duration),
			strconv.Itoa(f.Allies),
			strconv.Itoa(f.Enemies),
			strconv.Itoa(f.Kills),
			cmdr,
			status,
		)
	}
	table.Render()
}

// PrintPlayerTable lists every player with attendance.
func PrintPlayerTable(w io.Writer, cfg *config.Config, r *Report) {
	table := NewTable(w)
	table.Header("#", "NAME", "PROF", "ACCOUNT", "FIGHTS", "ATTEND%", "SWAP")
	for i, p := range r.Players {
		swap := ""
		if p.SwappedBuild {
			swap = "yes"
		}
		table.Append(
			strconv.Itoa(i+1),
			p.Name,
			cfg.ProfessionShort(p.Profession),
			p.Account,
			strconv.Itoa(p.NumFightsPresent),
			fmt.Sprintf("%.0f%%", p.AttendancePercentage),
			swap,
		)
	}
	table.Render()
}

// PrintSquadTable prints squad totals and averages per stat.
func PrintSquadTable(w io.Writer, cfg *config.Config, r *Report) {
	table := NewTable(w)
	table.Header("STAT", "TOTAL", "AVERAGE")
	for _, s := range r.Stats {
		t := r.SquadStats.Total[s]
		table.Append(cfg.StatName(s), formatTotal(cfg, s, t), fmt.Sprintf("%.2f", r.SquadStats.Average[s]))
	}
	table.Render()
}

// PrintAwards prints every leaderboard of one stat.
func PrintAwards(w io.Writer, cfg *config.Config, r *Report, stat string) {
	heading.Fprintf(w, "\n%s\n", cfg.StatName(stat))
	lists := []struct {
		title string
		ids   []int
		value func(p *model.Player) string
	}{
		{"Total", r.Total[stat], func(p *model.Player) string { return formatTotal(cfg, stat, p.Total(stat)) }},
		{"Consistent", r.Consistent[stat], func(p *model.Player) string {
			return fmt.Sprintf("%d/%d", p.ConsistencyStats[stat], p.NumFightsPresent)
		}},
		{"Average", r.Average[stat], func(p *model.Player) string { return fmt.Sprintf("%.2f", p.AverageStats[stat]) }},
		{"Percentage", r.Percentage[stat], formatPortion(stat)},
		{"Late but great", r.Late[stat], formatPortion(stat)},
		{"Jack of all trades", r.JackOfAllTrades[stat], formatPortion(stat)},
	}
	for _, l := range lists {
		if len(l.ids) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", l.title)
		table := NewTable(w)
		table.Header("#", "NAME", "PROF", "FIGHTS", "VALUE")
		place := 0
		var last string
		for i, idx := range l.ids {
			p := r.Players[idx]
			v := l.value(p)
			if i == 0 || v != last {
				place = i + 1
			}
			last = v
			table.Append(strconv.Itoa(place), p.Name, cfg.ProfessionShort(p.Profession), strconv.Itoa(p.NumFightsPresent), v)
		}
		table.Render()
	}
}

// PrintWarnings lists unreadable stats grouped by reason.
func PrintWarnings(w io.Writer, warnings []model.Warning) {
	if len(warnings) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, wn := range warnings {
		counts[wn.Stat+": "+wn.Reason]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := NewTable(w)
	table.Header("UNREADABLE STAT", "COUNT")
	for _, k := range keys {
		table.Append(k, strconv.Itoa(counts[k]))
	}
	table.Render()
}

func formatPortion(stat string) func(p *model.Player) string {
	return func(p *model.Player) string {
		return fmt.Sprintf("%.0f%%", 100*p.PortionTopStats[stat])
	}
}

func formatTotal(cfg *config.Config, stat string, v model.Value) string {
	switch {
	case !v.Valid:
		return "—"
	case v.Buff:
		return fmt.Sprintf("%.2f (%.0fs up)", v.Amount, v.Uptime)
	case cfg.Class(stat) == config.ClassCount, cfg.Class(stat) == config.ClassSelfBuff:
		return strconv.Itoa(int(v.Amount))
	}
	return strconv.FormatFloat(v.Amount, 'f', -1, 64)
}

// FormatDuration renders seconds as "1h 02m 03s".
func FormatDuration(secs int) string {
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%02dm %02ds", m, s)
}
