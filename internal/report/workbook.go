package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

const overviewSheet = "Overview"

// workbook appends rows to sheets and tracks the next free row of each.
type workbook struct {
	f    *excelize.File
	bold int
	next map[string]int
}

func (wb *workbook) row(sheet string, values ...any) error {
	r := wb.next[sheet] + 1
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, r, err)
	}
	wb.next[sheet] = r
	return nil
}

func (wb *workbook) header(sheet string, values ...any) error {
	if err := wb.row(sheet, values...); err != nil {
		return err
	}
	r := wb.next[sheet]
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(values), r)
	return wb.f.SetCellStyle(sheet, first, last, wb.bold)
}

func (wb *workbook) blank(sheet string) { wb.next[sheet]++ }

// WriteWorkbook renders r as an xlsx workbook: an overview sheet, a fights
// sheet and one sheet of leaderboards per stat.
func WriteWorkbook(w io.Writer, cfg *config.Config, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	wb := &workbook{f: f, bold: bold, next: make(map[string]int)}
	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return err
	}

	if err := wb.overview(cfg, r); err != nil {
		return err
	}
	if err := wb.fights(r); err != nil {
		return err
	}
	for _, s := range r.Stats {
		if err := wb.awards(cfg, r, s); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteWorkbookFile writes the workbook to path.
func WriteWorkbookFile(path string, cfg *config.Config, r *Report) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteWorkbook(out, cfg, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (wb *workbook) overview(cfg *config.Config, r *Report) error {
	rs := r.RaidStats
	rows := [][]any{
		{"Date", rs.Date},
		{"Start", rs.StartTime},
		{"End", rs.EndTime},
		{"Used fights", rs.NumUsedFights},
		{"Skipped fights", rs.NumSkippedFights},
		{"Duration", FormatDuration(rs.UsedFightsDuration)},
		{"Allies (min/max/mean)", rs.MinAllies, rs.MaxAllies, rs.MeanAllies},
		{"Enemies (min/max/mean)", rs.MinEnemies, rs.MaxEnemies, rs.MeanEnemies},
		{"Kills", rs.TotalKills},
	}
	if err := wb.header(overviewSheet, "Raid"); err != nil {
		return err
	}
	for _, row := range rows {
		if err := wb.row(overviewSheet, row...); err != nil {
			return err
		}
	}

	wb.blank(overviewSheet)
	if err := wb.header(overviewSheet, "Stat", "Squad total", "Squad average"); err != nil {
		return err
	}
	for _, s := range r.Stats {
		t := r.SquadStats.Total[s]
		if err := wb.row(overviewSheet, cfg.StatName(s), t.Amount, r.SquadStats.Average[s]); err != nil {
			return err
		}
	}

	wb.blank(overviewSheet)
	if err := wb.header(overviewSheet, "Name", "Profession", "Account", "Fights", "Attendance %", "Swapped build"); err != nil {
		return err
	}
	for _, p := range r.Players {
		if err := wb.row(overviewSheet, p.Name, p.Profession, p.Account, p.NumFightsPresent, p.AttendancePercentage, p.SwappedBuild); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) fights(r *Report) error {
	const sheet = "Fights"
	if _, err := wb.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := wb.header(sheet, "#", "Start", "End", "Duration (s)", "Allies", "Enemies", "Kills", "Commander", "Skipped"); err != nil {
		return err
	}
	for i, f := range r.Fights {
		if err := wb.row(sheet, i+1, f.StartTime, f.EndTime, f.Duration, f.Allies, f.Enemies, f.Kills, f.Commander, f.Skipped); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) awards(cfg *config.Config, r *Report, stat string) error {
	if _, err := wb.f.NewSheet(stat); err != nil {
		return fmt.Errorf("create sheet %s: %w", stat, err)
	}
	lists := []struct {
		title string
		ids   []int
		value func(p *model.Player) any
	}{
		{"Total", r.Total[stat], func(p *model.Player) any { return p.Total(stat).Amount }},
		{"Consistent", r.Consistent[stat], func(p *model.Player) any { return p.ConsistencyStats[stat] }},
		{"Average", r.Average[stat], func(p *model.Player) any { return p.AverageStats[stat] }},
		{"Percentage", r.Percentage[stat], func(p *model.Player) any { return round2(100 * p.PortionTopStats[stat]) }},
		{"Late but great", r.Late[stat], func(p *model.Player) any { return round2(100 * p.PortionTopStats[stat]) }},
		{"Jack of all trades", r.JackOfAllTrades[stat], func(p *model.Player) any { return round2(100 * p.PortionTopStats[stat]) }},
	}
	if err := wb.header(stat, cfg.StatName(stat)); err != nil {
		return err
	}
	for _, l := range lists {
		wb.blank(stat)
		if err := wb.header(stat, l.title, "Name", "Profession", "Fights", "Value"); err != nil {
			return err
		}
		for i, idx := range l.ids {
			p := r.Players[idx]
			if err := wb.row(stat, i+1, p.Name, p.Profession, p.NumFightsPresent, l.value(p)); err != nil {
				return err
			}
		}
	}
	return nil
}
