package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
	"github.com/pable/go-topstats/internal/ranking"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StatsToCompute = []string{"dmg", "might", "quick", "deaths", "spike_dmg"}
	cfg.BuffsStackingIntensity = []string{"might"}
	require.NoError(t, cfg.Resolve())
	return cfg
}

func makeFight(start string, duration, allies, enemies, kills int, totals map[string]model.Value) *model.Fight {
	return &model.Fight{
		StartTime:        start,
		EndTime:          start + " end",
		Duration:         duration,
		Allies:           allies,
		Enemies:          enemies,
		Kills:            kills,
		TotalStats:       totals,
		AvgStats:         map[string]float64{},
		SquadComposition: map[string]int{"Firebrand": 2, "Scrapper": allies - 2},
	}
}

func sampleReport(t *testing.T) (*config.Config, *Report) {
	cfg := testConfig(t)
	fights := []*model.Fight{
		makeFight("2024-03-01 20:00:00 +01:00", 100, 10, 20, 4, map[string]model.Value{
			"dmg":    model.Scalar(50000),
			"might":  model.BuffValue(9000, 500),
			"quick":  model.BuffValue(450, 100),
			"deaths": model.Scalar(3),
		}),
		makeFight("2024-03-01 20:05:00 +01:00", 10, 3, 2, 0, map[string]model.Value{"dmg": model.Scalar(99999)}),
		makeFight("2024-03-01 20:10:00 +01:00", 200, 20, 30, 6, map[string]model.Value{
			"dmg":    model.Scalar(100000),
			"might":  model.BuffValue(38000, 500),
			"quick":  model.BuffValue(1900, 100),
			"deaths": model.Scalar(5),
		}),
	}
	fights[1].Skipped = true
	fights[0].AvgStats["spike_dmg"] = 300
	fights[2].AvgStats["spike_dmg"] = 500
	fights[0].TotalStats["spike_dmg"] = model.Scalar(900)
	fights[2].TotalStats["spike_dmg"] = model.Scalar(1200)

	alice := model.NewPlayer("alice.1234", "Alice", "Firebrand")
	alice.NumFightsPresent = 2
	alice.TotalStats["dmg"] = model.Scalar(30000)
	bob := model.NewPlayer("bob.1234", "Bob", "Scrapper")
	bob.NumFightsPresent = 1
	bob.TotalStats["dmg"] = model.Scalar(20000)

	awards := &ranking.Awards{
		Total:      map[string][]int{"dmg": {0, 1}},
		Consistent: map[string][]int{"dmg": {0}},
	}
	r := Assemble(cfg, fights, []*model.Player{alice, bob}, awards, nil)
	r.ID = "0f8c1f4e-2c3a-5d7e-9b1a-123456789abc"
	return cfg, r
}

func TestRaidStats(t *testing.T) {
	_, r := sampleReport(t)
	rs := r.RaidStats

	assert.Equal(t, "2024-03-01", rs.Date)
	assert.Equal(t, "2024-03-01 20:00:00 +01:00", rs.StartTime)
	assert.Equal(t, "2024-03-01 20:10:00 +01:00 end", rs.EndTime)
	assert.Equal(t, 2, rs.NumUsedFights)
	assert.Equal(t, 1, rs.NumSkippedFights)
	assert.Equal(t, 300, rs.UsedFightsDuration)
	assert.Equal(t, 10, rs.MinAllies)
	assert.Equal(t, 20, rs.MaxAllies)
	assert.Equal(t, 15.0, rs.MeanAllies)
	assert.Equal(t, 20, rs.MinEnemies)
	assert.Equal(t, 30, rs.MaxEnemies)
	assert.Equal(t, 25.0, rs.MeanEnemies)
	assert.Equal(t, 10, rs.TotalKills)
	assert.Equal(t, map[string]float64{"Firebrand": 2, "Scrapper": 13}, rs.AvgSquadComposition)
}

func TestSquadStats(t *testing.T) {
	_, r := sampleReport(t)
	ss := r.SquadStats

	assert.Equal(t, model.Scalar(150000), ss.Total["dmg"])
	// 150000 / (100×10 + 200×20)
	assert.Equal(t, 30.0, ss.Average["dmg"])
	// (9000 + 38000) / (100×9×10 + 200×19×20)
	assert.Equal(t, 0.55, ss.Average["might"])
	// 100 × 2350 / 85000
	assert.Equal(t, 2.76, ss.Average["quick"])
	// 8 deaths over 5000 player-seconds, per minute
	assert.Equal(t, 0.1, ss.Average["deaths"])
	assert.Equal(t, 1200.0, ss.Total["spike_dmg"].Amount)
	assert.Equal(t, 400.0, ss.Average["spike_dmg"])
}

func TestEmptyReport(t *testing.T) {
	cfg := testConfig(t)
	r := Assemble(cfg, nil, nil, nil, nil)
	assert.Equal(t, 0, r.RaidStats.NumUsedFights)
	assert.Empty(t, r.RaidStats.Date)
	assert.Equal(t, 0.0, r.SquadStats.Average["dmg"])
	assert.NotNil(t, r.Players)
	assert.NotNil(t, r.Fights)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.Contains(t, buf.String(), `"players": []`)
}

func TestWriteJSONDeterministic(t *testing.T) {
	_, r := sampleReport(t)
	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(&a, r))
	require.NoError(t, WriteJSON(&b, r))
	assert.Equal(t, a.Bytes(), b.Bytes())

	out := a.String()
	assert.Contains(t, out, `"overall_raid_stats"`)
	assert.Contains(t, out, `"top_total_players"`)

	back, err := ReadJSON(&a)
	require.NoError(t, err)
	assert.Equal(t, r.RaidStats, back.RaidStats)
	assert.Equal(t, []int{0, 1}, back.Total["dmg"])
	assert.Equal(t, model.BuffValue(9000, 500), back.Fights[0].TotalStats["might"])
	assert.False(t, back.Fights[1].TotalStats["might"].Valid)
}

func TestWorkbook(t *testing.T) {
	cfg, r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, cfg, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Fights", "dmg", "might", "quick", "deaths", "spike_dmg"}, f.GetSheetList())

	v, err := f.GetCellValue("Overview", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", v)

	v, err = f.GetCellValue("dmg", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Damage", v)
	// title row, blank row, Total header, then the leader
	v, err = f.GetCellValue("dmg", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)
}

func TestPrintAwards(t *testing.T) {
	cfg, r := sampleReport(t)
	var buf bytes.Buffer
	PrintAwards(&buf, cfg, r, "dmg")
	out := buf.String()
	assert.Contains(t, out, "Damage")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Consistent")
	assert.NotContains(t, out, "Percentage")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "01m 05s", FormatDuration(65))
	assert.Equal(t, "1h 02m 03s", FormatDuration(3723))
	assert.Equal(t, "00m 00s", FormatDuration(0))
}

func TestPrintHistory(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer

	PrintRunList(&buf, []model.RunSummary{{ID: "0f8c1f4e-2c3a", RaidDate: "2024-03-01", UsedDuration: 65, NumPlayers: 12}})
	assert.Contains(t, buf.String(), "0f8c1f4e")
	assert.NotContains(t, buf.String(), "0f8c1f4e-2c3a")
	assert.Contains(t, buf.String(), "01m 05s")

	buf.Reset()
	PrintTrendTable(&buf, cfg, "dmg", []model.TrendPoint{
		{RaidDate: "2024-03-01", Name: "Alice", Profession: "Firebrand", Total: 9000, PortionTop: 0.5},
		{RaidDate: "2024-03-08", Name: "Alice", Profession: "Firebrand", Total: model.Sentinel},
	})
	out := buf.String()
	assert.Contains(t, out, "Damage")
	assert.Contains(t, out, "9000")
	assert.Contains(t, out, "FB")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "—")

	buf.Reset()
	PrintPlayerHistory(&buf, cfg, []model.PlayerRunRecord{{RunID: "abc", Name: "Alice", SwappedBuild: true, Awards: 3}})
	assert.Contains(t, buf.String(), "yes")
}
