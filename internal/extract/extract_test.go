package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Resolve())
	return cfg
}

// makeLog builds an encounter with the given number of squad players and
// enemy players.
func makeLog(duration string, allies, enemies int) *model.Log {
	l := &model.Log{
		Duration:     duration,
		TimeStartStd: "2024-03-01 20:00:00 +01:00",
		TimeEndStd:   "2024-03-01 20:05:00 +01:00",
		CombatReplayMetaData: &model.ReplayMeta{
			PollingRate: 1000,
			InchToPixel: 1,
		},
		BuffMap: map[string]model.BuffInfo{
			"b1122": {Name: "Stability", Stacking: true},
			"b740":  {Name: "Might", Stacking: true},
			"b1187": {Name: "Quickness", Stacking: false},
			"b718":  {Name: "Regeneration", Stacking: false},
		},
	}
	for i := range allies {
		l.Players = append(l.Players, model.LogPlayer{
			Account:    fmt.Sprintf("acc%d.1234", i),
			Name:       fmt.Sprintf("char%d", i),
			Profession: "Firebrand",
			Group:      1 + i/5,
		})
	}
	for i := range enemies {
		l.Targets = append(l.Targets, model.LogTarget{Name: fmt.Sprintf("enemy%d", i), EnemyPlayer: true})
	}
	return l
}

// ---- Duration parsing ----

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"1h 02m 03s":       3723,
		"05m 30s":          330,
		"45s":              45,
		"02m 10s 345ms":    130,
		"1h":               3600,
		"00m 00s 999ms":    0,
		"12m 0s":           720,
		"  03m   07s   ":   187,
		"2h 00m 00s 001ms": 7200,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "five minutes", "5x", "-3s"} {
		_, err := ParseDuration(in)
		assert.Error(t, err, in)
	}
}

// ---- Fight extraction ----

func TestFightSkippedByAllies(t *testing.T) {
	cfg := testConfig(t)
	f, err := Fight(makeLog("01m 00s", 5, 20), cfg)
	require.NoError(t, err)

	assert.True(t, f.Skipped)
	assert.Equal(t, 60, f.Duration)
	assert.Equal(t, 5, f.Allies)
	assert.Equal(t, 20, f.Enemies)
	require.Len(t, f.SkipReasons, 1)
	assert.Contains(t, f.SkipReasons[0], "allies")
}

func TestFightDurationBoundary(t *testing.T) {
	cfg := testConfig(t)

	f, err := Fight(makeLog(fmt.Sprintf("%ds", cfg.MinFightDuration-1), 10, 10), cfg)
	require.NoError(t, err)
	assert.True(t, f.Skipped)

	f, err = Fight(makeLog(fmt.Sprintf("%ds", cfg.MinFightDuration), 10, 10), cfg)
	require.NoError(t, err)
	assert.False(t, f.Skipped)
	assert.Empty(t, f.SkipReasons)
}

func TestFightReportsEverySkipReason(t *testing.T) {
	cfg := testConfig(t)
	f, err := Fight(makeLog("10s", 3, 2), cfg)
	require.NoError(t, err)
	assert.True(t, f.Skipped)
	assert.Len(t, f.SkipReasons, 3)
}

func TestFightCountsSquadAndKills(t *testing.T) {
	cfg := testConfig(t)
	l := makeLog("05m 00s", 12, 11)
	l.Players = append(l.Players, model.LogPlayer{Name: "pug", Profession: "Reaper", NotInSquad: true})
	l.Players[0].Profession = "Scrapper"
	l.Targets[0].CombatReplayData = &model.TargetReplay{Dead: [][2]float64{{1000, 2000}, {5000, 6000}}}
	l.Targets[3].CombatReplayData = &model.TargetReplay{Dead: [][2]float64{{9000, 9500}}}
	l.Targets = append(l.Targets, model.LogTarget{Name: "Guard", EnemyPlayer: false,
		CombatReplayData: &model.TargetReplay{Dead: [][2]float64{{1, 2}}}})

	f, err := Fight(l, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, f.Allies)
	assert.Equal(t, 11, f.Enemies)
	assert.Equal(t, 3, f.Kills)
	assert.Equal(t, map[string]int{"Firebrand": 11, "Scrapper": 1}, f.SquadComposition)
	assert.Equal(t, 300, f.Duration)
	assert.Equal(t, l.TimeStartStd, f.StartTime)
	assert.Equal(t, l.TimeEndStd, f.EndTime)
}

func TestFightLearnsBuffs(t *testing.T) {
	cfg := testConfig(t)
	_, err := Fight(makeLog("05m 00s", 10, 10), cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(740), cfg.Buffs.SquadBuffIDs["might"])
	assert.Equal(t, int64(1187), cfg.Buffs.SquadBuffIDs["quick"])
	assert.Equal(t, config.ClassBuffIntensity, cfg.Class("might"))
	assert.Equal(t, config.ClassBuffDuration, cfg.Class("quick"))
}

func TestFightContradictoryStackingIsFatal(t *testing.T) {
	cfg := testConfig(t)
	_, err := Fight(makeLog("05m 00s", 10, 10), cfg)
	require.NoError(t, err)

	l := makeLog("05m 00s", 10, 10)
	l.BuffMap["b740"] = model.BuffInfo{Name: "Might", Stacking: false}
	_, err = Fight(l, cfg)
	var inv *model.InvariantError
	assert.ErrorAs(t, err, &inv)
}

func TestCommanderTrackTruncatedAtDeath(t *testing.T) {
	cfg := testConfig(t)
	l := makeLog("05m 00s", 10, 10)
	l.Players[2].HasCommanderTag = true
	l.Players[2].CombatReplayData = &model.PlayerReplay{
		Positions: [][2]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}},
		Dead:      [][2]float64{{3000, 8000}},
	}
	f, err := Fight(l, cfg)
	require.NoError(t, err)
	assert.Equal(t, "char2", f.Commander)
	assert.Equal(t, []model.Point{{0, 0}, {1, 1}, {2, 2}}, f.TagPositionsUntilDeath)
}

func TestCommanderTrackIgnoresNegativeDeathTime(t *testing.T) {
	cfg := testConfig(t)
	l := makeLog("05m 00s", 10, 10)
	l.Players[2].HasCommanderTag = true
	l.Players[2].CombatReplayData = &model.PlayerReplay{
		Positions: [][2]float64{{0, 0}, {1, 1}},
		Dead:      [][2]float64{{-2000, 8000}},
	}
	f, err := Fight(l, cfg)
	require.NoError(t, err)
	assert.Equal(t, []model.Point{{0, 0}, {1, 1}}, f.TagPositionsUntilDeath)
}

func TestCommanderTrackNeedsExactlyOneTag(t *testing.T) {
	cfg := testConfig(t)
	l := makeLog("05m 00s", 10, 10)
	for _, i := range []int{1, 4} {
		l.Players[i].HasCommanderTag = true
		l.Players[i].CombatReplayData = &model.PlayerReplay{Positions: [][2]float64{{0, 0}}}
	}
	f, err := Fight(l, cfg)
	require.NoError(t, err)
	assert.Empty(t, f.Commander)
	assert.Empty(t, f.TagPositionsUntilDeath)
}

func TestHealingAddonPlayers(t *testing.T) {
	cfg := testConfig(t)
	l := makeLog("05m 00s", 10, 10)
	l.UsedExtensions = []model.Extension{
		{Name: "Healing Stats", RunningExtension: []string{"char0", "char3"}},
		{Name: "Unofficial Extras", RunningExtension: []string{"char5"}},
	}
	f, err := Fight(l, cfg)
	require.NoError(t, err)
	assert.True(t, f.RunsHealingAddon("char0"))
	assert.True(t, f.RunsHealingAddon("char3"))
	assert.False(t, f.RunsHealingAddon("char5"))
}

// ---- Player metrics ----

func extractorFor(t *testing.T, l *model.Log) (*Extractor, *model.Fight) {
	t.Helper()
	cfg := testConfig(t)
	f, err := Fight(l, cfg)
	require.NoError(t, err)
	return NewExtractor(cfg, f, 0), f
}

func fullPlayer(name string) model.LogPlayer {
	return model.LogPlayer{
		Account:     name + ".1234",
		Name:        name,
		Profession:  "Scrapper",
		Group:       2,
		ActiveTimes: []float64{299600},
		Damage1S:    [][]float64{{0, 0, 100, 100, 900, 1000}},
		DpsAll:      []model.DPSStats{{Damage: 5000}},
		TargetDamage1S: [][][]float64{
			{{0, 100, 1200}},
			{{0, 0, 800}},
			{},
		},
		Defenses: []model.DefenseStats{{DamageTaken: 3000, DamageBarrier: 1200, DeadCount: 1, DownCount: 2, BoonStrips: 7}},
		Support:  []model.SupportStats{{CondiCleanse: 40, BoonStrips: 12}},
		StatsAll: []model.GameplayStats{{Killed: 3, Downed: 4}},
		HealthPercents: [][2]float64{
			{0, 100}, {1500, 90},
		},
	}
}

func TestPlayerScalarStats(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.Players[0] = fullPlayer("alice")
	x, _ := extractorFor(t, l)
	p := &l.Players[0]
	d := x.Durations(p)

	assert.Equal(t, 300.0, d.Total)
	assert.Equal(t, 300.0, d.Active)

	cases := map[string]float64{
		"dmg":                5000,
		"dmg_players":        2000,
		"dmg_other":          3000,
		"dmg_taken":          3000,
		"dmg_taken_absorbed": 1200,
		"dmg_taken_hp_lost":  1800,
		"deaths":             1,
		"downstate":          2,
		"stripped":           7,
		"strips":             12,
		"cleanses":           40,
		"kills":              3,
		"downs":              4,
		"spike_dmg":          800,
		"group":              2,
	}
	for stat, want := range cases {
		v := x.Stat(p, d, stat)
		require.True(t, v.Valid, stat)
		assert.Equal(t, want, v.Amount, stat)
	}
	assert.Empty(t, x.Warnings())
}

func TestMissingFieldIsWarnedAndUnavailable(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.Players[0] = fullPlayer("alice")
	l.Players[0].Defenses = nil
	x, _ := extractorFor(t, l)
	p := &l.Players[0]

	v := x.Stat(p, x.Durations(p), "deaths")
	assert.False(t, v.Valid)
	require.Len(t, x.Warnings(), 1)
	assert.Equal(t, model.Warning{Fight: 0, Player: "alice", Stat: "deaths", Reason: "defenses missing"}, x.Warnings()[0])
}

func TestStatNeedsPositiveClock(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.Players[0] = fullPlayer("alice")
	x, _ := extractorFor(t, l)
	p := &l.Players[0]

	d := x.Durations(p)
	d.InCombat = 0
	assert.False(t, x.Stat(p, d, "dmg").Valid)
	// deaths are normalized by total time
	assert.True(t, x.Stat(p, d, "deaths").Valid)
}

func TestAbsentSquadBuffReadsZero(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.Players[0] = fullPlayer("alice")
	l.Players[0].SquadBuffs = []model.BuffUptime{{ID: 740, BuffData: []model.BuffData{{Generation: 5}}}}
	l.Players[0].BuffUptimes = []model.BuffUptime{{ID: 740, BuffData: []model.BuffData{{Uptime: 22.5}}}}
	x, _ := extractorFor(t, l)
	p := &l.Players[0]
	d := x.Durations(p)

	might := x.Stat(p, d, "might")
	assert.Equal(t, model.BuffValue(5, 22.5), might)

	stab := x.Stat(p, d, "stab")
	assert.Equal(t, model.BuffValue(0, 0), stab)

	// Fury never appears in the buff map at all.
	assert.Equal(t, model.BuffValue(0, 0), x.Stat(p, d, "fury"))
}

func TestSelfBuffPresence(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.BuffMap["b44633"] = model.BuffInfo{Name: "Med Kit"}
	l.Players[0] = fullPlayer("alice")
	l.Players[0].SelfBuffs = []model.BuffUptime{{ID: 44633}}
	l.Players[1] = fullPlayer("bob")
	x, _ := extractorFor(t, l)

	d := x.Durations(&l.Players[0])
	assert.Equal(t, model.Scalar(1), x.Stat(&l.Players[0], d, "med_kit"))
	assert.Equal(t, model.Scalar(0), x.Stat(&l.Players[1], d, "med_kit"))
}

func TestHealingNeedsAddon(t *testing.T) {
	l := makeLog("05m 00s", 10, 10)
	l.UsedExtensions = []model.Extension{{Name: "Healing Stats", RunningExtension: []string{"alice"}}}
	healing := &model.HealingStats{
		OutgoingHealing:       []model.HealingAmount{{Healing: 9000}},
		OutgoingHealingAllies: [][]model.HealingAmount{{{Healing: 4000}}, {{Healing: 3000}}, {}},
		TotalHealingDist: [][]model.HealingDist{{
			{ID: 1, TotalHealing: 100, Hits: 2},
			{ID: 718, TotalHealing: 1500, Hits: 30},
		}},
	}
	barrier := &model.BarrierStats{OutgoingBarrier: []model.BarrierAmount{{Barrier: 1}, {Barrier: 2500}}}
	l.Players[0] = fullPlayer("alice")
	l.Players[0].ExtHealingStats = healing
	l.Players[0].ExtBarrierStats = barrier
	l.Players[1] = fullPlayer("bob")
	l.Players[1].ExtHealingStats = healing
	l.Players[1].ExtBarrierStats = barrier
	x, _ := extractorFor(t, l)

	alice := &l.Players[0]
	d := x.Durations(alice)
	cases := map[string]float64{
		"heal":            9000,
		"heal_players":    7000,
		"heal_other":      2000,
		"barrier":         2500,
		"heal_from_regen": 1500,
		"hits_from_regen": 30,
	}
	for stat, want := range cases {
		assert.Equal(t, model.Scalar(want), x.Stat(alice, d, stat), stat)
	}

	bob := &l.Players[1]
	for stat := range cases {
		assert.False(t, x.Stat(bob, x.Durations(bob), stat).Valid, stat)
	}
	assert.Empty(t, x.Warnings())
}

// ---- Combat intervals ----

func TestCombatIntervalsAcrossDeath(t *testing.T) {
	p := &model.LogPlayer{
		HealthPercents: [][2]float64{{0, 100}, {4000, 80}, {40000, 100}, {52000, 95}},
		PowerDamage1S:  [][]float64{make([]float64, 100)},
		Damage1S:       [][]float64{make([]float64, 100)},
		CombatReplayData: &model.PlayerReplay{
			Down: [][2]float64{{20000, 30000}},
			Dead: [][2]float64{{30000, 45000}, {70000, 75000}},
		},
	}
	// damage starts at second 2
	for i := 2; i < 100; i++ {
		p.PowerDamage1S[0][i] = float64(i)
	}

	got := combatIntervals(p)
	// The second death was not preceded by a down and does not split.
	assert.Equal(t, [][2]float64{{2000, 30000}, {46000, 100000}}, got)
	assert.InDelta(t, 82.0, timeInCombat(p), 1e-9)
}

func TestCombatStartPrefersEarliestSignal(t *testing.T) {
	p := &model.LogPlayer{
		HealthPercents: [][2]float64{{0, 100}, {2500, 97}},
		PowerDamage1S:  [][]float64{{0, 0, 0, 0, 10}},
	}
	start, ok := combatStart(p, 0)
	require.True(t, ok)
	assert.Equal(t, 2500.0, start)

	p.HealthPercents = nil
	start, ok = combatStart(p, 0)
	require.True(t, ok)
	assert.Equal(t, 4000.0, start)

	p.PowerDamage1S = [][]float64{{0, 0, 0}}
	_, ok = combatStart(p, 0)
	assert.False(t, ok)
}

// ---- Spatial metrics ----

func spatialLog(playerDist float64) *model.Log {
	l := makeLog("05m 00s", 10, 10)
	tag := make([][2]float64, 200)
	pos := make([][2]float64, 200)
	for i := range pos {
		pos[i] = [2]float64{playerDist, 0}
	}
	l.Players[0].HasCommanderTag = true
	l.Players[0].CombatReplayData = &model.PlayerReplay{Positions: tag}
	l.Players[1] = fullPlayer("runner")
	l.Players[1].CombatReplayData = &model.PlayerReplay{
		Positions: pos,
		Down:      [][2]float64{{100000, 105000}},
		Dead:      [][2]float64{{105000, 120000}},
	}
	return l
}

func TestNotRunningBack(t *testing.T) {
	for _, tc := range []struct {
		dist float64
		want float64
	}{
		{2500, 0},
		{800, 100},
	} {
		l := spatialLog(tc.dist)
		x, _ := extractorFor(t, l)
		p := &l.Players[1]
		d := x.Durations(p)
		assert.Equal(t, tc.want, d.NotRunningBack, "distance %v", tc.dist)
	}
}

func TestDistanceToTag(t *testing.T) {
	l := spatialLog(800)
	x, _ := extractorFor(t, l)
	p := &l.Players[1]
	d := x.Durations(p)
	assert.Equal(t, model.Scalar(800), x.Stat(p, d, "dist"))

	tag := &l.Players[0]
	tag.Damage1S = [][]float64{{0, 10}}
	tag.ActiveTimes = []float64{300000}
	tag.HealthPercents = [][2]float64{{0, 100}, {1000, 50}}
	assert.Equal(t, model.Scalar(0), x.Stat(tag, x.Durations(tag), "dist"))
}

func TestSpatialStatsWithoutCommander(t *testing.T) {
	l := spatialLog(800)
	l.Players[0].HasCommanderTag = false
	x, _ := extractorFor(t, l)
	p := &l.Players[1]
	d := x.Durations(p)
	assert.Equal(t, float64(model.Sentinel), d.NotRunningBack)
	assert.False(t, x.Stat(p, d, "dist").Valid)
}

func TestSlotReusesClocks(t *testing.T) {
	l := spatialLog(800)
	x, _ := extractorFor(t, l)
	x.cfg.StatsToCompute = append(x.cfg.StatsToCompute, "time_active", "time_not_running_back")
	slot := x.Slot(&l.Players[1])

	assert.True(t, slot.PresentInFight)
	assert.Equal(t, 2, slot.Group)
	assert.Equal(t, model.Scalar(300), slot.Stats["time_active"])
	assert.Equal(t, model.Scalar(100), slot.Stats["time_not_running_back"])
}
