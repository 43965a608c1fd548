package storage

import (
	"reflect"
	"testing"
	"time"

	"github.com/pable/go-topstats/internal/model"
	"github.com/pable/go-topstats/internal/ranking"
	"github.com/pable/go-topstats/internal/report"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sampleRun builds a two-fight report with one skipped fight and two players.
func sampleRun(id, hash, date string, aliceDmg float64) *report.Report {
	alice := model.NewPlayer("alice.1234", "Alice", "Firebrand")
	alice.NumFightsPresent = 1
	alice.AttendancePercentage = 100
	alice.TotalStats["dmg"] = model.Scalar(aliceDmg)
	alice.TotalStats["might"] = model.BuffValue(1200, 90)
	alice.AverageStats["dmg"] = aliceDmg / 60
	alice.ConsistencyStats["dmg"] = 1
	alice.PortionTopStats["dmg"] = 1

	bob := model.NewPlayer("bob.5678", "Bob", "Scrapper")
	bob.NumFightsPresent = 1
	bob.AttendancePercentage = 100
	bob.SwappedBuild = true
	bob.TotalStats["dmg"] = model.Scalar(500)

	return &report.Report{
		ID:        id,
		InputHash: hash,
		Files:     []string{"a.json", "b.json"},
		Stats:     []string{"dmg", "might"},
		RaidStats: report.RaidStats{
			Date:               date,
			StartTime:          date + " 20:00:00 +01:00",
			EndTime:            date + " 21:00:00 +01:00",
			NumUsedFights:      1,
			NumSkippedFights:   1,
			UsedFightsDuration: 60,
			TotalKills:         7,
		},
		Fights: []*model.Fight{
			{Duration: 60, Allies: 12, Enemies: 20, Kills: 7, StartTime: date + " 20:00:00 +01:00", Commander: "Alice"},
			{Skipped: true, SkipReasons: []string{"only 5 allies"}, Duration: 30, Allies: 5},
		},
		Players: []*model.Player{alice, bob},
		Awards: ranking.Awards{
			Total:      map[string][]int{"dmg": {0, 1}},
			Consistent: map[string][]int{"dmg": {0}},
		},
	}
}

func TestRunInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertRun(sampleRun("run-1", "hash-1", "2024-03-01", 9000), time.Now()); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	exists, err := db.RunExists("hash-1")
	if err != nil {
		t.Fatalf("RunExists: %v", err)
	}
	if !exists {
		t.Error("expected run to exist after insert")
	}

	exists2, _ := db.RunExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent run to not exist")
	}

	s, err := db.GetRunByHash("hash-1")
	if err != nil {
		t.Fatalf("GetRunByHash: %v", err)
	}
	if s == nil || s.ID != "run-1" {
		t.Fatalf("GetRunByHash: got %+v", s)
	}
	if s.NumPlayers != 2 || s.NumSkippedFights != 1 || s.TotalKills != 7 {
		t.Errorf("summary mismatch: %+v", s)
	}
}

func TestListRuns(t *testing.T) {
	db := openMemDB(t)

	db.InsertRun(sampleRun("r1", "h1", "2024-03-01", 100), time.Now())
	db.InsertRun(sampleRun("r2", "h2", "2024-03-08", 100), time.Now())

	list, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}
	// Ordered by raid_date DESC, so r2 should be first.
	if list[0].ID != "r2" {
		t.Errorf("expected r2 first (newest), got %s", list[0].ID)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.InsertRun(sampleRun("deadbeef-1234", "h1", "2024-03-01", 100), time.Now())

	s, err := db.GetRunByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if s == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if s.ID != "deadbeef-1234" {
		t.Errorf("unexpected id %s", s.ID)
	}

	s2, err := db.GetRunByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetRunByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestLoadReportRoundTrip(t *testing.T) {
	db := openMemDB(t)

	in := sampleRun("r1", "h1", "2024-03-01", 9000)
	if err := db.InsertRun(in, time.Now()); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	out, err := db.LoadReport("r1")
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if out == nil {
		t.Fatal("expected stored report")
	}
	if !reflect.DeepEqual(out.RaidStats, in.RaidStats) {
		t.Errorf("raid stats: want %+v, got %+v", in.RaidStats, out.RaidStats)
	}
	if len(out.Players) != 2 || out.Players[0].Name != "Alice" {
		t.Fatalf("players not restored: %+v", out.Players)
	}
	if got := out.Players[0].Total("might"); got != model.BuffValue(1200, 90) {
		t.Errorf("might total: got %+v", got)
	}
	if got := out.Players[1].Total("might"); got.Valid {
		t.Errorf("Bob might should stay unavailable, got %+v", got)
	}
	if len(out.Total["dmg"]) != 2 || out.Total["dmg"][0] != 0 {
		t.Errorf("award list not restored: %v", out.Total["dmg"])
	}
	if !out.Fights[1].Skipped || out.Fights[1].SkipReasons[0] != "only 5 allies" {
		t.Errorf("skipped fight not restored: %+v", out.Fights[1])
	}

	missing, err := db.LoadReport("nope")
	if err != nil {
		t.Fatalf("LoadReport missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown run")
	}
}

func TestGetFights(t *testing.T) {
	db := openMemDB(t)
	db.InsertRun(sampleRun("r1", "h1", "2024-03-01", 100), time.Now())

	fights, err := db.GetFights("r1")
	if err != nil {
		t.Fatalf("GetFights: %v", err)
	}
	if len(fights) != 2 {
		t.Fatalf("expected 2 fights, got %d", len(fights))
	}
	if fights[0].File != "a.json" || fights[0].Commander != "Alice" || fights[0].Skipped {
		t.Errorf("fight 0 mismatch: %+v", fights[0])
	}
	if !fights[1].Skipped || fights[1].SkipReasons != "only 5 allies" {
		t.Errorf("fight 1 mismatch: %+v", fights[1])
	}
}

func TestPlayerHistoryAndTrend(t *testing.T) {
	db := openMemDB(t)
	db.InsertRun(sampleRun("r2", "h2", "2024-03-08", 12000), time.Now())
	db.InsertRun(sampleRun("r1", "h1", "2024-03-01", 9000), time.Now())

	hist, err := db.GetPlayerHistory("alice.1234")
	if err != nil {
		t.Fatalf("GetPlayerHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 records, got %d", len(hist))
	}
	if hist[0].RunID != "r1" {
		t.Errorf("expected oldest raid first, got %s", hist[0].RunID)
	}
	// total place + consistent place
	if hist[0].Awards != 2 {
		t.Errorf("Alice awards: want 2, got %d", hist[0].Awards)
	}

	bob, _ := db.GetPlayerHistory("bob.5678")
	if len(bob) != 2 || !bob[0].SwappedBuild || bob[0].Awards != 1 {
		t.Errorf("Bob history mismatch: %+v", bob)
	}

	trend, err := db.GetStatTrend("alice.1234", []string{"dmg", "might"})
	if err != nil {
		t.Fatalf("GetStatTrend: %v", err)
	}
	dmg := trend["dmg"]
	if len(dmg) != 2 || dmg[0].Total != 9000 || dmg[1].Total != 12000 {
		t.Errorf("dmg trend mismatch: %+v", dmg)
	}
	if dmg[0].Consistency != 1 || dmg[0].PortionTop != 1 {
		t.Errorf("dmg trend ranking fields: %+v", dmg[0])
	}
	if len(trend["might"]) != 2 || trend["might"][0].Total != 1200 {
		t.Errorf("might trend mismatch: %+v", trend["might"])
	}

	bobTrend, _ := db.GetStatTrend("bob.5678", []string{"might"})
	if bobTrend["might"][0].Total != model.Sentinel {
		t.Errorf("unavailable total should read as sentinel, got %v", bobTrend["might"][0].Total)
	}
}

func TestOverviewAndDelete(t *testing.T) {
	db := openMemDB(t)

	empty, err := db.Overview()
	if err != nil {
		t.Fatalf("Overview on empty store: %v", err)
	}
	if empty.TotalRuns != 0 || empty.EarliestRaid != "" {
		t.Errorf("empty overview: %+v", empty)
	}

	db.InsertRun(sampleRun("r1", "h1", "2024-03-01", 100), time.Now())
	db.InsertRun(sampleRun("r2", "h2", "2024-03-08", 100), time.Now())

	o, err := db.Overview()
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	want := model.StoreOverview{
		TotalRuns:      2,
		TotalFights:    4,
		SkippedFights:  2,
		UniqueAccounts: 2,
		EarliestRaid:   "2024-03-01",
		LatestRaid:     "2024-03-08",
	}
	if o != want {
		t.Errorf("overview: want %+v, got %+v", want, o)
	}

	deleted, err := db.DeleteRun("r1")
	if err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if !deleted {
		t.Error("expected r1 to be deleted")
	}
	again, _ := db.DeleteRun("r1")
	if again {
		t.Error("second delete should report nothing removed")
	}

	o, _ = db.Overview()
	if o.TotalRuns != 1 || o.TotalFights != 2 {
		t.Errorf("after delete: %+v", o)
	}
	hist, _ := db.GetPlayerHistory("alice.1234")
	if len(hist) != 1 {
		t.Errorf("player rows of deleted run should be gone, got %d", len(hist))
	}
}

func TestInsertIdempotency(t *testing.T) {
	db := openMemDB(t)

	r := sampleRun("idem1", "h1", "2024-03-01", 100)
	db.InsertRun(r, time.Now())
	// Second insert should not error (INSERT OR REPLACE).
	if err := db.InsertRun(r, time.Now()); err != nil {
		t.Errorf("second InsertRun should succeed (idempotent): %v", err)
	}
	o, _ := db.Overview()
	if o.TotalRuns != 1 || o.TotalFights != 2 {
		t.Errorf("replace left duplicates: %+v", o)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertRun(sampleRun("r1", "h1", "2024-03-01", 100), time.Now())

	cols, rows, err := db.QueryRaw("SELECT name, swapped_build FROM players WHERE run_id = 'r1' ORDER BY player_index")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[0] != "name" {
		t.Errorf("columns: %v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "Alice" || rows[1][1] != "1" {
		t.Errorf("rows: %v", rows)
	}

	if _, _, err := db.QueryRaw("SELECT * FROM nope"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?,?,?" {
		t.Errorf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Errorf("placeholders(0) = %q", got)
	}
}
