package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pable/go-topstats/internal/model"
	"github.com/pable/go-topstats/internal/report"
)

const runColumns = `id, input_hash, created_at, raid_date, start_time, end_time,
	num_used_fights, num_skipped_fights, used_duration, total_kills, num_players`

// RunExists returns true if a run built from the given input hash is already stored.
func (db *DB) RunExists(inputHash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM runs WHERE input_hash = ?", inputHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRunByHash returns the run stored for an input hash, or nil if there is none.
func (db *DB) GetRunByHash(inputHash string) (*model.RunSummary, error) {
	return db.getRun("SELECT "+runColumns+" FROM runs WHERE input_hash = ?", inputHash)
}

// GetRunByPrefix finds the first run whose ID starts with the given prefix.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	return db.getRun("SELECT "+runColumns+" FROM runs WHERE id LIKE ? ORDER BY id LIMIT 1", prefix+"%")
}

func (db *DB) getRun(query string, arg any) (*model.RunSummary, error) {
	s, err := scanRun(db.conn.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.RunSummary, error) {
	var s model.RunSummary
	if err := row.Scan(&s.ID, &s.InputHash, &s.CreatedAt, &s.RaidDate, &s.StartTime, &s.EndTime,
		&s.NumUsedFights, &s.NumSkippedFights, &s.UsedDuration, &s.TotalKills, &s.NumPlayers); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRuns returns all stored runs, most recent raid first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query("SELECT " + runColumns + " FROM runs ORDER BY raid_date DESC, start_time DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// InsertRun stores a report with its fights, players, per-stat figures and
// award lists in one transaction. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertRun(r *report.Report, createdAt time.Time) error {
	blob, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replacing a run must not leave rows of its previous incarnation behind.
	for _, table := range []string{"awards", "player_stats", "players", "fights"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", r.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	rs := r.RaidStats
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs(`+runColumns+`, report_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InputHash, createdAt.UTC().Format(time.RFC3339), rs.Date, rs.StartTime, rs.EndTime,
		rs.NumUsedFights, rs.NumSkippedFights, rs.UsedFightsDuration, rs.TotalKills, len(r.Players), blob,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}

	if err := insertFights(tx, r); err != nil {
		return err
	}
	if err := insertPlayers(tx, r); err != nil {
		return err
	}
	if err := insertAwards(tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

func insertFights(tx *sql.Tx, r *report.Report) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO fights(
			run_id, fight_index, file, start_time, end_time, duration,
			allies, enemies, kills, commander, skipped, skip_reasons
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range r.Fights {
		var file string
		if i < len(r.Files) {
			file = r.Files[i]
		}
		_, err = stmt.Exec(
			r.ID, i, file, f.StartTime, f.EndTime, f.Duration,
			f.Allies, f.Enemies, f.Kills, f.Commander, boolInt(f.Skipped), strings.Join(f.SkipReasons, "; "),
		)
		if err != nil {
			return fmt.Errorf("insert fight %d: %w", i, err)
		}
	}
	return nil
}

func insertPlayers(tx *sql.Tx, r *report.Report) error {
	pstmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO players(
			run_id, player_index, account, name, profession,
			num_fights_present, attendance_percentage, swapped_build
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer pstmt.Close()

	sstmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_stats(
			run_id, player_index, stat, total, uptime, average, consistency, portion_top
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer sstmt.Close()

	for i, p := range r.Players {
		_, err = pstmt.Exec(
			r.ID, i, p.Account, p.Name, p.Profession,
			p.NumFightsPresent, p.AttendancePercentage, boolInt(p.SwappedBuild),
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
		for _, stat := range r.Stats {
			total, uptime := nullValue(p.Total(stat))
			_, err = sstmt.Exec(
				r.ID, i, stat, total, uptime,
				p.AverageStats[stat], p.ConsistencyStats[stat], p.PortionTopStats[stat],
			)
			if err != nil {
				return fmt.Errorf("insert player_stats for %s/%s: %w", p.Name, stat, err)
			}
		}
	}
	return nil
}

func insertAwards(tx *sql.Tx, r *report.Report) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO awards(run_id, stat, mode, place, player_index)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	modes := []struct {
		name  string
		lists map[string][]int
	}{
		{"total", r.Total},
		{"consistent", r.Consistent},
		{"average", r.Average},
		{"percentage", r.Percentage},
		{"late", r.Late},
		{"jack_of_all_trades", r.JackOfAllTrades},
	}
	for _, stat := range r.Stats {
		for _, m := range modes {
			for place, idx := range m.lists[stat] {
				if _, err := stmt.Exec(r.ID, stat, m.name, place+1, idx); err != nil {
					return fmt.Errorf("insert award %s/%s: %w", stat, m.name, err)
				}
			}
		}
	}
	return nil
}

// LoadReport decodes the full report stored for a run ID, or returns nil if
// the run does not exist.
func (db *DB) LoadReport(runID string) (*report.Report, error) {
	var blob []byte
	err := db.conn.QueryRow("SELECT report_blob FROM runs WHERE id = ?", runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := msgpack.Unmarshal(blob, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &r, nil
}

// DeleteRun removes a run and every row derived from it. It reports whether
// the run existed.
func (db *DB) DeleteRun(runID string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, table := range []string{"awards", "player_stats", "players", "fights"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return false, fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// GetFights returns the stored fight rows of a run in batch order.
func (db *DB) GetFights(runID string) ([]FightRow, error) {
	rows, err := db.conn.Query(`
		SELECT fight_index, file, start_time, end_time, duration,
		       allies, enemies, kills, commander, skipped, skip_reasons
		FROM fights WHERE run_id = ?
		ORDER BY fight_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FightRow
	for rows.Next() {
		var f FightRow
		var skipped int
		if err := rows.Scan(&f.Index, &f.File, &f.StartTime, &f.EndTime, &f.Duration,
			&f.Allies, &f.Enemies, &f.Kills, &f.Commander, &skipped, &f.SkipReasons); err != nil {
			return nil, err
		}
		f.Skipped = skipped != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// FightRow is one stored fight of a run.
type FightRow struct {
	Index       int
	File        string
	StartTime   string
	EndTime     string
	Duration    int
	Allies      int
	Enemies     int
	Kills       int
	Commander   string
	Skipped     bool
	SkipReasons string
}

// GetPlayerHistory returns one record per stored run the account took part
// in, oldest raid first. Each record counts the award places earned.
func (db *DB) GetPlayerHistory(account string) ([]model.PlayerRunRecord, error) {
	rows, err := db.conn.Query(`
		SELECT p.run_id, r.raid_date, p.account, p.name, p.profession,
		       p.num_fights_present, p.attendance_percentage, p.swapped_build,
		       (SELECT COUNT(1) FROM awards a
		         WHERE a.run_id = p.run_id AND a.player_index = p.player_index)
		FROM players p
		JOIN runs r ON r.id = p.run_id
		WHERE p.account = ?
		ORDER BY r.raid_date, r.start_time, p.player_index`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRunRecord
	for rows.Next() {
		var rec model.PlayerRunRecord
		var swapped int
		if err := rows.Scan(&rec.RunID, &rec.RaidDate, &rec.Account, &rec.Name, &rec.Profession,
			&rec.NumFightsPresent, &rec.AttendancePercentage, &swapped, &rec.Awards); err != nil {
			return nil, err
		}
		rec.SwappedBuild = swapped != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetStatTrend returns the account's figures for each of the given stats
// across stored runs, oldest raid first. A stat total that was unavailable
// is reported as model.Sentinel.
func (db *DB) GetStatTrend(account string, stats []string) (map[string][]model.TrendPoint, error) {
	if len(stats) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(stats)+1)
	args = append(args, account)
	for _, s := range stats {
		args = append(args, s)
	}

	query := fmt.Sprintf(`
		SELECT s.stat, p.run_id, r.raid_date, p.name, p.profession,
		       s.total, s.average, s.consistency, s.portion_top
		FROM player_stats s
		JOIN players p ON p.run_id = s.run_id AND p.player_index = s.player_index
		JOIN runs r ON r.id = s.run_id
		WHERE p.account = ? AND s.stat IN (%s)
		ORDER BY r.raid_date, r.start_time, p.player_index`, placeholders(len(stats)))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.TrendPoint, len(stats))
	for rows.Next() {
		var stat string
		var tp model.TrendPoint
		var total sql.NullFloat64
		if err := rows.Scan(&stat, &tp.RunID, &tp.RaidDate, &tp.Name, &tp.Profession,
			&total, &tp.Average, &tp.Consistency, &tp.PortionTop); err != nil {
			return nil, err
		}
		tp.Total = model.Sentinel
		if total.Valid {
			tp.Total = total.Float64
		}
		out[stat] = append(out[stat], tp)
	}
	return out, rows.Err()
}

// Overview summarizes the whole store.
func (db *DB) Overview() (model.StoreOverview, error) {
	var o model.StoreOverview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(1), MIN(NULLIF(raid_date, '')), MAX(NULLIF(raid_date, ''))
		FROM runs`).Scan(&o.TotalRuns, &earliest, &latest)
	if err != nil {
		return o, err
	}
	o.EarliestRaid, o.LatestRaid = earliest.String, latest.String

	err = db.conn.QueryRow(`
		SELECT COUNT(1), COALESCE(SUM(skipped), 0) FROM fights`).Scan(&o.TotalFights, &o.SkippedFights)
	if err != nil {
		return o, err
	}
	err = db.conn.QueryRow(`SELECT COUNT(DISTINCT account) FROM players`).Scan(&o.UniqueAccounts)
	return o, err
}

// QueryRaw runs an arbitrary read query and returns column names and every
// row rendered as strings. NULL is rendered as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				if len(x) > 64 {
					row[i] = fmt.Sprintf("<%d bytes>", len(x))
				} else {
					row[i] = string(x)
				}
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func nullValue(v model.Value) (total, uptime sql.NullFloat64) {
	if !v.Valid {
		return
	}
	total = sql.NullFloat64{Float64: v.Amount, Valid: true}
	if v.Buff {
		uptime = sql.NullFloat64{Float64: v.Uptime, Valid: true}
	}
	return
}

// placeholders returns a comma-separated list of n SQL placeholders,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
