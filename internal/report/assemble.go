// Package report assembles the batch result and renders it as terminal
// tables, JSON and a spreadsheet workbook.
package report

import (
	"math"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
	"github.com/pable/go-topstats/internal/ranking"
)

// RaidStats summarizes the used fights of a batch.
type RaidStats struct {
	Date                string             `json:"date"`
	StartTime           string             `json:"start_time"`
	EndTime             string             `json:"end_time"`
	NumUsedFights       int                `json:"num_used_fights"`
	UsedFightsDuration  int                `json:"used_fights_duration"`
	NumSkippedFights    int                `json:"num_skipped_fights"`
	MinAllies           int                `json:"min_allies"`
	MaxAllies           int                `json:"max_allies"`
	MeanAllies          float64            `json:"mean_allies"`
	MinEnemies          int                `json:"min_enemies"`
	MaxEnemies          int                `json:"max_enemies"`
	MeanEnemies         float64            `json:"mean_enemies"`
	TotalKills          int                `json:"total_kills"`
	AvgSquadComposition map[string]float64 `json:"avg_squad_composition"`
}

// SquadStats holds squad-wide totals and averages over the used fights.
type SquadStats struct {
	Total   map[string]model.Value `json:"total"`
	Average map[string]float64     `json:"average"`
}

// Report is the full result of one batch.
type Report struct {
	ID        string   `json:"id"`
	InputHash string   `json:"input_hash"`
	Files     []string `json:"files"`
	Stats     []string `json:"stats"`

	RaidStats  RaidStats       `json:"overall_raid_stats"`
	SquadStats SquadStats      `json:"overall_squad_stats"`
	Fights     []*model.Fight  `json:"fights"`
	Players    []*model.Player `json:"players"`

	ranking.Awards

	Warnings []model.Warning `json:"warnings"`
}

// Assemble builds the report from aggregated fights and players.
func Assemble(cfg *config.Config, fights []*model.Fight, players []*model.Player, awards *ranking.Awards, warnings []model.Warning) *Report {
	r := &Report{
		Stats:    cfg.RankedStats(),
		Fights:   fights,
		Players:  players,
		Warnings: warnings,
	}
	if r.Fights == nil {
		r.Fights = []*model.Fight{}
	}
	if r.Players == nil {
		r.Players = []*model.Player{}
	}
	if r.Warnings == nil {
		r.Warnings = []model.Warning{}
	}
	if awards != nil {
		r.Awards = *awards
	}
	r.RaidStats = raidStats(fights)
	r.SquadStats = squadStats(cfg, r.Stats, fights, players)
	return r
}

func raidStats(fights []*model.Fight) RaidStats {
	rs := RaidStats{AvgSquadComposition: make(map[string]float64)}
	var allies, enemies int
	for _, f := range fights {
		if f.Skipped {
			rs.NumSkippedFights++
			continue
		}
		if rs.NumUsedFights == 0 {
			rs.StartTime = f.StartTime
			rs.Date = f.StartTime[:min(10, len(f.StartTime))]
			rs.MinAllies, rs.MinEnemies = f.Allies, f.Enemies
		}
		rs.NumUsedFights++
		rs.EndTime = f.EndTime
		rs.UsedFightsDuration += f.Duration
		rs.TotalKills += f.Kills
		rs.MinAllies = min(rs.MinAllies, f.Allies)
		rs.MaxAllies = max(rs.MaxAllies, f.Allies)
		rs.MinEnemies = min(rs.MinEnemies, f.Enemies)
		rs.MaxEnemies = max(rs.MaxEnemies, f.Enemies)
		allies += f.Allies
		enemies += f.Enemies
		for prof, n := range f.SquadComposition {
			rs.AvgSquadComposition[prof] += float64(n)
		}
	}
	if rs.NumUsedFights == 0 {
		return rs
	}
	n := float64(rs.NumUsedFights)
	rs.MeanAllies = round2(float64(allies) / n)
	rs.MeanEnemies = round2(float64(enemies) / n)
	for prof, c := range rs.AvgSquadComposition {
		rs.AvgSquadComposition[prof] = round2(c / n)
	}
	return rs
}

func squadStats(cfg *config.Config, stats []string, fights []*model.Fight, players []*model.Player) SquadStats {
	ss := SquadStats{
		Total:   make(map[string]model.Value, len(stats)),
		Average: make(map[string]float64, len(stats)),
	}

	var durAllies, durAlliesOthers, allies, spikeFights float64
	spikeSum := make(map[string]float64)
	for _, f := range fights {
		if f.Skipped {
			continue
		}
		d, a := float64(f.Duration), float64(f.Allies)
		durAllies += d * a
		durAlliesOthers += d * (a - 1) * a
		allies += a
		spikeFights++
		for _, s := range stats {
			fv := f.TotalStats[s]
			t := ss.Total[s]
			t.Valid, t.Buff = true, cfg.Class(s).IsSquadBuff()
			if cfg.Class(s) == config.ClassSpike {
				t.Amount = max(t.Amount, fv.Amount)
				spikeSum[s] += f.AvgStats[s]
			} else {
				t.Amount += fv.Amount
				t.Uptime += fv.Uptime
			}
			ss.Total[s] = t
		}
	}

	var presence float64
	for _, p := range players {
		presence += p.DurationPresent.Total
	}

	for _, s := range stats {
		t, ok := ss.Total[s]
		if !ok {
			if cfg.Class(s).IsSquadBuff() {
				t = model.BuffValue(0, 0)
			} else {
				t = model.Scalar(0)
			}
		}
		var avg float64
		switch cfg.Class(s) {
		case config.ClassSpike:
			avg = div(spikeSum[s], spikeFights)
		case config.ClassRegenHeal:
			avg = div(t.Amount, ss.Total["hits_from_regen"].Amount)
		case config.ClassSelfBuff:
			avg = div(t.Amount, allies)
		case config.ClassCount:
			avg = div(t.Amount, durAllies/60)
		case config.ClassBuffDuration:
			avg = div(100*t.Amount, durAlliesOthers)
		case config.ClassBuffIntensity:
			avg = div(t.Amount, durAlliesOthers)
		case config.ClassBuffNotStacking:
			avg = div(100*t.Amount, presence)
		default:
			avg = div(t.Amount, durAllies)
		}
		t.Amount, t.Uptime = round2(t.Amount), round2(t.Uptime)
		ss.Total[s] = t
		ss.Average[s] = round2(avg)
	}
	return ss
}

func div(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
