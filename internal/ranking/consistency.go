// Package ranking selects per-fight top players and builds the award
// leaderboards for each stat.
package ranking

import (
	"slices"
	"strings"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// eligible reports whether a per-fight value can earn top-K credit.
func eligible(stat string, v float64) bool {
	switch {
	case stat == "deaths":
		return v == 0
	case stat == "stripped", stat == "downstate", strings.HasPrefix(stat, "dmg_taken"):
		return v >= 0
	}
	return v > 0
}

// Consistency counts, per stat, how often each player placed in a used
// fight's top K, then derives the portion of present fights spent there.
func Consistency(cfg *config.Config, fights []*model.Fight, players []*model.Player) {
	stats := cfg.RankedStats()
	for _, p := range players {
		p.ConsistencyStats = make(map[string]int, len(stats))
		p.PortionTopStats = make(map[string]float64, len(stats))
	}

	for _, stat := range stats {
		for fi, f := range fights {
			if f.Skipped {
				continue
			}
			for _, idx := range TopInFight(cfg, stat, fi, players) {
				players[idx].ConsistencyStats[stat]++
			}
		}
		for _, p := range players {
			if p.NumFightsPresent > 0 {
				p.PortionTopStats[stat] = float64(p.ConsistencyStats[stat]) / float64(p.NumFightsPresent)
			}
		}
	}
}

type fightValue struct {
	idx int
	v   float64
}

// TopInFight returns the indices of the players in fight fi's top K for stat,
// best first. Players tied with the last accepted value are included.
func TopInFight(cfg *config.Config, stat string, fi int, players []*model.Player) []int {
	var vals []fightValue
	for i, p := range players {
		slot := p.StatsPerFight[fi]
		if !slot.PresentInFight {
			continue
		}
		v := slot.Stats[stat]
		if !v.Valid || !eligible(stat, v.Amount) {
			continue
		}
		vals = append(vals, fightValue{i, v.Amount})
	}

	low := config.LowIsGood(stat)
	slices.SortStableFunc(vals, func(a, b fightValue) int {
		if a.v == b.v {
			return a.idx - b.idx
		}
		if (a.v < b.v) == low {
			return -1
		}
		return 1
	})

	k := cfg.ConsideredTop(stat)
	var out []int
	for i, fv := range vals {
		if len(out) >= k && (i == 0 || fv.v != vals[i-1].v) {
			break
		}
		out = append(out, fv.idx)
	}
	return out
}
