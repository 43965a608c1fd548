// Package aggregator merges per-fight readings into players and rolls them up
// into per-player and per-fight totals and averages.
package aggregator

import (
	"math"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// normalizer carries the denominators one average is computed against: a
// player across the batch, or the squad within one fight.
type normalizer struct {
	presence model.Durations // Σ presence per clock
	allies   model.Durations // Σ presence × (allies − 1) per clock
	count    int             // fights present, or players present
	spikeSum float64
	spikeN   int
}

// Aggregate fills totals, averages and attendance on players and fights.
// Skipped fights and unavailable readings never contribute.
func Aggregate(cfg *config.Config, fights []*model.Fight, players []*model.Player) {
	stats := aggregatedStats(cfg)

	fightNorm := make([]normalizer, len(fights))
	for fi, f := range fights {
		f.TotalStats = zeroTotals(cfg, stats)
		f.AvgStats = make(map[string]float64, len(stats))
		if f.Skipped {
			continue
		}
		for _, p := range players {
			slot := p.StatsPerFight[fi]
			if !slot.PresentInFight {
				continue
			}
			n := &fightNorm[fi]
			n.presence.AddScaled(slot.DurationPresent, 1)
			n.allies.AddScaled(slot.DurationPresent, float64(f.Allies-1))
			n.count++
			for _, stat := range stats {
				accumulate(cfg, stat, f.TotalStats, n, slot, f.Allies)
			}
		}
	}

	var usedDuration float64
	for _, f := range fights {
		if !f.Skipped {
			usedDuration += float64(f.Duration)
		}
	}

	// ---- Per-player totals ----

	for _, p := range players {
		p.TotalStats = zeroTotals(cfg, stats)
		p.AverageStats = make(map[string]float64, len(stats))
		p.NumFightsPresent = 0
		p.DurationPresent = model.Durations{}
		p.NormalizationTimeAllies = model.Durations{}

		var n normalizer
		var presentDuration float64
		for fi, f := range fights {
			slot := p.StatsPerFight[fi]
			if f.Skipped || !slot.PresentInFight {
				continue
			}
			p.NumFightsPresent++
			presentDuration += float64(f.Duration)
			p.DurationPresent.AddScaled(slot.DurationPresent, 1)
			p.NormalizationTimeAllies.AddScaled(slot.DurationPresent, float64(f.Allies-1))
			for _, stat := range stats {
				accumulate(cfg, stat, p.TotalStats, &n, slot, f.Allies)
			}
		}
		n.presence = p.DurationPresent
		n.allies = p.NormalizationTimeAllies
		n.count = p.NumFightsPresent

		if usedDuration > 0 {
			p.AttendancePercentage = math.Round(100 * presentDuration / usedDuration)
		} else {
			p.AttendancePercentage = 0
		}
		for _, stat := range stats {
			p.AverageStats[stat] = round2(n.average(cfg, stat, p.TotalStats))
		}
		roundTotals(cfg, stats, p.TotalStats)
	}

	// ---- Per-fight averages ----

	for fi, f := range fights {
		if f.Skipped {
			continue
		}
		for _, stat := range stats {
			f.AvgStats[stat] = round2(fightNorm[fi].average(cfg, stat, f.TotalStats))
		}
		roundTotals(cfg, stats, f.TotalStats)
	}
}

// aggregatedStats are the configured stats that have totals.
func aggregatedStats(cfg *config.Config) []string {
	out := make([]string, 0, len(cfg.StatsToCompute))
	for _, s := range cfg.StatsToCompute {
		if cfg.Class(s) != config.ClassInfo {
			out = append(out, s)
		}
	}
	return out
}

func zeroTotals(cfg *config.Config, stats []string) map[string]model.Value {
	m := make(map[string]model.Value, len(stats))
	for _, s := range stats {
		if cfg.Class(s).IsSquadBuff() {
			m[s] = model.BuffValue(0, 0)
		} else {
			m[s] = model.Scalar(0)
		}
	}
	return m
}

// accumulate adds one slot's reading of stat into totals.
func accumulate(cfg *config.Config, stat string, totals map[string]model.Value, n *normalizer, slot model.StatSlot, allies int) {
	v := slot.Stats[stat]
	dur := slot.DurationPresent.Get(cfg.Clock(stat))
	if !v.Valid || dur <= 0 {
		return
	}
	t := totals[stat]
	others := float64(allies - 1)

	switch cfg.Class(stat) {
	case config.ClassBuffDuration:
		t.Amount += v.Amount / 100 * dur * others
		t.Uptime += v.Uptime / 100 * dur
	case config.ClassBuffNotStacking:
		t.Amount += v.Amount / 100 * dur
		t.Uptime += v.Uptime / 100 * dur
	case config.ClassBuffIntensity:
		t.Amount += v.Amount * dur * others
		t.Uptime += v.Uptime / 100 * dur
	case config.ClassDistance, config.ClassDamageTaken:
		t.Amount += v.Amount * dur
	case config.ClassSpike:
		t.Amount = max(t.Amount, v.Amount)
		n.spikeSum += v.Amount
		n.spikeN++
	default:
		t.Amount += v.Amount
	}
	totals[stat] = t
}

func (n *normalizer) average(cfg *config.Config, stat string, totals map[string]model.Value) float64 {
	total := totals[stat].Amount
	clk := cfg.Clock(stat)

	switch cfg.Class(stat) {
	case config.ClassSpike:
		return div(n.spikeSum, float64(n.spikeN))
	case config.ClassRegenHeal:
		return div(total, totals["hits_from_regen"].Amount)
	case config.ClassCount:
		return div(total, n.presence.Get(clk)/60)
	case config.ClassSelfBuff:
		return div(total, float64(n.count))
	case config.ClassBuffDuration:
		return div(100*total, n.allies.Get(clk))
	case config.ClassBuffIntensity:
		return div(total, n.allies.Get(clk))
	case config.ClassBuffNotStacking:
		return div(100*total, n.presence.Total)
	}
	return div(total, n.presence.Get(clk))
}

func roundTotals(cfg *config.Config, stats []string, totals map[string]model.Value) {
	for _, s := range stats {
		t := totals[s]
		switch cfg.Class(s) {
		case config.ClassCount, config.ClassSelfBuff:
			t.Amount = math.Round(t.Amount)
		default:
			t.Amount = round2(t.Amount)
			t.Uptime = round2(t.Uptime)
		}
		totals[s] = t
	}
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
