package extract

import (
	"math"

	"github.com/pable/go-topstats/internal/model"
)

// combatStart returns the first moment at or after t0 (ms) where the player
// either lost health or dealt power damage. ok is false when neither happens.
func combatStart(p *model.LogPlayer, t0 float64) (start float64, ok bool) {
	start = -1
	last := 100.0
	for _, hp := range p.HealthPercents {
		if hp[0] < t0 {
			last = hp[1]
			continue
		}
		if hp[1] < last {
			start = hp[0]
			break
		}
		last = hp[1]
	}

	if len(p.PowerDamage1S) > 0 {
		series := p.PowerDamage1S[0]
		for i := max(int(math.Ceil(t0/1000)), 1); i < len(series); i++ {
			if series[i] > series[i-1] {
				ms := float64(i * 1000)
				if start < 0 || ms < start {
					start = ms
				}
				break
			}
		}
	}
	return start, start >= 0
}

// combatIntervals splits the fight into [start, end] ms spans during which the
// player was fighting. A span closes at a death that followed a down; the
// next one opens at the first combat activity a second after the player
// got back up. The last span ends with the damage series.
func combatIntervals(p *model.LogPlayer) [][2]float64 {
	end := float64(len(p.Damage1S[0]) * 1000)
	start, ok := combatStart(p, 0)

	var out [][2]float64
	if rp := p.CombatReplayData; rp != nil {
		for _, death := range rp.Dead {
			if !downedInto(rp.Down, death[0]) {
				continue
			}
			if ok {
				out = append(out, [2]float64{start, death[0]})
			}
			start, ok = combatStart(p, death[1]+1000)
		}
	}
	if ok {
		out = append(out, [2]float64{start, end})
	}
	return out
}

// timeInCombat returns the summed width of the combat intervals in seconds.
func timeInCombat(p *model.LogPlayer) float64 {
	var ms float64
	for _, iv := range combatIntervals(p) {
		ms += max(iv[1]-iv[0], 0)
	}
	return ms / 1000
}

// downedInto reports whether some down span ends exactly when a death starts.
func downedInto(downs [][2]float64, deathStart float64) bool {
	for _, d := range downs {
		if d[1] == deathStart {
			return true
		}
	}
	return false
}
