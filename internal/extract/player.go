package extract

import (
	"math"
	"slices"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// barrierIndex is the outgoingBarrier phase the barrier stat is read from.
const barrierIndex = 1

// Extractor reads stats for the players of one fight. Fields missing from the
// input are recorded as warnings and yield unavailable values.
type Extractor struct {
	cfg      *config.Config
	fight    *model.Fight
	index    int
	warnings []model.Warning
}

// NewExtractor returns an Extractor for the fight at position index.
func NewExtractor(cfg *config.Config, fight *model.Fight, index int) *Extractor {
	return &Extractor{cfg: cfg, fight: fight, index: index}
}

// Warnings returns every problem recorded so far, in extraction order.
func (x *Extractor) Warnings() []model.Warning { return x.warnings }

// Slot reads the presence clocks and every configured stat for p.
func (x *Extractor) Slot(p *model.LogPlayer) model.StatSlot {
	d := x.Durations(p)
	slot := model.StatSlot{
		PresentInFight:  true,
		Group:           p.Group,
		DurationPresent: d,
		Stats:           make(map[string]model.Value, len(x.cfg.StatsToCompute)),
	}
	for _, stat := range x.cfg.StatsToCompute {
		if clk, ok := clockStats[stat]; ok {
			slot.Stats[stat] = clockValue(d.Get(clk))
			continue
		}
		slot.Stats[stat] = x.Stat(p, d, stat)
	}
	return slot
}

// clockStats are the stats that are themselves presence clocks.
var clockStats = map[string]model.Clock{
	"time_active":           model.ClockActive,
	"time_in_combat":        model.ClockInCombat,
	"time_not_running_back": model.ClockNotRunningBack,
}

func clockValue(sec float64) model.Value {
	if sec < 0 {
		return model.Unavailable()
	}
	return model.Scalar(sec)
}

// Durations returns p's four presence clocks in seconds. A clock that cannot
// be measured is -1.
func (x *Extractor) Durations(p *model.LogPlayer) model.Durations {
	sec := func(stat string) float64 {
		if v := x.read(p, stat); v.Valid {
			return v.Amount
		}
		return model.Sentinel
	}
	return model.Durations{
		Total:          float64(x.fight.Duration),
		Active:         sec("time_active"),
		InCombat:       sec("time_in_combat"),
		NotRunningBack: sec("time_not_running_back"),
	}
}

// Stat reads one stat for p. Stats normalized by a clock that is not
// positive for this player are unavailable.
func (x *Extractor) Stat(p *model.LogPlayer, d model.Durations, stat string) model.Value {
	switch stat {
	case "time_active", "time_in_combat", "time_not_running_back", "group":
		return x.read(p, stat)
	}
	if d.Get(x.cfg.Clock(stat)) <= 0 {
		return model.Unavailable()
	}
	return x.read(p, stat)
}

func (x *Extractor) warn(p *model.LogPlayer, stat, reason string) model.Value {
	x.warnings = append(x.warnings, model.Warning{Fight: x.index, Player: p.Name, Stat: stat, Reason: reason})
	return model.Unavailable()
}

func (x *Extractor) read(p *model.LogPlayer, stat string) model.Value {
	switch {
	case x.cfg.IsSquadBuffStat(stat):
		return x.squadBuff(p, stat)
	case x.cfg.IsSelfBuffStat(stat):
		return x.selfBuff(p, stat)
	case slices.Contains(config.HealingStats, stat):
		return x.healing(p, stat)
	}

	switch stat {
	case "group":
		return model.Scalar(float64(p.Group))
	case "time_active":
		if len(p.ActiveTimes) == 0 {
			return x.warn(p, stat, "activeTimes missing")
		}
		return model.Scalar(math.Round(p.ActiveTimes[0] / 1000))
	case "time_in_combat":
		if len(p.Damage1S) == 0 {
			return x.warn(p, stat, "damage1S missing")
		}
		return model.Scalar(timeInCombat(p))
	case "time_not_running_back":
		return x.notRunningBack(p)
	case "dist":
		return x.distance(p)

	case "dmg", "dmg_total":
		if len(p.DpsAll) == 0 {
			return x.warn(p, stat, "dpsAll missing")
		}
		return model.Scalar(p.DpsAll[0].Damage)
	case "dmg_players":
		return model.Scalar(playerDamage(p))
	case "dmg_other":
		if len(p.DpsAll) == 0 {
			return x.warn(p, stat, "dpsAll missing")
		}
		return model.Scalar(p.DpsAll[0].Damage - playerDamage(p))
	case "spike_dmg":
		if len(p.Damage1S) == 0 {
			return x.warn(p, stat, "damage1S missing")
		}
		return model.Scalar(spike(p.Damage1S[0]))

	case "cleanses", "strips":
		if len(p.Support) == 0 {
			return x.warn(p, stat, "support missing")
		}
		if stat == "cleanses" {
			return model.Scalar(float64(p.Support[0].CondiCleanse))
		}
		return model.Scalar(float64(p.Support[0].BoonStrips))

	case "kills", "downs":
		if len(p.StatsAll) == 0 {
			return x.warn(p, stat, "statsAll missing")
		}
		if stat == "kills" {
			return model.Scalar(float64(p.StatsAll[0].Killed))
		}
		return model.Scalar(float64(p.StatsAll[0].Downed))
	}

	if len(p.Defenses) == 0 {
		return x.warn(p, stat, "defenses missing")
	}
	def := p.Defenses[0]
	switch stat {
	case "deaths":
		return model.Scalar(float64(def.DeadCount))
	case "downstate":
		return model.Scalar(float64(def.DownCount))
	case "stripped":
		return model.Scalar(float64(def.BoonStrips))
	case "dmg_taken", "dmg_taken_total":
		return model.Scalar(def.DamageTaken)
	case "dmg_taken_absorbed":
		return model.Scalar(def.DamageBarrier)
	case "dmg_taken_hp_lost":
		return model.Scalar(def.DamageTaken - def.DamageBarrier)
	}
	return x.warn(p, stat, "no extraction rule")
}

// squadBuff reads generation from squadBuffs and uptime from buffUptimes. A
// buff the player never generated reads as zero.
func (x *Extractor) squadBuff(p *model.LogPlayer, stat string) model.Value {
	id, ok := x.cfg.Buffs.SquadBuffIDs[stat]
	if !ok {
		return model.BuffValue(0, 0)
	}
	var gen, uptime float64
	if b := findBuff(p.SquadBuffs, id); b != nil && len(b.BuffData) > 0 {
		gen = b.BuffData[0].Generation
	}
	if b := findBuff(p.BuffUptimes, id); b != nil && len(b.BuffData) > 0 {
		uptime = b.BuffData[0].Uptime
	}
	return model.BuffValue(gen, uptime)
}

func (x *Extractor) selfBuff(p *model.LogPlayer, stat string) model.Value {
	id, ok := x.cfg.Buffs.SelfBuffIDs[stat]
	if ok && findBuff(p.SelfBuffs, id) != nil {
		return model.Scalar(1)
	}
	return model.Scalar(0)
}

func (x *Extractor) healing(p *model.LogPlayer, stat string) model.Value {
	if !x.fight.RunsHealingAddon(p.Name) {
		return model.Unavailable()
	}

	if stat == "barrier" {
		if p.ExtBarrierStats == nil || len(p.ExtBarrierStats.OutgoingBarrier) <= barrierIndex {
			return x.warn(p, stat, "extBarrierStats.outgoingBarrier missing")
		}
		return model.Scalar(p.ExtBarrierStats.OutgoingBarrier[barrierIndex].Barrier)
	}

	hs := p.ExtHealingStats
	if hs == nil {
		return x.warn(p, stat, "extHealingStats missing")
	}
	switch stat {
	case "heal_from_regen", "hits_from_regen":
		if len(hs.TotalHealingDist) == 0 {
			return x.warn(p, stat, "extHealingStats.totalHealingDist missing")
		}
		regen, ok := x.cfg.Buffs.SquadBuffIDs["regen"]
		if !ok {
			return model.Scalar(0)
		}
		for _, e := range hs.TotalHealingDist[0] {
			if e.ID != regen {
				continue
			}
			if stat == "hits_from_regen" {
				return model.Scalar(float64(e.Hits))
			}
			return model.Scalar(e.TotalHealing)
		}
		return model.Scalar(0)
	}

	if len(hs.OutgoingHealing) == 0 {
		return x.warn(p, stat, "extHealingStats.outgoingHealing missing")
	}
	heal := hs.OutgoingHealing[0].Healing
	var players float64
	for _, ally := range hs.OutgoingHealingAllies {
		if len(ally) > 0 {
			players += ally[0].Healing
		}
	}
	switch stat {
	case "heal_players":
		return model.Scalar(players)
	case "heal_other":
		return model.Scalar(heal - players)
	}
	return model.Scalar(heal)
}

// spatialWindow returns the first fatal down (ms) and the average distance to
// the commander up to it.
func (x *Extractor) spatialWindow(p *model.LogPlayer, stat string) (firstDown, dist float64, v model.Value, ok bool) {
	tag := x.fight.TagPositionsUntilDeath
	if len(tag) == 0 {
		return 0, 0, model.Unavailable(), false
	}
	if x.fight.PollingRate <= 0 || x.fight.InchToPixel <= 0 {
		return 0, 0, x.warn(p, stat, "combatReplayMetaData missing"), false
	}
	rp := p.CombatReplayData
	if rp == nil || len(rp.Positions) == 0 {
		return 0, 0, x.warn(p, stat, "combatReplayData.positions missing"), false
	}

	rate := float64(x.fight.PollingRate)
	firstDown = firstFatalDown(rp, float64(len(tag))*rate)
	dist, ok = avgDistance(rp.Positions, tag, int(firstDown/rate), x.fight.InchToPixel)
	if !ok {
		return 0, 0, model.Unavailable(), false
	}
	return firstDown, dist, model.Value{}, true
}

func (x *Extractor) notRunningBack(p *model.LogPlayer) model.Value {
	firstDown, dist, v, ok := x.spatialWindow(p, "time_not_running_back")
	if !ok {
		return v
	}
	if dist > x.cfg.RunningBackDistance {
		return model.Scalar(0)
	}
	return model.Scalar(firstDown / 1000)
}

func (x *Extractor) distance(p *model.LogPlayer) model.Value {
	_, dist, v, ok := x.spatialWindow(p, "dist")
	if !ok {
		return v
	}
	return model.Scalar(dist)
}

func playerDamage(p *model.LogPlayer) float64 {
	var sum float64
	for _, target := range p.TargetDamage1S {
		if len(target) == 0 || len(target[0]) == 0 {
			continue
		}
		sum += target[0][len(target[0])-1]
	}
	return sum
}

// spike returns the largest one-second increase of a cumulative series.
func spike(series []float64) float64 {
	var best, prev float64
	for _, v := range series {
		best = max(best, v-prev)
		prev = v
	}
	return best
}

func findBuff(buffs []model.BuffUptime, id int64) *model.BuffUptime {
	for i := range buffs {
		if buffs[i].ID == id {
			return &buffs[i]
		}
	}
	return nil
}
