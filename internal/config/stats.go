package config

import (
	"slices"
	"strings"

	"github.com/pable/go-topstats/internal/model"
)

// StatClass decides how a stat is accumulated, averaged and ranked.
type StatClass int

const (
	ClassDefault StatClass = iota
	ClassInfo              // carried per fight, never aggregated or ranked
	ClassCount             // averaged per minute
	ClassDistance
	ClassDamageTaken
	ClassSpike
	ClassRegenHeal
	ClassSelfBuff
	ClassBuffDuration
	ClassBuffIntensity
	ClassBuffNotStacking
)

func (c StatClass) String() string {
	switch c {
	case ClassInfo:
		return "info"
	case ClassCount:
		return "count"
	case ClassDistance:
		return "distance"
	case ClassDamageTaken:
		return "damage_taken"
	case ClassSpike:
		return "spike"
	case ClassRegenHeal:
		return "regen_heal"
	case ClassSelfBuff:
		return "self_buff"
	case ClassBuffDuration:
		return "buff_stacking_duration"
	case ClassBuffIntensity:
		return "buff_stacking_intensity"
	case ClassBuffNotStacking:
		return "buff_not_stacking"
	default:
		return "default"
	}
}

// IsSquadBuff reports whether the class is one of the three squad buff classes.
func (c StatClass) IsSquadBuff() bool {
	return c == ClassBuffDuration || c == ClassBuffIntensity || c == ClassBuffNotStacking
}

// BaseStats are the non-buff stats the extractor knows how to read.
var BaseStats = []string{
	"time_active", "time_in_combat", "time_not_running_back", "group",
	"cleanses", "strips", "stripped",
	"deaths", "kills", "downs", "downstate",
	"dmg", "dmg_total", "dmg_players", "dmg_other",
	"dmg_taken", "dmg_taken_total", "dmg_taken_absorbed", "dmg_taken_hp_lost",
	"heal", "heal_players", "heal_other", "barrier", "heal_from_regen", "hits_from_regen",
	"dist", "spike_dmg",
}

// HealingStats are only readable for characters running the healing addon.
var HealingStats = []string{"heal", "heal_players", "heal_other", "barrier", "heal_from_regen", "hits_from_regen"}

// IsSquadBuffStat reports whether stat is a configured squad buff.
func (c *Config) IsSquadBuffStat(stat string) bool {
	for _, abbrev := range c.SquadBuffNames {
		if abbrev == stat {
			return true
		}
	}
	return false
}

// IsSelfBuffStat reports whether stat is a configured self buff.
func (c *Config) IsSelfBuffStat(stat string) bool {
	for _, abbrev := range c.SelfBuffNames {
		if abbrev == stat {
			return true
		}
	}
	return false
}

// IsKnownStat reports whether the extractor can produce stat.
func (c *Config) IsKnownStat(stat string) bool {
	return slices.Contains(BaseStats, stat) || c.IsSquadBuffStat(stat) || c.IsSelfBuffStat(stat)
}

// Class returns the aggregation class for stat. Squad buffs whose stacking
// kind has not been learned yet fall back to stacking duration.
func (c *Config) Class(stat string) StatClass {
	switch {
	case c.IsSquadBuffStat(stat):
		if slices.Contains(c.BuffsNotStacking, stat) {
			return ClassBuffNotStacking
		}
		if c.Buffs != nil && c.Buffs.IsIntensity(stat) {
			return ClassBuffIntensity
		}
		return ClassBuffDuration
	case c.IsSelfBuffStat(stat):
		return ClassSelfBuff
	case stat == "group":
		return ClassInfo
	case stat == "deaths", stat == "kills", stat == "downs", stat == "downstate":
		return ClassCount
	case stat == "dist":
		return ClassDistance
	case strings.HasPrefix(stat, "dmg_taken"):
		return ClassDamageTaken
	case stat == "spike_dmg":
		return ClassSpike
	case stat == "heal_from_regen":
		return ClassRegenHeal
	}
	return ClassDefault
}

// LowIsGood reports whether smaller values rank better for stat.
func LowIsGood(stat string) bool {
	switch stat {
	case "dist", "deaths", "stripped", "downstate":
		return true
	}
	return strings.HasPrefix(stat, "dmg_taken")
}

// RankedStats returns the stats that get award lists, in configured order.
func (c *Config) RankedStats() []string {
	out := make([]string, 0, len(c.StatsToCompute))
	for _, s := range c.StatsToCompute {
		if c.Class(s) != ClassInfo {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) defaultClock(stat string) model.Clock {
	switch c.Class(stat) {
	case ClassBuffDuration, ClassBuffIntensity, ClassBuffNotStacking:
		return model.ClockActive
	case ClassSelfBuff, ClassInfo:
		return model.ClockTotal
	case ClassDistance:
		return model.ClockNotRunningBack
	}
	switch stat {
	case "deaths", "downstate", "time_active", "time_in_combat", "time_not_running_back":
		return model.ClockTotal
	}
	return model.ClockInCombat
}
