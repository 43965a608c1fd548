// Package config holds the typed configuration consumed by the stat engine:
// which stats to compute, award thresholds, fight admission rules, the buff
// taxonomy and the presence clock used to normalize each stat.
package config

import (
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/pable/go-topstats/internal/model"
)

// Config is the resolved engine configuration. Fields tagged koanf are read
// from defaults, the YAML file and the environment; Buffs is learned at
// runtime from each encounter's buff map.
type Config struct {
	StatsToCompute []string `koanf:"stats_to_compute"`

	NumPlayersListedDefault        int            `koanf:"num_players_listed_default"`
	NumPlayersListed               map[string]int `koanf:"num_players_listed"`
	NumPlayersConsideredTopDefault int            `koanf:"num_players_considered_top_default"`
	NumPlayersConsideredTop        map[string]int `koanf:"num_players_considered_top"`

	MinAttendancePortionForPercentage float64 `koanf:"min_attendance_portion_for_percentage"`
	MinAttendancePortionForLate       float64 `koanf:"min_attendance_portion_for_late"`
	MinAttendancePortionForBuildswap  float64 `koanf:"min_attendance_portion_for_buildswap"`
	MinAttendancePercentageForAverage float64 `koanf:"min_attendance_percentage_for_average"`

	PortionOfTopForTotal      float64 `koanf:"portion_of_top_for_total"`
	PortionOfTopForConsistent float64 `koanf:"portion_of_top_for_consistent"`
	PortionOfTopForPercentage float64 `koanf:"portion_of_top_for_percentage"`

	MinFightDuration int `koanf:"min_fight_duration"`
	MinAlliedPlayers int `koanf:"min_allied_players"`
	MinEnemyPlayers  int `koanf:"min_enemy_players"`

	// RunningBackDistance is the average distance to the commander, in game
	// units, above which a player counts as running back for the whole fight.
	RunningBackDistance float64 `koanf:"running_back_distance"`

	DurationForAverages map[string]model.Clock `koanf:"duration_for_averages"`

	BuffsStackingDuration  []string `koanf:"buffs_stacking_duration"`
	BuffsStackingIntensity []string `koanf:"buffs_stacking_intensity"`
	BuffsNotStacking       []string `koanf:"buffs_not_stacking"`

	// SquadBuffNames and SelfBuffNames map buff long names to stat names.
	SquadBuffNames map[string]string `koanf:"squad_buff_names"`
	SelfBuffNames  map[string]string `koanf:"self_buff_names"`

	StatNames               map[string]string `koanf:"stat_names"`
	ProfessionAbbreviations map[string]string `koanf:"profession_abbreviations"`

	Buffs *BuffRegistry `koanf:"-" json:"-"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		StatsToCompute: []string{
			"dmg", "dmg_players", "strips", "cleanses", "heal", "barrier", "dist",
			"stab", "prot", "aegis", "regen", "might", "fury", "quick", "alac", "speed",
			"deaths", "kills", "downs", "dmg_taken", "stripped", "spike_dmg", "heal_from_regen",
		},
		NumPlayersListedDefault:        10,
		NumPlayersListed:               map[string]int{},
		NumPlayersConsideredTopDefault: 5,
		NumPlayersConsideredTop:        map[string]int{},

		MinAttendancePortionForPercentage: 0.5,
		MinAttendancePortionForLate:       0.25,
		MinAttendancePortionForBuildswap:  0.3,
		MinAttendancePercentageForAverage: 50,

		PortionOfTopForTotal:      0.5,
		PortionOfTopForConsistent: 0.5,
		PortionOfTopForPercentage: 0.5,

		MinFightDuration: 30,
		MinAlliedPlayers: 10,
		MinEnemyPlayers:  10,

		RunningBackDistance: 2000,

		DurationForAverages: map[string]model.Clock{},

		SquadBuffNames: map[string]string{
			"Stability":    "stab",
			"Protection":   "prot",
			"Aegis":        "aegis",
			"Regeneration": "regen",
			"Might":        "might",
			"Fury":         "fury",
			"Quickness":    "quick",
			"Alacrity":     "alac",
			"Superspeed":   "speed",
		},
		SelfBuffNames: map[string]string{
			"Explosive Entrance": "explosive_entrance",
			"Explosive Temper":   "explosive_temper",
			"Big Boomer":         "big_boomer",
			"Med Kit":            "med_kit",
		},
		StatNames: map[string]string{
			"dmg":                "Damage",
			"dmg_total":          "Damage",
			"dmg_players":        "Player Damage",
			"dmg_other":          "Other Damage",
			"strips":             "Boon Strips",
			"stripped":           "Incoming Strips",
			"cleanses":           "Condition Cleanses",
			"heal":               "Healing",
			"heal_players":       "Player Healing",
			"heal_other":         "Other Healing",
			"barrier":            "Barrier",
			"heal_from_regen":    "Healing from Regeneration",
			"hits_from_regen":    "Regeneration Hits",
			"dist":               "Distance to Tag",
			"deaths":             "Deaths",
			"kills":              "Kills",
			"downs":              "Downs",
			"downstate":          "Times Downed",
			"dmg_taken":          "Damage Taken",
			"dmg_taken_total":    "Damage Taken",
			"dmg_taken_absorbed": "Damage Absorbed",
			"dmg_taken_hp_lost":  "HP Lost",
			"spike_dmg":          "Spike Damage",
			"time_active":        "Time Active",
			"time_in_combat":     "Time in Combat",
			"stab":               "Stability",
			"prot":               "Protection",
			"aegis":              "Aegis",
			"regen":              "Regeneration",
			"might":              "Might",
			"fury":               "Fury",
			"quick":              "Quickness",
			"alac":               "Alacrity",
			"speed":              "Superspeed",
		},
		ProfessionAbbreviations: map[string]string{
			"Firebrand":    "FB",
			"Scrapper":     "Scrap",
			"Spellbreaker": "SpB",
			"Herald":       "Her",
			"Chronomancer": "Chrono",
			"Reaper":       "Reap",
			"Scourge":      "Scour",
			"Tempest":      "Temp",
			"Druid":        "Dru",
			"Willbender":   "WB",
			"Vindicator":   "Vin",
			"Harbinger":    "Harb",
			"Specter":      "Spec",
			"Catalyst":     "Cata",
		},
	}
}

// StatName returns the display name for stat.
func (c *Config) StatName(stat string) string {
	if n, ok := c.StatNames[stat]; ok {
		return n
	}
	return stat
}

// ProfessionShort returns the abbreviated profession name.
func (c *Config) ProfessionShort(prof string) string {
	if a, ok := c.ProfessionAbbreviations[prof]; ok {
		return a
	}
	return prof
}

// Listed returns how many players an award list shows for stat.
func (c *Config) Listed(stat string) int {
	if n, ok := c.NumPlayersListed[stat]; ok {
		return n
	}
	return c.NumPlayersListedDefault
}

// ConsideredTop returns the per-fight top-K size for stat.
func (c *Config) ConsideredTop(stat string) int {
	if n, ok := c.NumPlayersConsideredTop[stat]; ok {
		return n
	}
	return c.NumPlayersConsideredTopDefault
}

// Clock returns the presence clock that normalizes stat.
func (c *Config) Clock(stat string) model.Clock {
	if clk, ok := c.DurationForAverages[stat]; ok {
		return clk
	}
	return c.defaultClock(stat)
}

// Fingerprint returns a hash of every configured setting. Map keys are
// encoded sorted, so equal configurations hash equally. The learned buff
// registry is not part of it.
func (c *Config) Fingerprint() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(b)), nil
}
