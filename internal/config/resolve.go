package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pable/go-topstats/internal/model"
)

// Resolve validates c and completes it in place: it deduplicates the stat
// list, fills per-stat listing sizes and presence clocks, and creates the
// buff registry. It returns every problem found, joined.
func (c *Config) Resolve() error {
	var errs []error

	seen := make(map[string]bool, len(c.StatsToCompute))
	stats := make([]string, 0, len(c.StatsToCompute))
	for _, s := range c.StatsToCompute {
		if seen[s] {
			continue
		}
		seen[s] = true
		if !c.IsKnownStat(s) {
			errs = append(errs, fmt.Errorf("unknown stat %q in stats_to_compute", s))
			continue
		}
		stats = append(stats, s)
	}
	// The regen heal average divides by regen hits, so both are extracted.
	if seen["heal_from_regen"] && !seen["hits_from_regen"] {
		stats = append(stats, "hits_from_regen")
	}
	c.StatsToCompute = stats

	portions := []struct {
		name string
		v    float64
	}{
		{"min_attendance_portion_for_percentage", c.MinAttendancePortionForPercentage},
		{"min_attendance_portion_for_late", c.MinAttendancePortionForLate},
		{"min_attendance_portion_for_buildswap", c.MinAttendancePortionForBuildswap},
		{"portion_of_top_for_total", c.PortionOfTopForTotal},
		{"portion_of_top_for_consistent", c.PortionOfTopForConsistent},
		{"portion_of_top_for_percentage", c.PortionOfTopForPercentage},
	}
	for _, p := range portions {
		if p.v < 0 || p.v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", p.name, p.v))
		}
	}
	if c.MinAttendancePortionForLate > c.MinAttendancePortionForPercentage {
		errs = append(errs, fmt.Errorf("min_attendance_portion_for_late (%v) exceeds min_attendance_portion_for_percentage (%v)",
			c.MinAttendancePortionForLate, c.MinAttendancePortionForPercentage))
	}
	if c.MinAttendancePercentageForAverage < 0 || c.MinAttendancePercentageForAverage > 100 {
		errs = append(errs, fmt.Errorf("min_attendance_percentage_for_average must be within [0, 100], got %v", c.MinAttendancePercentageForAverage))
	}
	if c.MinFightDuration < 0 || c.MinAlliedPlayers < 0 || c.MinEnemyPlayers < 0 {
		errs = append(errs, errors.New("fight admission thresholds must not be negative"))
	}
	if c.NumPlayersListedDefault <= 0 || c.NumPlayersConsideredTopDefault <= 0 {
		errs = append(errs, errors.New("num_players_listed_default and num_players_considered_top_default must be positive"))
	}
	if c.RunningBackDistance <= 0 {
		errs = append(errs, fmt.Errorf("running_back_distance must be positive, got %v", c.RunningBackDistance))
	}

	for _, b := range c.BuffsNotStacking {
		if slices.Contains(c.BuffsStackingDuration, b) || slices.Contains(c.BuffsStackingIntensity, b) {
			errs = append(errs, fmt.Errorf("buff %q is configured as not stacking and as stacking", b))
		}
	}
	for _, b := range c.BuffsStackingDuration {
		if slices.Contains(c.BuffsStackingIntensity, b) {
			errs = append(errs, fmt.Errorf("buff %q is configured as stacking duration and stacking intensity", b))
		}
	}

	if c.NumPlayersListed == nil {
		c.NumPlayersListed = make(map[string]int)
	}
	if c.NumPlayersConsideredTop == nil {
		c.NumPlayersConsideredTop = make(map[string]int)
	}
	if c.DurationForAverages == nil {
		c.DurationForAverages = make(map[string]model.Clock)
	}
	for stat, clk := range c.DurationForAverages {
		if !clk.Valid() {
			errs = append(errs, fmt.Errorf("duration_for_averages[%s]: unknown presence clock %q", stat, clk))
		}
	}
	for _, sizes := range []struct {
		name string
		m    map[string]int
	}{
		{"num_players_listed", c.NumPlayersListed},
		{"num_players_considered_top", c.NumPlayersConsideredTop},
	} {
		for _, stat := range slices.Sorted(maps.Keys(sizes.m)) {
			if n := sizes.m[stat]; n <= 0 {
				errs = append(errs, fmt.Errorf("%s[%s] must be positive, got %d", sizes.name, stat, n))
			}
		}
	}
	for _, s := range c.StatsToCompute {
		if _, ok := c.NumPlayersListed[s]; !ok {
			c.NumPlayersListed[s] = c.NumPlayersListedDefault
		}
		if _, ok := c.NumPlayersConsideredTop[s]; !ok {
			c.NumPlayersConsideredTop[s] = c.NumPlayersConsideredTopDefault
		}
		if _, ok := c.DurationForAverages[s]; !ok {
			c.DurationForAverages[s] = c.defaultClock(s)
		}
	}

	if c.Buffs == nil {
		c.Buffs = NewBuffRegistry(c.BuffsStackingIntensity, c.BuffsStackingDuration)
	}
	return errors.Join(errs...)
}
