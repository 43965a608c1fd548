// Package extract turns one encounter report into a Fight record and
// per-player stat readings.
package extract

import (
	"fmt"
	"strings"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// SquadPlayers returns the encounter's squad members in report order.
func SquadPlayers(log *model.Log) []*model.LogPlayer {
	out := make([]*model.LogPlayer, 0, len(log.Players))
	for i := range log.Players {
		if log.Players[i].NotInSquad {
			continue
		}
		out = append(out, &log.Players[i])
	}
	return out
}

// Fight builds the Fight record for one encounter and records the
// encounter's squad and self buff IDs in cfg.Buffs. Only a contradictory buff
// classification is returned as an error.
func Fight(log *model.Log, cfg *config.Config) (*model.Fight, error) {
	if err := cfg.Buffs.Learn(cfg, log.BuffMap); err != nil {
		return nil, err
	}

	f := &model.Fight{
		StartTime:                  log.TimeStartStd,
		EndTime:                    log.TimeEndStd,
		TotalStats:                 make(map[string]model.Value),
		AvgStats:                   make(map[string]float64),
		SquadComposition:           make(map[string]int),
		PlayersRunningHealingAddon: make(map[string]bool),
	}

	secs, err := ParseDuration(log.Duration)
	if err != nil {
		f.SkipReasons = append(f.SkipReasons, fmt.Sprintf("unreadable duration %q", log.Duration))
	}
	f.Duration = secs

	squad := SquadPlayers(log)
	f.Allies = len(squad)
	for _, p := range squad {
		f.SquadComposition[p.Profession]++
	}
	for _, t := range log.Targets {
		if !t.EnemyPlayer {
			continue
		}
		f.Enemies++
		if t.CombatReplayData != nil {
			f.Kills += len(t.CombatReplayData.Dead)
		}
	}

	if meta := log.CombatReplayMetaData; meta != nil {
		f.PollingRate = meta.PollingRate
		f.InchToPixel = meta.InchToPixel
	}
	for _, ext := range log.UsedExtensions {
		if !strings.Contains(ext.Name, "Healing") {
			continue
		}
		for _, name := range ext.RunningExtension {
			f.PlayersRunningHealingAddon[name] = true
		}
	}
	f.Commander, f.TagPositionsUntilDeath = commanderTrack(squad, f.PollingRate)

	// Every admission rule is checked so all reasons get reported.
	if f.Duration < cfg.MinFightDuration {
		f.SkipReasons = append(f.SkipReasons, fmt.Sprintf("duration %ds below minimum %ds", f.Duration, cfg.MinFightDuration))
	}
	if f.Allies < cfg.MinAlliedPlayers {
		f.SkipReasons = append(f.SkipReasons, fmt.Sprintf("%d allies below minimum %d", f.Allies, cfg.MinAlliedPlayers))
	}
	if f.Enemies < cfg.MinEnemyPlayers {
		f.SkipReasons = append(f.SkipReasons, fmt.Sprintf("%d enemies below minimum %d", f.Enemies, cfg.MinEnemyPlayers))
	}
	f.Skipped = len(f.SkipReasons) > 0
	return f, nil
}

// commanderTrack returns the tagged player's name and positions up to their
// first death. Zero or several tags yield no track.
func commanderTrack(squad []*model.LogPlayer, pollingRate int) (string, []model.Point) {
	var tag *model.LogPlayer
	for _, p := range squad {
		if !p.HasCommanderTag {
			continue
		}
		if tag != nil {
			return "", nil
		}
		tag = p
	}
	if tag == nil || tag.CombatReplayData == nil {
		return "", nil
	}

	positions := tag.CombatReplayData.Positions
	if dead := tag.CombatReplayData.Dead; len(dead) > 0 && pollingRate > 0 {
		if idx := int(dead[0][0]) / pollingRate; idx >= 0 && idx < len(positions) {
			positions = positions[:idx]
		}
	}
	track := make([]model.Point, len(positions))
	for i, pos := range positions {
		track[i] = model.Point{X: pos[0], Y: pos[1]}
	}
	return tag.Name, track
}
