// Package engine runs one batch of encounters through extraction, merging,
// aggregation and ranking, and assembles the report.
package engine

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pable/go-topstats/internal/aggregator"
	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/extract"
	"github.com/pable/go-topstats/internal/metrics"
	"github.com/pable/go-topstats/internal/model"
	"github.com/pable/go-topstats/internal/parser"
	"github.com/pable/go-topstats/internal/ranking"
	"github.com/pable/go-topstats/internal/report"
)

// ErrEmptyBatch is returned, together with an empty report, when no fight of
// the batch passed admission.
var ErrEmptyBatch = errors.New("no usable fights in batch")

// runNamespace scopes run IDs derived from input hashes.
var runNamespace = uuid.MustParse("6f1c2b8e-4d3a-4f57-9a0e-2b7c5d9e1f40")

// RunID returns the stable run ID for a batch input hash.
func RunID(inputHash string) string {
	return uuid.NewSHA1(runNamespace, []byte(inputHash)).String()
}

// InputHash keys a batch by its files, in order, and by the configuration
// it is ranked under.
func InputHash(cfg *config.Config, files []parser.File) (string, error) {
	fp, err := cfg.Fingerprint()
	if err != nil {
		return "", err
	}
	h := sha256.Sum256([]byte(parser.BatchHash(files) + fp))
	return fmt.Sprintf("%x", h), nil
}

// Run processes files in order. cfg must be resolved; its buff registry is
// reset for the batch. rec may be nil.
func Run(cfg *config.Config, files []parser.File, rec *metrics.Recorder) (*report.Report, error) {
	started := time.Now()
	cfg.Buffs = config.NewBuffRegistry(cfg.BuffsStackingIntensity, cfg.BuffsStackingDuration)

	roster := aggregator.NewRoster(cfg.StatsToCompute)
	fights := make([]*model.Fight, 0, len(files))
	var warnings []model.Warning

	for _, file := range files {
		f, err := extract.Fight(file.Log, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name(), err)
		}
		fi := roster.StartFight()
		fights = append(fights, f)
		rec.Fight(f.Skipped)

		if f.Skipped {
			log.Info("Skipping fight", "fight", fi, "file", file.Name(), "reasons", strings.Join(f.SkipReasons, "; "))
			roster.EndFight()
			continue
		}

		x := extract.NewExtractor(cfg, f, fi)
		for _, p := range extract.SquadPlayers(file.Log) {
			if _, err := roster.Add(p.Account, p.Name, p.Profession, x.Slot(p)); err != nil {
				return nil, fmt.Errorf("%s: %w", file.Name(), err)
			}
		}
		roster.EndFight()

		for _, w := range x.Warnings() {
			log.Warn("Unreadable stat", "fight", w.Fight, "player", w.Player, "stat", w.Stat, "reason", w.Reason)
			rec.Warning(w.Stat)
		}
		warnings = append(warnings, x.Warnings()...)
		log.Debug("Fight processed", "fight", fi, "file", file.Name(), "duration", f.Duration, "allies", f.Allies, "enemies", f.Enemies)
	}
	if err := roster.Check(); err != nil {
		return nil, err
	}

	players := roster.Players()
	aggregator.Aggregate(cfg, fights, players)
	ranking.Consistency(cfg, fights, players)
	awards, err := ranking.Rank(cfg, fights, players)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	hash, err := InputHash(cfg, files)
	if err != nil {
		return nil, err
	}
	r := report.Assemble(cfg, fights, players, awards, warnings)
	r.InputHash = hash
	r.ID = RunID(r.InputHash)
	r.Files = make([]string, len(files))
	for i, file := range files {
		r.Files[i] = file.Name()
	}

	rec.Players(len(players))
	rec.Finish(started, time.Now())
	log.Info("Batch processed",
		"fights", len(fights),
		"used", r.RaidStats.NumUsedFights,
		"players", len(players),
		"warnings", len(warnings),
		"elapsed", time.Since(started).Round(time.Millisecond))

	if r.RaidStats.NumUsedFights == 0 {
		return r, ErrEmptyBatch
	}
	return r, nil
}
