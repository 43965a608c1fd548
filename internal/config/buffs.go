package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pable/go-topstats/internal/model"
)

// BuffRegistry holds the buff game IDs and stacking kinds learned from
// encounter buff maps. A registry is owned by one batch.
type BuffRegistry struct {
	SquadBuffIDs map[string]int64
	SelfBuffIDs  map[string]int64

	intensity map[string]bool
	duration  map[string]bool
}

// NewBuffRegistry returns a registry seeded with configured stacking kinds.
func NewBuffRegistry(intensity, duration []string) *BuffRegistry {
	r := &BuffRegistry{
		SquadBuffIDs: make(map[string]int64),
		SelfBuffIDs:  make(map[string]int64),
		intensity:    make(map[string]bool),
		duration:     make(map[string]bool),
	}
	for _, b := range intensity {
		r.intensity[b] = true
	}
	for _, b := range duration {
		r.duration[b] = true
	}
	return r
}

func (r *BuffRegistry) IsIntensity(stat string) bool { return r.intensity[stat] }
func (r *BuffRegistry) IsDuration(stat string) bool  { return r.duration[stat] }

// Learn records every recognized buff of one encounter's buff map. Keys look
// like "b740"; a buff that switches stacking kind between encounters is an
// invariant violation.
func (r *BuffRegistry) Learn(cfg *Config, buffMap map[string]model.BuffInfo) error {
	for _, key := range slices.Sorted(maps.Keys(buffMap)) {
		info := buffMap[key]
		id, err := strconv.ParseInt(strings.TrimPrefix(key, "b"), 10, 64)
		if err != nil {
			continue
		}
		if abbrev, ok := cfg.SquadBuffNames[info.Name]; ok {
			r.SquadBuffIDs[abbrev] = id
			if err := r.classify(abbrev, info.Stacking); err != nil {
				return err
			}
		}
		if abbrev, ok := cfg.SelfBuffNames[info.Name]; ok {
			r.SelfBuffIDs[abbrev] = id
		}
	}
	return nil
}

func (r *BuffRegistry) classify(abbrev string, stacking bool) error {
	if stacking {
		if r.duration[abbrev] {
			return &model.InvariantError{Op: "buff classification", Msg: fmt.Sprintf("%s seen as both stacking duration and intensity", abbrev)}
		}
		r.intensity[abbrev] = true
		return nil
	}
	if r.intensity[abbrev] {
		return &model.InvariantError{Op: "buff classification", Msg: fmt.Sprintf("%s seen as both stacking intensity and duration", abbrev)}
	}
	r.duration[abbrev] = true
	return nil
}
