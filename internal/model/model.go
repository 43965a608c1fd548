package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Clock names one notion of "time present in a fight".
type Clock string

const (
	ClockTotal          Clock = "total"
	ClockActive         Clock = "active"
	ClockInCombat       Clock = "in_combat"
	ClockNotRunningBack Clock = "not_running_back"
)

// Clocks lists every presence clock in a fixed order.
var Clocks = []Clock{ClockTotal, ClockActive, ClockInCombat, ClockNotRunningBack}

// Valid reports whether c is one of the known clocks.
func (c Clock) Valid() bool {
	switch c {
	case ClockTotal, ClockActive, ClockInCombat, ClockNotRunningBack:
		return true
	}
	return false
}

// Durations holds one number of seconds per presence clock. Inside a
// StatSlot a negative component means the clock could not be measured.
type Durations struct {
	Total          float64 `json:"total"`
	Active         float64 `json:"active"`
	InCombat       float64 `json:"in_combat"`
	NotRunningBack float64 `json:"not_running_back"`
}

// Get returns the seconds recorded for c.
func (d Durations) Get(c Clock) float64 {
	switch c {
	case ClockTotal:
		return d.Total
	case ClockActive:
		return d.Active
	case ClockInCombat:
		return d.InCombat
	case ClockNotRunningBack:
		return d.NotRunningBack
	}
	return 0
}

// AddScaled adds o×factor to d, ignoring unmeasured (negative) components of o.
func (d *Durations) AddScaled(o Durations, factor float64) {
	d.Total += max(o.Total, 0) * factor
	d.Active += max(o.Active, 0) * factor
	d.InCombat += max(o.InCombat, 0) * factor
	d.NotRunningBack += max(o.NotRunningBack, 0) * factor
}

// ---- Per-encounter records ----

// Point is a 2D position in combat replay pixels.
type Point struct{ X, Y float64 }

// Fight is one encounter after extraction and aggregation.
type Fight struct {
	Skipped     bool     `json:"skipped"`
	SkipReasons []string `json:"skip_reasons,omitempty"`
	Duration    int      `json:"duration"`
	Allies      int      `json:"allies"`
	Enemies     int      `json:"enemies"`
	Kills       int      `json:"kills"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Commander   string   `json:"commander,omitempty"`

	TotalStats       map[string]Value   `json:"total_stats"`
	AvgStats         map[string]float64 `json:"avg_stats"`
	SquadComposition map[string]int     `json:"squad_composition"`

	TagPositionsUntilDeath     []Point         `json:"tag_positions_until_death"`
	PollingRate                int             `json:"polling_rate"`
	InchToPixel                float64         `json:"inch_to_pixel"`
	PlayersRunningHealingAddon map[string]bool `json:"players_running_healing_addon"`
}

// RunsHealingAddon reports whether name's healing telemetry was recorded.
func (f *Fight) RunsHealingAddon(name string) bool {
	return f.PlayersRunningHealingAddon[name]
}

// StatSlot holds one player's readings for one fight.
type StatSlot struct {
	PresentInFight  bool             `json:"present_in_fight"`
	Group           int              `json:"group"`
	DurationPresent Durations        `json:"duration_present"`
	Stats           map[string]Value `json:"stats"`
}

// AbsentSlot returns the slot used for fights a player did not take part in.
func AbsentSlot(stats []string) StatSlot {
	s := StatSlot{Stats: make(map[string]Value, len(stats))}
	for _, name := range stats {
		s.Stats[name] = Unavailable()
	}
	return s
}

// ---- Aggregated per-player record ----

// Player is one (character, profession) identity across the batch.
type Player struct {
	Account              string  `json:"account"`
	Name                 string  `json:"name"`
	Profession           string  `json:"profession"`
	NumFightsPresent     int     `json:"num_fights_present"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	SwappedBuild         bool    `json:"swapped_build"`

	DurationPresent         Durations `json:"duration_present"`
	NormalizationTimeAllies Durations `json:"normalization_time_allies"`

	StatsPerFight    []StatSlot         `json:"stats_per_fight"`
	TotalStats       map[string]Value   `json:"total_stats"`
	AverageStats     map[string]float64 `json:"average_stats"`
	ConsistencyStats map[string]int     `json:"consistency_stats"`
	PortionTopStats  map[string]float64 `json:"portion_top_stats"`
}

// NewPlayer returns a Player with empty stat maps.
func NewPlayer(account, name, profession string) *Player {
	return &Player{
		Account:          account,
		Name:             name,
		Profession:       profession,
		TotalStats:       make(map[string]Value),
		AverageStats:     make(map[string]float64),
		ConsistencyStats: make(map[string]int),
		PortionTopStats:  make(map[string]float64),
	}
}

// Total returns the player's total for stat, or an unavailable Value.
func (p *Player) Total(stat string) Value {
	return p.TotalStats[stat]
}

// ---- Diagnostics ----

// Warning records a stat that could not be read for one player in one fight.
type Warning struct {
	Fight  int    `json:"fight"`
	Player string `json:"player"`
	Stat   string `json:"stat"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("fight %d, %s, %s: %s", w.Fight, w.Player, w.Stat, w.Reason)
}

// InvariantError reports an internal contradiction that aborts the batch.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Msg)
}

// ---- Stored run records ----

// RunSummary is a lightweight record for list/show commands.
type RunSummary struct {
	ID               string
	InputHash        string
	CreatedAt        string
	RaidDate         string
	StartTime        string
	EndTime          string
	NumUsedFights    int
	NumSkippedFights int
	UsedDuration     int
	TotalKills       int
	NumPlayers       int
}

// PlayerRunRecord is one identity's result in one stored run.
type PlayerRunRecord struct {
	RunID                string
	RaidDate             string
	Account              string
	Name                 string
	Profession           string
	NumFightsPresent     int
	AttendancePercentage float64
	SwappedBuild         bool
	Awards               int
}

// TrendPoint is one stored run's figures for an account and stat.
type TrendPoint struct {
	RunID       string
	RaidDate    string
	Name        string
	Profession  string
	Total       float64
	Average     float64
	Consistency int
	PortionTop  float64
}

// StoreOverview summarizes everything in the store.
type StoreOverview struct {
	TotalRuns      int
	TotalFights    int
	SkippedFights  int
	UniqueAccounts int
	EarliestRaid   string
	LatestRaid     string
}

// MarshalJSON keeps Point compact in reports.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}
