package model

// ---- Elite Insights encounter schema (only the fields the engine reads) ----

// Log is one parsed encounter report.
type Log struct {
	Duration             string              `json:"duration"`
	TimeStartStd         string              `json:"timeStartStd"`
	TimeEndStd           string              `json:"timeEndStd"`
	Players              []LogPlayer         `json:"players"`
	Targets              []LogTarget         `json:"targets"`
	CombatReplayMetaData *ReplayMeta         `json:"combatReplayMetaData"`
	UsedExtensions       []Extension         `json:"usedExtensions"`
	BuffMap              map[string]BuffInfo `json:"buffMap"`
}

type ReplayMeta struct {
	PollingRate int     `json:"pollingRate"`
	InchToPixel float64 `json:"inchToPixel"`
}

// Extension is an arcdps addon that was loaded by some squad members.
type Extension struct {
	Name             string   `json:"name"`
	RunningExtension []string `json:"runningExtension"`
}

type BuffInfo struct {
	Name     string `json:"name"`
	Stacking bool   `json:"stacking"`
}

type LogTarget struct {
	Name             string        `json:"name"`
	EnemyPlayer      bool          `json:"enemyPlayer"`
	CombatReplayData *TargetReplay `json:"combatReplayData"`
}

type TargetReplay struct {
	Dead [][2]float64 `json:"dead"`
}

// LogPlayer is one squad (or non-squad) member in an encounter.
type LogPlayer struct {
	Account         string `json:"account"`
	Name            string `json:"name"`
	Profession      string `json:"profession"`
	Group           int    `json:"group"`
	NotInSquad      bool   `json:"notInSquad"`
	HasCommanderTag bool   `json:"hasCommanderTag"`

	ActiveTimes    []float64       `json:"activeTimes"`
	HealthPercents [][2]float64    `json:"healthPercents"` // [time_ms, percent]
	PowerDamage1S  [][]float64     `json:"powerDamage1S"`
	Damage1S       [][]float64     `json:"damage1S"`
	TargetDamage1S [][][]float64   `json:"targetDamage1S"` // [target][phase][second]
	DpsAll         []DPSStats      `json:"dpsAll"`
	Defenses       []DefenseStats  `json:"defenses"`
	Support        []SupportStats  `json:"support"`
	StatsAll       []GameplayStats `json:"statsAll"`

	CombatReplayData *PlayerReplay `json:"combatReplayData"`

	SquadBuffs  []BuffUptime `json:"squadBuffs"`
	SelfBuffs   []BuffUptime `json:"selfBuffs"`
	BuffUptimes []BuffUptime `json:"buffUptimes"`

	ExtHealingStats *HealingStats `json:"extHealingStats"`
	ExtBarrierStats *BarrierStats `json:"extBarrierStats"`
}

type DPSStats struct {
	Damage float64 `json:"damage"`
}

type DefenseStats struct {
	DamageTaken   float64 `json:"damageTaken"`
	DamageBarrier float64 `json:"damageBarrier"`
	DeadCount     int     `json:"deadCount"`
	DownCount     int     `json:"downCount"`
	BoonStrips    int     `json:"boonStrips"`
}

type SupportStats struct {
	CondiCleanse int `json:"condiCleanse"`
	BoonStrips   int `json:"boonStrips"`
}

type GameplayStats struct {
	DistToCom float64 `json:"distToCom"`
	Killed    int     `json:"killed"`
	Downed    int     `json:"downed"`
}

// PlayerReplay holds the positional track and the [start, end] ms spans of
// every down and death.
type PlayerReplay struct {
	Positions [][2]float64 `json:"positions"`
	Dead      [][2]float64 `json:"dead"`
	Down      [][2]float64 `json:"down"`
}

type BuffUptime struct {
	ID       int64      `json:"id"`
	BuffData []BuffData `json:"buffData"`
}

type BuffData struct {
	Uptime     float64 `json:"uptime"`
	Generation float64 `json:"generation"`
}

type HealingStats struct {
	OutgoingHealing       []HealingAmount   `json:"outgoingHealing"`
	OutgoingHealingAllies [][]HealingAmount `json:"outgoingHealingAllies"`
	TotalHealingDist      [][]HealingDist   `json:"totalHealingDist"`
}

type HealingAmount struct {
	Healing float64 `json:"healing"`
}

type HealingDist struct {
	ID           int64   `json:"id"`
	TotalHealing float64 `json:"totalHealing"`
	Hits         int     `json:"hits"`
}

type BarrierStats struct {
	OutgoingBarrier []BarrierAmount `json:"outgoingBarrier"`
}

type BarrierAmount struct {
	Barrier float64 `json:"barrier"`
}
