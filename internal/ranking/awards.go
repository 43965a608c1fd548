package ranking

import (
	"fmt"

	"github.com/pable/go-topstats/internal/config"
	"github.com/pable/go-topstats/internal/model"
)

// Awards holds every leaderboard of a batch, keyed by stat. Lists hold
// player indices, best first.
type Awards struct {
	Total           map[string][]int   `json:"top_total_players"`
	Consistent      map[string][]int   `json:"top_consistent_players"`
	Average         map[string][]int   `json:"top_average_players"`
	Percentage      map[string][]int   `json:"top_percentage_players"`
	Late            map[string][]int   `json:"top_late_players"`
	JackOfAllTrades map[string][]int   `json:"top_jack_of_all_trades_players"`
	PercentageBar   map[string]float64 `json:"percentage_comparison_values"`
}

// Rank builds all award lists. Consistency must already have been counted.
func Rank(cfg *config.Config, fights []*model.Fight, players []*model.Player) (*Awards, error) {
	a := &Awards{
		Total:           make(map[string][]int),
		Consistent:      make(map[string][]int),
		Average:         make(map[string][]int),
		Percentage:      make(map[string][]int),
		Late:            make(map[string][]int),
		JackOfAllTrades: make(map[string][]int),
		PercentageBar:   make(map[string]float64),
	}
	used := 0
	for _, f := range fights {
		if !f.Skipped {
			used++
		}
	}

	r := ranker{cfg: cfg, players: players, usedFights: used}
	for _, stat := range cfg.RankedStats() {
		var err error
		if a.Total[stat], err = r.total(stat); err != nil {
			return nil, fmt.Errorf("total %s: %w", stat, err)
		}
		if a.Consistent[stat], err = r.consistent(stat); err != nil {
			return nil, fmt.Errorf("consistent %s: %w", stat, err)
		}
		if a.Average[stat], err = r.average(stat); err != nil {
			return nil, fmt.Errorf("average %s: %w", stat, err)
		}
		var bar float64
		if a.Percentage[stat], bar, err = r.percentage(stat); err != nil {
			return nil, fmt.Errorf("percentage %s: %w", stat, err)
		}
		a.PercentageBar[stat] = bar
		if a.Late[stat], err = r.late(stat, bar); err != nil {
			return nil, fmt.Errorf("late %s: %w", stat, err)
		}
		if a.JackOfAllTrades[stat], err = r.jackOfAllTrades(stat, bar); err != nil {
			return nil, fmt.Errorf("jack of all trades %s: %w", stat, err)
		}
	}
	return a, nil
}

type ranker struct {
	cfg        *config.Config
	players    []*model.Player
	usedFights int
}

// sign orients a stat so larger is better.
func sign(stat string) float64 {
	if config.LowIsGood(stat) {
		return -1
	}
	return 1
}

// attending returns the players present in at least one used fight.
func (r *ranker) attending() []int {
	var out []int
	for i, p := range r.players {
		if p.NumFightsPresent > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (r *ranker) total(stat string) ([]int, error) {
	gated := !config.LowIsGood(stat) && !r.cfg.Class(stat).IsSquadBuff()
	var top float64
	for _, i := range r.attending() {
		top = max(top, r.players[i].Total(stat).Amount)
	}

	var cands []candidate
	for _, i := range r.attending() {
		v := r.players[i].Total(stat).Amount
		if gated && (v <= 0 || v < r.cfg.PortionOfTopForTotal*top) {
			continue
		}
		if stat == "dist" && v <= 0 {
			continue
		}
		cands = append(cands, candidate{i, []float64{sign(stat) * v}})
	}
	return rank(cands, r.cfg.Listed(stat))
}

func (r *ranker) consistent(stat string) ([]int, error) {
	var top int
	for _, i := range r.attending() {
		top = max(top, r.players[i].ConsistencyStats[stat])
	}

	var cands []candidate
	for _, i := range r.attending() {
		p := r.players[i]
		c := p.ConsistencyStats[stat]
		if c <= 0 || float64(c) < r.cfg.PortionOfTopForConsistent*float64(top) {
			continue
		}
		cands = append(cands, candidate{i, []float64{float64(c), sign(stat) * p.Total(stat).Amount}})
	}
	return rank(cands, r.cfg.Listed(stat))
}

func (r *ranker) average(stat string) ([]int, error) {
	var cands []candidate
	for _, i := range r.attending() {
		p := r.players[i]
		if p.AttendancePercentage < r.cfg.MinAttendancePercentageForAverage {
			continue
		}
		// A zero distance only comes from the commander.
		if stat == "dist" && p.AverageStats[stat] <= 0 {
			continue
		}
		cands = append(cands, candidate{i, []float64{
			sign(stat) * p.AverageStats[stat],
			float64(p.ConsistencyStats[stat]),
			sign(stat) * p.Total(stat).Amount,
		}})
	}
	return rank(cands, r.cfg.Listed(stat))
}

func (r *ranker) percentageKeys(p *model.Player, stat string) []float64 {
	return []float64{
		p.PortionTopStats[stat],
		float64(p.ConsistencyStats[stat]),
		sign(stat) * p.Total(stat).Amount,
	}
}

// percentage ranks players attending enough fights by the portion of fights
// they placed top. It also returns the portion a player needs to be listed.
func (r *ranker) percentage(stat string) ([]int, float64, error) {
	minFights := r.cfg.MinAttendancePortionForPercentage * float64(r.usedFights)
	var best float64
	for _, i := range r.attending() {
		p := r.players[i]
		if float64(p.NumFightsPresent) >= minFights {
			best = max(best, p.PortionTopStats[stat])
		}
	}
	bar := r.cfg.PortionOfTopForPercentage * best

	var cands []candidate
	for _, i := range r.attending() {
		p := r.players[i]
		pt := p.PortionTopStats[stat]
		if float64(p.NumFightsPresent) < minFights || pt <= 0 || pt < bar {
			continue
		}
		cands = append(cands, candidate{i, r.percentageKeys(p, stat)})
	}
	list, err := rank(cands, r.cfg.Listed(stat))
	return list, bar, err
}

// late lists players who joined for only part of the raid but placed top as
// often as the percentage award requires.
func (r *ranker) late(stat string, bar float64) ([]int, error) {
	lo := r.cfg.MinAttendancePortionForLate * float64(r.usedFights)
	hi := r.cfg.MinAttendancePortionForPercentage * float64(r.usedFights)

	var cands []candidate
	for _, i := range r.attending() {
		p := r.players[i]
		n := float64(p.NumFightsPresent)
		pt := p.PortionTopStats[stat]
		if n < lo || n >= hi || pt <= 0 || pt < bar {
			continue
		}
		cands = append(cands, candidate{i, r.percentageKeys(p, stat)})
	}
	return rank(cands, r.cfg.Listed(stat))
}

// jackOfAllTrades lists build swappers who placed top as often as the
// percentage award requires.
func (r *ranker) jackOfAllTrades(stat string, bar float64) ([]int, error) {
	minFights := r.cfg.MinAttendancePortionForBuildswap * float64(r.usedFights)

	var cands []candidate
	for _, i := range r.attending() {
		p := r.players[i]
		pt := p.PortionTopStats[stat]
		if !p.SwappedBuild || float64(p.NumFightsPresent) < minFights || pt <= 0 || pt < bar {
			continue
		}
		cands = append(cands, candidate{i, r.percentageKeys(p, stat)})
	}
	return rank(cands, r.cfg.Listed(stat))
}
