package aggregator

import (
	"fmt"

	"github.com/pable/go-topstats/internal/model"
)

type identity struct {
	name       string
	profession string
}

// Roster merges per-fight readings into Players. A Player is one
// (character, profession) pair; players sharing an account are build swaps.
// Fights must be opened and closed in encounter order.
type Roster struct {
	stats      []string
	numFights  int
	players    []*model.Player
	byIdentity map[identity]int
	byAccount  map[string][]int
}

// NewRoster returns an empty roster whose absent slots carry stats.
func NewRoster(stats []string) *Roster {
	return &Roster{
		stats:      stats,
		byIdentity: make(map[identity]int),
		byAccount:  make(map[string][]int),
	}
}

// StartFight opens the next fight and returns its index.
func (r *Roster) StartFight() int {
	r.numFights++
	return r.numFights - 1
}

// Add records slot as the current fight's reading for the given character,
// creating the Player on first sight.
func (r *Roster) Add(account, name, profession string, slot model.StatSlot) (int, error) {
	if r.numFights == 0 {
		return 0, &model.InvariantError{Op: "roster add", Msg: "no fight started"}
	}
	key := identity{name, profession}
	idx, ok := r.byIdentity[key]
	if !ok {
		idx = r.create(account, name, profession)
	}
	p := r.players[idx]
	if len(p.StatsPerFight) != r.numFights-1 {
		return 0, &model.InvariantError{
			Op:  "roster add",
			Msg: fmt.Sprintf("%s (%s) already recorded in fight %d", name, profession, r.numFights-1),
		}
	}
	p.StatsPerFight = append(p.StatsPerFight, slot)
	return idx, nil
}

func (r *Roster) create(account, name, profession string) int {
	p := model.NewPlayer(account, name, profession)
	for range r.numFights - 1 {
		p.StatsPerFight = append(p.StatsPerFight, model.AbsentSlot(r.stats))
	}
	idx := len(r.players)
	r.players = append(r.players, p)
	r.byIdentity[identity{name, profession}] = idx

	if others := r.byAccount[account]; len(others) > 0 {
		p.SwappedBuild = true
		for _, o := range others {
			r.players[o].SwappedBuild = true
		}
	}
	r.byAccount[account] = append(r.byAccount[account], idx)
	return idx
}

// EndFight backfills an absent slot for every player missing from the
// current fight.
func (r *Roster) EndFight() {
	for _, p := range r.players {
		if len(p.StatsPerFight) < r.numFights {
			p.StatsPerFight = append(p.StatsPerFight, model.AbsentSlot(r.stats))
		}
	}
}

// Players returns the players in first-seen order.
func (r *Roster) Players() []*model.Player { return r.players }

// NumFights returns how many fights have been opened.
func (r *Roster) NumFights() int { return r.numFights }

// Check verifies that every player has exactly one slot per fight.
func (r *Roster) Check() error {
	for _, p := range r.players {
		if len(p.StatsPerFight) != r.numFights {
			return &model.InvariantError{
				Op:  "roster",
				Msg: fmt.Sprintf("%s (%s) has %d fight slots, want %d", p.Name, p.Profession, len(p.StatsPerFight), r.numFights),
			}
		}
	}
	return nil
}
