package ranking

import (
	"fmt"
	"math"
	"slices"

	"github.com/pable/go-topstats/internal/model"
)

// candidate is one player with its sort key, oriented so larger is better.
type candidate struct {
	idx  int
	keys []float64
}

// compareKeys orders candidates best first, breaking full ties by player
// index.
func compareKeys(a, b candidate) int {
	for i := range a.keys {
		switch {
		case a.keys[i] > b.keys[i]:
			return -1
		case a.keys[i] < b.keys[i]:
			return 1
		}
	}
	return a.idx - b.idx
}

// rank sorts cands and applies the tie-aware cut: listing stops once at
// least listed players are in and the next key differs from the last one.
func rank(cands []candidate, listed int) ([]int, error) {
	for _, c := range cands {
		for _, k := range c.keys {
			if math.IsNaN(k) {
				return nil, &model.InvariantError{Op: "ranking", Msg: fmt.Sprintf("player %d has an unordered sort key", c.idx)}
			}
		}
	}
	slices.SortStableFunc(cands, compareKeys)

	out := make([]int, 0, min(listed, len(cands)))
	for i, c := range cands {
		if i >= listed && (i == 0 || !slices.Equal(c.keys, cands[i-1].keys)) {
			break
		}
		out = append(out, c.idx)
	}
	return out, nil
}
