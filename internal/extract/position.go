package extract

import (
	"math"

	"github.com/pable/go-topstats/internal/model"
)

// firstFatalDown returns the start (ms) of the earliest down that ended in a
// death, or fallback when the player never died from a down.
func firstFatalDown(rp *model.PlayerReplay, fallback float64) float64 {
	first := -1.0
	for _, death := range rp.Dead {
		for _, down := range rp.Down {
			if down[1] != death[0] {
				continue
			}
			if first < 0 || down[0] < first {
				first = down[0]
			}
		}
	}
	if first < 0 {
		return fallback
	}
	return first
}

// avgDistance is the mean distance between positions and tag over the first n
// samples, converted from replay pixels to game units. ok is false when the
// window holds no samples.
func avgDistance(positions [][2]float64, tag []model.Point, n int, inchToPixel float64) (dist float64, ok bool) {
	n = min(n, len(positions), len(tag))
	if n <= 0 {
		return 0, false
	}
	var sum float64
	for i := range n {
		sum += math.Hypot(positions[i][0]-tag[i].X, positions[i][1]-tag[i].Y)
	}
	return sum / float64(n) / inchToPixel, true
}
