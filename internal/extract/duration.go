package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration converts a human duration such as "1h 02m 03s 456ms" into
// whole seconds. Any component may be missing; milliseconds are dropped.
func ParseDuration(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty duration")
	}
	secs := 0
	for _, f := range fields {
		var unit string
		var mult int
		switch {
		case strings.HasSuffix(f, "ms"):
			unit, mult = "ms", 0
		case strings.HasSuffix(f, "h"):
			unit, mult = "h", 3600
		case strings.HasSuffix(f, "m"):
			unit, mult = "m", 60
		case strings.HasSuffix(f, "s"):
			unit, mult = "s", 1
		default:
			return 0, fmt.Errorf("duration component %q has no unit", f)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(f, unit))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration component %q: not a count", f)
		}
		secs += n * mult
	}
	return secs, nil
}
