package metrics

import "math"

// MaintainabilityIndex implements the classic SEI formula
// MI = 171 - 5.2*ln(V) - 0.23*CC - 16.2*ln(LOC), rescaled to the
// conventional 0-100 range and clamped there (spec.md §2's "MI" metric).
// volume and linesOfCode are floored at 1 so a trivial function (no
// operators, one line) doesn't send either log argument to -Inf.
func MaintainabilityIndex(volume float64, cyclomatic int, linesOfCode int) float64 {
	v := math.Max(volume, 1)
	loc := math.Max(float64(linesOfCode), 1)

	raw := 171 - 5.2*math.Log(v) - 0.23*float64(cyclomatic) - 16.2*math.Log(loc)
	scaled := raw * 100 / 171

	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return scaled
}
