package services

import (
	"math"

	"delivtrack/internal/domain"
	"delivtrack/internal/geo"
)

// SequenceStops orders the active stops with a greedy nearest-neighbor walk
// starting at start, then appends the terminal stops untouched.
//
// At every hop the closest remaining stop wins; ties go to the stop that came
// first in the input. It does not attempt global route optimization. Active
// stops get priorities 1..k in visiting order.
func SequenceStops(stops []domain.Stop, start domain.Coordinates) []domain.Stop {
	remaining := make([]domain.Stop, 0, len(stops))
	terminal := make([]domain.Stop, 0)
	for _, s := range stops {
		if s.Status.Active() {
			remaining = append(remaining, s)
		} else {
			terminal = append(terminal, s)
		}
	}

	ordered := make([]domain.Stop, 0, len(stops))
	current := start

	for len(remaining) > 0 {
		best := -1
		minDistance := math.Inf(1)

		// Select next stop by minimum great-circle distance (greedy step).
		for i, s := range remaining {
			d := geo.DistanceKm(current, s.Coordinates)
			if d < minDistance {
				minDistance = d
				best = i
			}
		}

		// NaN coordinates never compare smaller; keep input order for them.
		if best == -1 {
			best = 0
		}

		next := remaining[best]
		ordered = append(ordered, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		current = next.Coordinates
	}

	for i := range ordered {
		ordered[i].Priority = i + 1
	}

	return append(ordered, terminal...)
}
