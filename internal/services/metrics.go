package services

import (
	"math"
	"slices"

	"delivtrack/internal/domain"
	"delivtrack/internal/geo"
)

// Minutes per km on the return-to-depot leg, a coarser end-of-shift model.
const returnLegMinutesPerKm = 3

// AggregateMetrics totals the legs of the ordered active stops. Missing leg
// estimates count as zero. When end is set and there is at least one stop, a
// great-circle return leg from the last stop to end is added.
func AggregateMetrics(ordered []domain.Stop, end *domain.Coordinates) domain.RouteMetrics {
	var totalDistance float64
	var totalTime float64
	sequence := make([]string, 0, len(ordered))

	for _, s := range ordered {
		if s.DistanceFromPrevious != nil {
			totalDistance += *s.DistanceFromPrevious
		}
		if s.EstimatedTime != nil {
			totalTime += float64(*s.EstimatedTime)
		}
		sequence = append(sequence, s.ID)
	}

	if end != nil && len(ordered) > 0 {
		last := ordered[len(ordered)-1]
		back := geo.DistanceKm(last.Coordinates, *end)
		totalDistance += back
		totalTime += math.Ceil(back * returnLegMinutesPerKm)
	}

	return domain.RouteMetrics{
		TotalDistance: geo.RoundKm(totalDistance),
		TotalTime:     int(math.Round(totalTime)),
		Sequence:      sequence,
	}
}

// ActiveInOrder returns the active stops sorted by priority. The sort is
// stable so stops that were never sequenced keep their input order.
func ActiveInOrder(stops []domain.Stop) []domain.Stop {
	active := make([]domain.Stop, 0, len(stops))
	for _, s := range stops {
		if s.Status.Active() {
			active = append(active, s)
		}
	}
	slices.SortStableFunc(active, func(a, b domain.Stop) int {
		return a.Priority - b.Priority
	})
	return active
}

// RouteMetricsFor computes metrics for a full stop collection.
func RouteMetricsFor(stops []domain.Stop, cfg domain.RouteConfig) domain.RouteMetrics {
	var end *domain.Coordinates
	if cfg.EndLocation != nil {
		c := cfg.EndLocation.Coordinates
		end = &c
	}
	return AggregateMetrics(ActiveInOrder(stops), end)
}
