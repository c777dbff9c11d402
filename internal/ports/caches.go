package ports

import (
	"context"

	"delivtrack/internal/domain"
)

// Cache of routing-service legs keyed by origin and destination.
type LegCache interface {
	// Return the cached leg and whether it was found.
	Get(ctx context.Context, origin, destination domain.Coordinates) (RouteLeg, bool, error)
	Put(ctx context.Context, origin, destination domain.Coordinates, leg RouteLeg) error
}

// Cache of address -> coordinates lookups.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
