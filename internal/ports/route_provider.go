package ports

import (
	"context"
	"time"

	"delivtrack/internal/domain"
)

// Routing status reported by a successful lookup. Anything else means the
// provider had no usable answer.
const RouteStatusOK = "OK"

// Driving-route lookup between two points.
type RouteRequest struct {
	Origin        domain.Coordinates
	Destination   domain.Coordinates
	DepartureTime time.Time
}

// A single leg as reported by the routing service.
// DurationInTrafficSeconds is nil when the service has no traffic model.
type RouteLeg struct {
	DistanceMeters           int
	DurationSeconds          int
	DurationInTrafficSeconds *int
}

type RouteResult struct {
	Status string
	Legs   []RouteLeg
}

// Contract for an external directions service. Implementations may be slow,
// rate limited or unavailable; callers treat every error as "no answer".
type RouteProvider interface {
	// Return a driving route between origin and destination.
	Route(ctx context.Context, req RouteRequest) (RouteResult, error)
}
