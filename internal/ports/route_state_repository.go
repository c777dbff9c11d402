package ports

import (
	"context"

	"delivtrack/internal/domain"
)

// Everything the delivery store needs to survive a restart.
type RouteState struct {
	Stops       []domain.Stop
	Driver      *domain.DriverLocation
	Config      domain.RouteConfig
	SavedPlaces []domain.SavedPlace
}

// Port: a boundary for loading and saving the driver's working set.
type RouteStateRepository interface {
	// Load the last saved state. A fresh database yields an empty state.
	Load(ctx context.Context) (RouteState, error)
	// Replace the saved state with s.
	Save(ctx context.Context, s RouteState) error
}
