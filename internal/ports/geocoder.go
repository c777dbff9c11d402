package ports

import (
	"context"

	"delivtrack/internal/domain"
)

// Resolves a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
