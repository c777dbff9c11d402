package domain

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// Validate rejects NaN and out-of-range values. The geo math itself never
// validates; callers at the edge of the system do.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinates, c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v out of range", ErrInvalidCoordinates, c.Lat, c.Lng)
	}
	return nil
}

// Key renders the coordinates with a fixed precision (~1m) for cache keys.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

func (c Coordinates) String() string { return c.Key() }
