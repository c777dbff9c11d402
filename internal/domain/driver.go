package domain

import "time"

// Last known GPS fix of the driver. Speed is km/h.
type DriverLocation struct {
	Coordinates
	Heading     float64   `json:"heading"`
	Speed       float64   `json:"speed"`
	LastUpdated time.Time `json:"last_updated"`
}
