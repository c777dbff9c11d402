package domain

import "errors"

var ErrPlaceNotFound = errors.New("saved place not found")

// A favorite address the driver can reuse when adding stops.
type SavedPlace struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}
