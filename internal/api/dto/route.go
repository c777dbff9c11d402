package dto

import (
	"time"

	"delivtrack/internal/domain"
)

type EndLocationRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type ConfigRequest struct {
	EndLocation *EndLocationRequest `json:"end_location"`
	WorkEndTime string              `json:"work_end_time"`
}

func (r ConfigRequest) RouteConfig() domain.RouteConfig {
	cfg := domain.RouteConfig{WorkEndTime: r.WorkEndTime}
	if r.EndLocation != nil {
		cfg.EndLocation = &domain.EndLocation{
			Coordinates: domain.Coordinates{Lat: r.EndLocation.Lat, Lng: r.EndLocation.Lng},
			Address:     r.EndLocation.Address,
		}
	}
	return cfg
}

// DriverLocationRequest is a GPS fix. Speed is meters per second.
type DriverLocationRequest struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Heading   *float64   `json:"heading"`
	Speed     *float64   `json:"speed"`
	Timestamp *time.Time `json:"timestamp"`
}

type PlaceRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type ListPlacesResponse struct {
	Places []domain.SavedPlace `json:"places"`
}
