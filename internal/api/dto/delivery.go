package dto

import (
	"fmt"

	"delivtrack/internal/domain"
	"delivtrack/internal/services"
)

// DeliveryRequest describes a stop to preview or add. Position comes from
// lat/lng, then place_id, then the address.
type DeliveryRequest struct {
	Address      string   `json:"address"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone"`
	Notes        string   `json:"notes"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	PlaceID      string   `json:"place_id"`
	Confirm      bool     `json:"confirm"`
}

// Draft converts the request. lat and lng must be sent together.
func (r DeliveryRequest) Draft() (domain.Draft, error) {
	d := domain.Draft{
		Address:      r.Address,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		Notes:        r.Notes,
		PlaceID:      r.PlaceID,
	}
	switch {
	case r.Lat != nil && r.Lng != nil:
		d.Coordinates = &domain.Coordinates{Lat: *r.Lat, Lng: *r.Lng}
	case r.Lat != nil || r.Lng != nil:
		return domain.Draft{}, fmt.Errorf("%w: lat and lng must be sent together", domain.ErrInvalidCoordinates)
	}
	return d, nil
}

type PreviewResponse = services.Preview

type AddDeliveryResponse struct {
	Stop  domain.Stop          `json:"stop"`
	Route domain.RouteSnapshot `json:"route"`
}

// ScheduleConflictResponse is returned with 409 when an add would run past
// the end of shift and was not confirmed.
type ScheduleConflictResponse struct {
	Error    string                  `json:"error"`
	Advisory domain.ScheduleAdvisory `json:"advisory"`
	Estimate domain.Estimate         `json:"estimate"`
}

type StatusRequest struct {
	Status string `json:"status"`
}
