package handlers

import (
	"net/http"

	"delivtrack/internal/api/dto"
	"delivtrack/internal/domain"
	"delivtrack/internal/services"
)

// PlaceHandler manages the driver's saved places.
type PlaceHandler struct {
	Service *services.RouteService
}

func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	places := h.Service.SavedPlaces(r.Context())
	if places == nil {
		places = []domain.SavedPlace{}
	}
	writeJSON(w, r, http.StatusOK, dto.ListPlacesResponse{Places: places})
}

func (h *PlaceHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	place, err := h.Service.AddSavedPlace(r.Context(), req.Name, req.Address, domain.Coordinates{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, place)
}

func (h *PlaceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveSavedPlace(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
