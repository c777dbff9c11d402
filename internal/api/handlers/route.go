package handlers

import (
	"net/http"
	"time"

	"delivtrack/internal/api/dto"
	"delivtrack/internal/domain"
	"delivtrack/internal/services"
)

// RouteHandler exposes the delivery route: stops, metrics and configuration.
type RouteHandler struct {
	Service *services.RouteService
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Service.State(r.Context()))
}

func (h *RouteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := req.Draft()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.Service.Preview(r.Context(), draft)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.PreviewResponse(p))
}

// Add commits a stop. An add that would run past the end of shift is
// refused with 409 unless the request sets confirm.
func (h *RouteHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := req.Draft()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stop, snap, err := h.Service.AddStop(r.Context(), draft, req.Confirm)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.AddDeliveryResponse{Stop: stop, Route: snap})
}

func (h *RouteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.RemoveStop(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *RouteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	snap, err := h.Service.SetStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Optimize(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *RouteHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.RefreshEstimates(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *RouteHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := h.Service.Reconfigure(r.Context(), req.RouteConfig())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *RouteHandler) UpdateDriverLocation(w http.ResponseWriter, r *http.Request) {
	var req dto.DriverLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	snap, err := h.Service.UpdateDriverLocation(r.Context(), services.DriverUpdate{
		Coordinates: domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Heading:     req.Heading,
		SpeedMps:    req.Speed,
		At:          at,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}
