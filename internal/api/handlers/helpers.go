package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"delivtrack/internal/api/dto"
	"delivtrack/internal/domain"
	"delivtrack/internal/platform/obs"
	"delivtrack/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes. Anything
// unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var exceeded *services.ScheduleExceededError
	switch {
	case errors.As(err, &exceeded):
		writeJSON(w, r, http.StatusConflict, dto.ScheduleConflictResponse{
			Error:    exceeded.Error(),
			Advisory: exceeded.Advisory,
			Estimate: exceeded.Estimate,
		})
	case errors.Is(err, domain.ErrStopNotFound), errors.Is(err, domain.ErrPlaceNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinates),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidWorkEndTime),
		errors.Is(err, services.ErrInvalidPlace):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrGeocode):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("req_id=%s request failed: method=%s path=%s err=%v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
