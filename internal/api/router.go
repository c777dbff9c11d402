package api

import (
	"net/http"

	"delivtrack/internal/api/handlers"
	"delivtrack/internal/hub"
	"delivtrack/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// The websocket endpoint bypasses compression; everything else is gzipped.
func NewRouter(svc *services.RouteService, h *hub.Hub) http.Handler {
	api := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Service: svc}
	placeHandler := &handlers.PlaceHandler{Service: svc}

	api.HandleFunc("/health", handlers.Health)

	api.HandleFunc("GET /route", routeHandler.Get)
	api.HandleFunc("POST /route/optimize", routeHandler.Optimize)
	api.HandleFunc("POST /route/refresh", routeHandler.Refresh)
	api.HandleFunc("PUT /config", routeHandler.Configure)
	api.HandleFunc("PUT /driver/location", routeHandler.UpdateDriverLocation)

	api.HandleFunc("POST /deliveries/preview", routeHandler.Preview)
	api.HandleFunc("POST /deliveries", routeHandler.Add)
	api.HandleFunc("DELETE /deliveries/{id}", routeHandler.Remove)
	api.HandleFunc("PATCH /deliveries/{id}/status", routeHandler.SetStatus)

	api.HandleFunc("GET /places", placeHandler.List)
	api.HandleFunc("POST /places", placeHandler.Add)
	api.HandleFunc("DELETE /places/{id}", placeHandler.Remove)

	mux := http.NewServeMux()
	mux.Handle("/", gzipMiddleware(api))
	if h != nil {
		wsHandler := &handlers.WSHandler{Hub: h, Service: svc}
		mux.HandleFunc("GET /ws", wsHandler.ServeWS)
	}

	return requestIDMiddleware(loggingMiddleware(corsMiddleware(mux)))
}
