package ports

import "delivtrack/internal/domain"

// Receives the recomputed route after each committed change.
type RouteNotifier interface {
	Publish(snapshot domain.RouteSnapshot)
}
