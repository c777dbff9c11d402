package domain

type Source string

const (
	SourceExternal Source = "external"
	SourceFallback Source = "fallback"
)

// Estimate is the travel cost of a single leg.
type Estimate struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Source          Source  `json:"source"`
}
