package domain

import "time"

// RouteMetrics is derived from the ordered active stops and is always
// recomputed in full.
type RouteMetrics struct {
	TotalDistance float64  `json:"total_distance"`
	TotalTime     int      `json:"total_time"`
	Sequence      []string `json:"sequence"`
}

// Home or depot the driver returns to at the end of the shift.
type EndLocation struct {
	Coordinates
	Address string `json:"address"`
}

type RouteConfig struct {
	EndLocation *EndLocation `json:"end_location,omitempty"`
	// 24-hour "HH:MM"; empty means no deadline.
	WorkEndTime string `json:"work_end_time,omitempty"`
}

// ScheduleAdvisory tells the caller whether adding more work would run past
// the configured end of shift. It never blocks anything by itself.
type ScheduleAdvisory struct {
	Exceeds      bool       `json:"exceeds"`
	ProjectedEnd *time.Time `json:"projected_end"`
}

type RouteSummary struct {
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	Total          int `json:"total"`
	PercentageDone int `json:"percentage_done"`
}

// Summarize counts stops by status. Total excludes cancelled stops.
func Summarize(stops []Stop) RouteSummary {
	var s RouteSummary
	for _, st := range stops {
		switch st.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
		if st.Status != StatusCancelled {
			s.Total++
		}
	}
	if s.Total > 0 {
		s.PercentageDone = int(float64(s.Completed)/float64(s.Total)*100 + 0.5)
	}
	return s
}

// RouteSnapshot is the full derived view handed back to callers after every
// mutation. Version increases with every committed change, so consumers can
// discard snapshots that arrive out of order.
type RouteSnapshot struct {
	Stops   []Stop         `json:"stops"`
	Metrics RouteMetrics   `json:"metrics"`
	Summary RouteSummary   `json:"summary"`
	Config  RouteConfig    `json:"config"`
	Driver  DriverLocation `json:"driver"`
	Version uint64         `json:"version"`
}
