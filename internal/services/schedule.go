package services

import (
	"log"
	"time"

	"delivtrack/internal/domain"
)

// Extra minutes assumed for a new stop that has no estimate yet.
const DefaultExtraMinutes = 15

// ParseWorkEndTime parses a 24-hour "HH:MM" clock time.
func ParseWorkEndTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// CheckConstraint projects the end of the shift if extraMinutes of work were
// added to the current route, and compares it against today's workEndTime.
//
// An empty or unparseable workEndTime means there is no deadline. The
// deadline is always on now's calendar day; shifts that cross midnight are
// not handled.
func CheckConstraint(
	current domain.RouteMetrics,
	extraMinutes int,
	workEndTime string,
	now time.Time,
) domain.ScheduleAdvisory {
	if workEndTime == "" {
		return domain.ScheduleAdvisory{}
	}

	hour, minute, err := ParseWorkEndTime(workEndTime)
	if err != nil {
		log.Printf("schedule check: ignoring malformed work_end_time=%q: %v", workEndTime, err)
		return domain.ScheduleAdvisory{}
	}

	needed := current.TotalTime + extraMinutes
	projectedEnd := now.Add(time.Duration(needed) * time.Minute)
	deadline := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	return domain.ScheduleAdvisory{
		Exceeds:      projectedEnd.After(deadline),
		ProjectedEnd: &projectedEnd,
	}
}
