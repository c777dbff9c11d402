package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrStopNotFound      = errors.New("stop not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Active stops are the ones the optimizer sequences.
func (s Status) Active() bool { return s == StatusPending || s == StatusInProgress }

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// CanTransition reports whether from -> to is allowed.
//
//	pending     -> in_progress | cancelled
//	in_progress -> completed | cancelled
//
// completed and cancelled are terminal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

// Represents a single delivery drop-off.
//
// Priority, DistanceFromPrevious and EstimatedTime are derived values owned by
// the route optimizer and estimator. DistanceFromPrevious is the length of the
// leg arriving at this stop, not a distance from the route origin.
type Stop struct {
	ID                   string      `json:"id"`
	Address              string      `json:"address,omitempty"`
	CustomerName         string      `json:"customer_name,omitempty"`
	Phone                string      `json:"phone,omitempty"`
	Notes                string      `json:"notes,omitempty"`
	Coordinates          Coordinates `json:"coordinates"`
	Status               Status      `json:"status"`
	EstimatedTime        *int        `json:"estimated_time,omitempty"`
	DistanceFromPrevious *float64    `json:"distance_from_previous,omitempty"`
	EstimateSource       Source      `json:"estimate_source,omitempty"`
	Priority             int         `json:"priority"`
	CreatedAt            time.Time   `json:"created_at"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
}

// HasEstimate reports whether both leg values have been computed.
func (s Stop) HasEstimate() bool {
	return s.EstimatedTime != nil && s.DistanceFromPrevious != nil
}

// ApplyEstimate records a leg estimate on the stop.
func (s *Stop) ApplyEstimate(e Estimate) {
	d := e.DistanceKm
	m := e.DurationMinutes
	s.DistanceFromPrevious = &d
	s.EstimatedTime = &m
	s.EstimateSource = e.Source
}

// Transition moves the stop to a new status. Entering completed stamps
// CompletedAt with now.
func (s *Stop) Transition(to Status, now time.Time) error {
	if s.Status == to {
		return nil
	}
	if !s.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}

	s.Status = to
	if to == StatusCompleted {
		t := now
		s.CompletedAt = &t
	}
	return nil
}

// Draft is the caller-supplied part of a new stop.
type Draft struct {
	Address      string
	CustomerName string
	Phone        string
	Notes        string
	Coordinates  *Coordinates
	PlaceID      string
}
