package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
		StatusCompleted:  nil,
		StatusCancelled:  nil,
	}
	all := []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

	for from, targets := range allowed {
		for _, to := range all {
			want := false
			for _, ok := range targets {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitionStampsCompletion(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Stop{ID: "a", Status: StatusInProgress}

	if err := s.Transition(StatusCompleted, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CompletedAt == nil || !s.CompletedAt.Equal(now) {
		t.Fatalf("completed_at = %v", s.CompletedAt)
	}

	if err := s.Transition(StatusCompleted, now.Add(time.Hour)); err != nil {
		t.Fatalf("same status should be a no-op: %v", err)
	}
	if !s.CompletedAt.Equal(now) {
		t.Fatalf("no-op transition changed completed_at")
	}

	if err := s.Transition(StatusPending, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("in_progress"); err != nil || s != StatusInProgress {
		t.Fatalf("got %q, %v", s, err)
	}
	if _, err := ParseStatus("delivered"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestApplyEstimate(t *testing.T) {
	var s Stop
	if s.HasEstimate() {
		t.Fatalf("zero stop should have no estimate")
	}

	s.ApplyEstimate(Estimate{DistanceKm: 2.5, DurationMinutes: 15, Source: SourceFallback})
	if !s.HasEstimate() || *s.DistanceFromPrevious != 2.5 || *s.EstimatedTime != 15 || s.EstimateSource != SourceFallback {
		t.Fatalf("stop = %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	stops := []Stop{
		{Status: StatusPending},
		{Status: StatusInProgress},
		{Status: StatusCompleted},
		{Status: StatusCompleted},
		{Status: StatusCancelled},
	}

	got := Summarize(stops)
	want := RouteSummary{Pending: 1, InProgress: 1, Completed: 2, Total: 4, PercentageDone: 50}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if got := Summarize(nil); got != (RouteSummary{}) {
		t.Fatalf("empty summary = %+v", got)
	}
}

func TestCoordinatesValidate(t *testing.T) {
	valid := []Coordinates{{}, {Lat: 90, Lng: 180}, {Lat: -90, Lng: -180}, {Lat: 48.8566, Lng: 2.3522}}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Errorf("%v: unexpected error %v", c, err)
		}
	}

	invalid := []Coordinates{{Lat: 90.1}, {Lng: -180.5}, {Lat: math.NaN()}, {Lng: math.Inf(1)}}
	for _, c := range invalid {
		if err := c.Validate(); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%v: err = %v, want ErrInvalidCoordinates", c, err)
		}
	}
}

func TestCoordinatesKey(t *testing.T) {
	c := Coordinates{Lat: 48.856614, Lng: 2.3522219}
	if got := c.Key(); got != "48.85661,2.35222" {
		t.Fatalf("key = %q", got)
	}
	if got := c.CoordsToList(); got[0] != c.Lng || got[1] != c.Lat {
		t.Fatalf("list = %v", got)
	}
}
