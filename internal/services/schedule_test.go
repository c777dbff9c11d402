package services

import (
	"testing"
	"time"

	"delivtrack/internal/domain"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestCheckConstraintExceeds(t *testing.T) {
	adv := CheckConstraint(domain.RouteMetrics{TotalTime: 50}, 20, "18:00", at(17, 0))

	if !adv.Exceeds {
		t.Fatalf("expected exceeds")
	}
	if adv.ProjectedEnd == nil || !adv.ProjectedEnd.Equal(at(18, 10)) {
		t.Fatalf("projected end = %v, want 18:10", adv.ProjectedEnd)
	}
}

func TestCheckConstraintWithinShift(t *testing.T) {
	adv := CheckConstraint(domain.RouteMetrics{TotalTime: 40}, 20, "18:00", at(17, 0))

	if adv.Exceeds {
		t.Fatalf("exactly at the deadline must not exceed")
	}
	if adv.ProjectedEnd == nil || !adv.ProjectedEnd.Equal(at(18, 0)) {
		t.Fatalf("projected end = %v", adv.ProjectedEnd)
	}
}

func TestCheckConstraintWithoutDeadline(t *testing.T) {
	for _, total := range []int{0, 60, 10_000} {
		for _, extra := range []int{0, DefaultExtraMinutes, 600} {
			adv := CheckConstraint(domain.RouteMetrics{TotalTime: total}, extra, "", at(23, 59))
			if adv.Exceeds || adv.ProjectedEnd != nil {
				t.Fatalf("total=%d extra=%d: got %+v", total, extra, adv)
			}
		}
	}
}

func TestCheckConstraintMalformedTime(t *testing.T) {
	for _, s := range []string{"6pm", "25:00", "18-00", "18:60"} {
		adv := CheckConstraint(domain.RouteMetrics{TotalTime: 600}, 15, s, at(17, 0))
		if adv.Exceeds || adv.ProjectedEnd != nil {
			t.Fatalf("%q: got %+v", s, adv)
		}
	}
}

func TestParseWorkEndTime(t *testing.T) {
	h, m, err := ParseWorkEndTime("07:45")
	if err != nil || h != 7 || m != 45 {
		t.Fatalf("got %d:%d, %v", h, m, err)
	}
}
